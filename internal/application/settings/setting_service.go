package settings

import (
	"context"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SetSettingRequest is the input for writing one setting
type SetSettingRequest struct {
	Value string `json:"value"`
}

// SettingResponse is the wire representation of a setting
type SettingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingService handles per-tenant key/value settings
type SettingService struct {
	settings *persistence.SettingRepository
	logger   *zap.Logger
}

// NewSettingService creates a new SettingService
func NewSettingService(settings *persistence.SettingRepository, logger *zap.Logger) *SettingService {
	return &SettingService{settings: settings, logger: logger}
}

// Get fetches one setting by key
func (s *SettingService) Get(ctx context.Context, actor shared.Actor, key string) (*SettingResponse, error) {
	row, err := s.settings.GetOneBy(ctx, actor.TenantID, "key", key)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load setting")
	}
	if row == nil {
		return nil, shared.NewNotFound("Setting not found")
	}
	return toSettingResponse(row), nil
}

// GetAll returns every setting of the tenant
func (s *SettingService) GetAll(ctx context.Context, actor shared.Actor) ([]SettingResponse, error) {
	rows, err := s.settings.GetAll(ctx, actor.TenantID)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load settings")
	}
	responses := make([]SettingResponse, len(rows))
	for i := range rows {
		responses[i] = *toSettingResponse(&rows[i])
	}
	return responses, nil
}

// Set upserts one setting
func (s *SettingService) Set(ctx context.Context, actor shared.Actor, key string, req SetSettingRequest) (*SettingResponse, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, shared.NewBadRequest("Setting key cannot be empty")
	}

	if key == models.SettingCurrentCampaign && req.Value != "" {
		if _, err := uuid.Parse(req.Value); err != nil {
			return nil, shared.NewBadRequest("Current campaign must be a campaign id")
		}
	}

	row, err := s.settings.SetValue(ctx, actor, key, req.Value)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to write setting")
	}
	return toSettingResponse(row), nil
}

// Unset removes one setting. Unsetting an absent key is a no-op.
func (s *SettingService) Unset(ctx context.Context, actor shared.Actor, key string) error {
	row, err := s.settings.GetOneBy(ctx, actor.TenantID, "key", key)
	if err != nil {
		return shared.WrapInternal(err, "Failed to load setting")
	}
	if row == nil {
		return nil
	}
	_, err = s.settings.Delete(ctx, actor.TenantID, row.ID)
	return shared.WrapInternal(err, "Failed to remove setting")
}

func toSettingResponse(row *models.Setting) *SettingResponse {
	return &SettingResponse{
		Key:       row.Key,
		Value:     row.Value,
		UpdatedAt: row.UpdatedAt,
	}
}
