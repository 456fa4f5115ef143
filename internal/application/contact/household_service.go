package contact

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HouseholdService handles household contact operations
type HouseholdService struct {
	db         *persistence.Database
	households *persistence.HouseholdRepository
	persons    *persistence.PersonRepository
	lists      *persistence.ListRepository
	settings   *persistence.SettingRepository
	logger     *zap.Logger
}

// NewHouseholdService creates a new HouseholdService
func NewHouseholdService(
	db *persistence.Database,
	households *persistence.HouseholdRepository,
	persons *persistence.PersonRepository,
	lists *persistence.ListRepository,
	settings *persistence.SettingRepository,
	logger *zap.Logger,
) *HouseholdService {
	return &HouseholdService{
		db:         db,
		households: households,
		persons:    persons,
		lists:      lists,
		settings:   settings,
		logger:     logger,
	}
}

// Create creates a household. As with persons, the current campaign setting
// fills in when the request names none.
func (s *HouseholdService) Create(ctx context.Context, actor shared.Actor, req CreateHouseholdRequest) (*HouseholdResponse, error) {
	campaignID := req.CampaignID
	if campaignID == nil {
		value, err := s.settings.GetValue(ctx, actor.TenantID, models.SettingCurrentCampaign)
		if err != nil {
			return nil, shared.WrapInternal(err, "Failed to resolve current campaign")
		}
		if value != "" {
			if parsed, err := uuid.Parse(value); err == nil {
				campaignID = &parsed
			}
		}
	}

	household := models.Household{
		TenantOwnedModel: models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
		Name:             strings.TrimSpace(req.Name),
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:            req.Phone,
		Address:          req.Address,
		City:             req.City,
		State:            req.State,
		PostalCode:       req.PostalCode,
		Notes:            req.Notes,
		CampaignID:       campaignID,
	}
	if err := s.households.Add(ctx, &household); err != nil {
		return nil, shared.WrapInternal(err, "Failed to create household")
	}

	for _, name := range req.Tags {
		if _, err := s.households.Tags().AttachTag(ctx, actor, household.ID, name); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, actor, household.ID)
}

// Update applies a partial update. Updating an absent or foreign-tenant id
// returns Not Found.
func (s *HouseholdService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateHouseholdRequest) (*HouseholdResponse, error) {
	values := req.Values()
	if len(values) == 0 {
		return s.Get(ctx, actor, id)
	}
	values["updatedby_id"] = actor.ActorRef()

	household, err := s.households.Update(ctx, actor.TenantID, id, values)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to update household")
	}
	if household == nil {
		return nil, shared.NewNotFound("Household not found")
	}
	return s.Get(ctx, actor, id)
}

// Get fetches one household together with its tags
func (s *HouseholdService) Get(ctx context.Context, actor shared.Actor, id uuid.UUID) (*HouseholdResponse, error) {
	household, err := s.households.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load household")
	}
	if household == nil {
		return nil, shared.NewNotFound("Household not found")
	}

	resp := toHouseholdResponse(household)
	resp.Tags, err = s.households.Tags().GetTags(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load tags")
	}
	return resp, nil
}

// GetPage runs the member-count grid query for one descriptor
func (s *HouseholdService) GetPage(ctx context.Context, actor shared.Actor, desc shared.QueryDescriptor) (shared.Page[HouseholdResponse], error) {
	page, err := s.households.GetPageWithCounts(ctx, actor.TenantID, desc)
	if err != nil {
		return shared.Page[HouseholdResponse]{Rows: []HouseholdResponse{}}, shared.WrapInternal(err, "Failed to query households")
	}
	return toHouseholdPage(page), nil
}

// Members returns the persons belonging to one household
func (s *HouseholdService) Members(ctx context.Context, actor shared.Actor, id uuid.UUID) ([]PersonResponse, error) {
	household, err := s.households.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load household")
	}
	if household == nil {
		return nil, shared.NewNotFound("Household not found")
	}

	members := []models.Person{}
	err = s.persons.Session(ctx, actor.TenantID).
		Where("household_id = ?", id).
		Order("last_name ASC, first_name ASC").
		Find(&members).Error
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load members")
	}

	responses := make([]PersonResponse, len(members))
	for i := range members {
		responses[i] = *toPersonResponse(&members[i])
	}
	return responses, nil
}

// Delete removes a household. Its members survive and simply lose the
// household link; tag mappings and static list memberships go with the row.
func (s *HouseholdService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	household, err := s.households.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return shared.WrapInternal(err, "Failed to load household")
	}
	if household == nil {
		return shared.NewNotFound("Household not found")
	}

	ids := []uuid.UUID{id}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		households := s.households.WithTx(tx)
		if err := s.persons.WithTx(tx).Session(ctx, actor.TenantID).
			Where("household_id = ?", id).
			Update("household_id", nil).Error; err != nil {
			return err
		}
		if err := households.Tags().DeleteMappingsForEntities(ctx, actor.TenantID, ids); err != nil {
			return err
		}
		if err := s.lists.WithTx(tx).DeleteMembershipsForHouseholds(ctx, actor.TenantID, ids); err != nil {
			return err
		}
		_, err := households.Repository.Delete(ctx, actor.TenantID, id)
		return err
	})
	if err != nil {
		return shared.WrapInternal(err, "Failed to delete household")
	}

	s.logger.Info("household deleted",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("household_id", id.String()),
	)
	return nil
}

// Autocomplete returns up to a handful of household name suggestions
func (s *HouseholdService) Autocomplete(ctx context.Context, actor shared.Actor, key string) ([]AutocompleteEntry, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return []AutocompleteEntry{}, nil
	}
	rows, err := s.households.FindPrefix(ctx, actor.TenantID, "name", key)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to search households")
	}
	entries := make([]AutocompleteEntry, len(rows))
	for i, h := range rows {
		entries[i] = AutocompleteEntry{ID: h.ID, Label: h.Name}
	}
	return entries, nil
}

// AttachTag links a household to the named tag, creating the tag on first use
func (s *HouseholdService) AttachTag(ctx context.Context, actor shared.Actor, id uuid.UUID, name string) ([]string, error) {
	household, err := s.households.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load household")
	}
	if household == nil {
		return nil, shared.NewNotFound("Household not found")
	}
	if _, err := s.households.Tags().AttachTag(ctx, actor, id, name); err != nil {
		return nil, err
	}
	return s.households.Tags().GetTags(ctx, actor.TenantID, id)
}

// DetachTag removes the named tag from a household
func (s *HouseholdService) DetachTag(ctx context.Context, actor shared.Actor, id uuid.UUID, name string) ([]string, error) {
	if err := s.households.Tags().DetachTag(ctx, actor.TenantID, id, name); err != nil {
		return nil, shared.WrapInternal(err, "Failed to detach tag")
	}
	return s.households.Tags().GetTags(ctx, actor.TenantID, id)
}
