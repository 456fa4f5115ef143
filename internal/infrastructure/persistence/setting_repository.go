package persistence

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingColumns is the descriptor allow-list for the settings table
var settingColumns = ColumnSet{
	Table:      "settings",
	Searchable: []string{"settings.key", "settings.value"},
	Filterable: map[string]string{
		"key": "settings.key",
	},
	Sortable: map[string]string{
		"key":        "settings.key",
		"updated_at": "settings.updated_at",
	},
	DefaultSort: "settings.key ASC",
	PageSize:    100,
}

// SettingRepository provides tenant-scoped access to key/value settings
type SettingRepository struct {
	*Repository[models.Setting]
}

// NewSettingRepository creates a setting repository
func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{Repository: NewRepository[models.Setting](db, settingColumns)}
}

// WithTx rebinds the repository to a transaction handle
func (r *SettingRepository) WithTx(tx *gorm.DB) *SettingRepository {
	return &SettingRepository{Repository: r.Repository.WithTx(tx)}
}

// GetValue returns the value for a key, ("", nil) when the key is unset
func (r *SettingRepository) GetValue(ctx context.Context, tenantID uuid.UUID, key string) (string, error) {
	row, err := r.GetOneBy(ctx, tenantID, "key", key)
	if err != nil || row == nil {
		return "", err
	}
	return row.Value, nil
}

// SetValue upserts one key within the tenant
func (r *SettingRepository) SetValue(ctx context.Context, actor shared.Actor, key, value string) (*models.Setting, error) {
	row := models.Setting{
		BaseModel:   models.NewBaseModel(),
		TenantID:    actor.TenantID,
		CreatedByID: actor.ActorRef(),
		UpdatedByID: actor.ActorRef(),
		Key:         key,
		Value:       value,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updatedby_id", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return nil, translateError(err)
	}
	return r.GetOneBy(ctx, actor.TenantID, "key", key)
}
