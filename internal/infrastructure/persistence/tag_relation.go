package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRelationConfig describes the mapping table wiring for one taggable
// entity type.
type TagRelationConfig struct {
	// MappingTable is the many-to-many table, e.g. "map_persons_tags".
	MappingTable string
	// EntityColumn is the mapping table's entity id column, e.g. "person_id".
	EntityColumn string
}

// TagRelation links entities of one type to the shared tags table through a
// per-entity mapping table. Tags are addressed by name; ids never cross the
// service boundary.
type TagRelation struct {
	db  *gorm.DB
	cfg TagRelationConfig
}

// NewTagRelation creates a tag relation manager for one mapping table
func NewTagRelation(db *gorm.DB, cfg TagRelationConfig) *TagRelation {
	return &TagRelation{db: db, cfg: cfg}
}

// WithTx rebinds the relation manager to an open transaction handle
func (t *TagRelation) WithTx(tx *gorm.DB) *TagRelation {
	return &TagRelation{db: tx, cfg: t.cfg}
}

// Config returns the mapping table wiring
func (t *TagRelation) Config() TagRelationConfig {
	return t.cfg
}

// AttachTag links an entity to the named tag, creating the tag on first use.
// Both steps are idempotent: concurrent attaches by the same name cannot
// create duplicate tags (insert-on-conflict-do-nothing, then reselect) and a
// second attach of the same pair leaves exactly one mapping row.
func (t *TagRelation) AttachTag(ctx context.Context, actor shared.Actor, entityID uuid.UUID, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewBadRequest("Tag name cannot be empty")
	}

	tag, err := t.getOrCreateTag(ctx, actor, name)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = t.db.WithContext(ctx).Table(t.cfg.MappingTable).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]any{
			"id":             uuid.New(),
			"tenant_id":      actor.TenantID,
			t.cfg.EntityColumn: entityID,
			"tag_id":         tag.ID,
			"createdby_id":   actor.UserID,
			"updatedby_id":   actor.UserID,
			"created_at":     now,
			"updated_at":     now,
		}).Error
	if err != nil {
		return nil, translateError(err)
	}
	return tag, nil
}

// getOrCreateTag resolves a tag by (tenant, name), creating it when missing.
// The insert races through the unique constraint; the reselect observes
// whichever row won.
func (t *TagRelation) getOrCreateTag(ctx context.Context, actor shared.Actor, name string) (*models.Tag, error) {
	tag := models.NewTag(actor.TenantID, actor.ActorRef(), name)
	err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&tag).Error
	if err != nil {
		return nil, translateError(err)
	}

	var found models.Tag
	err = t.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", actor.TenantID, name).
		First(&found).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &found, nil
}

// DetachTag removes the mapping between an entity and the named tag. Every
// resolution step no-ops silently when the previous one found nothing;
// detaching a tag that was never attached is not an error.
func (t *TagRelation) DetachTag(ctx context.Context, tenantID, entityID uuid.UUID, name string) error {
	var tag models.Tag
	err := t.db.WithContext(ctx).
		Select("id").
		Where("tenant_id = ? AND name = ?", tenantID, strings.TrimSpace(name)).
		First(&tag).Error
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return translateError(err)
	}

	var mappingID uuid.UUID
	err = t.db.WithContext(ctx).Table(t.cfg.MappingTable).
		Select("id").
		Where("tenant_id = ? AND "+t.cfg.EntityColumn+" = ? AND tag_id = ?", tenantID, entityID, tag.ID).
		Limit(1).
		Scan(&mappingID).Error
	if err != nil {
		return translateError(err)
	}
	if mappingID == uuid.Nil {
		return nil
	}

	return translateError(t.db.WithContext(ctx).
		Exec("DELETE FROM "+t.cfg.MappingTable+" WHERE tenant_id = ? AND id = ?", tenantID, mappingID).Error)
}

// GetTags returns the tag names attached to one entity, sorted by name
func (t *TagRelation) GetTags(ctx context.Context, tenantID, entityID uuid.UUID) ([]string, error) {
	names := []string{}
	err := t.db.WithContext(ctx).Table(t.cfg.MappingTable+" AS m").
		Joins("INNER JOIN tags ON tags.id = m.tag_id").
		Where("m.tenant_id = ? AND m."+t.cfg.EntityColumn+" = ?", tenantID, entityID).
		Order("tags.name ASC").
		Pluck("tags.name", &names).Error
	if err != nil {
		return nil, translateError(err)
	}
	return names, nil
}

// GetDistinctTags returns the deduplicated tag names in use by this entity
// type within the tenant.
func (t *TagRelation) GetDistinctTags(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	names := []string{}
	err := t.db.WithContext(ctx).Table("tags").
		Joins("INNER JOIN "+t.cfg.MappingTable+" AS m ON m.tag_id = tags.id").
		Where("tags.tenant_id = ?", tenantID).
		Distinct().
		Order("tags.name ASC").
		Pluck("tags.name", &names).Error
	if err != nil {
		return nil, translateError(err)
	}
	return names, nil
}

// EntityIDsWithTag returns the ids of all entities carrying the named tag
func (t *TagRelation) EntityIDsWithTag(ctx context.Context, tenantID uuid.UUID, name string) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := t.db.WithContext(ctx).Table(t.cfg.MappingTable+" AS m").
		Joins("INNER JOIN tags ON tags.id = m.tag_id").
		Where("m.tenant_id = ? AND tags.name = ?", tenantID, name).
		Pluck("m."+t.cfg.EntityColumn, &ids).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

// CountMappingsForTag counts how many entities of this type still carry the tag
func (t *TagRelation) CountMappingsForTag(ctx context.Context, tenantID, tagID uuid.UUID) (int64, error) {
	var count int64
	err := t.db.WithContext(ctx).Table(t.cfg.MappingTable).
		Where("tenant_id = ? AND tag_id = ?", tenantID, tagID).
		Count(&count).Error
	if err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// CountMappingsForTagAmong counts how many of the given entities still carry
// the tag. An empty entity set counts zero without touching the database.
func (t *TagRelation) CountMappingsForTagAmong(ctx context.Context, tenantID, tagID uuid.UUID, entityIDs []uuid.UUID) (int64, error) {
	if len(entityIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := t.db.WithContext(ctx).Table(t.cfg.MappingTable).
		Where("tenant_id = ? AND tag_id = ? AND "+t.cfg.EntityColumn+" IN ?", tenantID, tagID, entityIDs).
		Count(&count).Error
	if err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// DeleteMappingsForTags hard-deletes every mapping row referencing the given
// tags. Used by transactional tag deletion before the tag rows themselves go.
func (t *TagRelation) DeleteMappingsForTags(ctx context.Context, tenantID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	return translateError(t.db.WithContext(ctx).
		Exec("DELETE FROM "+t.cfg.MappingTable+" WHERE tenant_id = ? AND tag_id IN ?", tenantID, tagIDs).Error)
}

// DeleteMappingsForEntities hard-deletes every mapping row referencing the
// given entities. Used by cascading deletes.
func (t *TagRelation) DeleteMappingsForEntities(ctx context.Context, tenantID uuid.UUID, entityIDs []uuid.UUID) error {
	if len(entityIDs) == 0 {
		return nil
	}
	return translateError(t.db.WithContext(ctx).
		Exec("DELETE FROM "+t.cfg.MappingTable+" WHERE tenant_id = ? AND "+t.cfg.EntityColumn+" IN ?", tenantID, entityIDs).Error)
}
