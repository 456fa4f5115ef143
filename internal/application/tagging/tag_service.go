package tagging

import (
	"context"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateTagRequest is the input for creating a tag ahead of first attach
type CreateTagRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=120"`
	Description string `json:"description" binding:"max=255"`
}

// UpdateTagRequest is the partial-update input for a tag. The name itself is
// immutable; renaming would silently rewrite history on every tagged row.
type UpdateTagRequest struct {
	Description *string `json:"description" binding:"omitempty,max=255"`
}

// TagResponse is the wire representation of a tag with usage counts
type TagResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Deletable      bool      `json:"deletable"`
	PersonCount    int64     `json:"person_count"`
	HouseholdCount int64     `json:"household_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DeleteTagsRequest names the tags to bulk-delete
type DeleteTagsRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// DeleteTagsResponse reports how many tags were actually removed
type DeleteTagsResponse struct {
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
}

// TagService handles tag catalogue operations
type TagService struct {
	db         *persistence.Database
	tags       *persistence.TagRepository
	persons    *persistence.PersonRepository
	households *persistence.HouseholdRepository
	logger     *zap.Logger
}

// NewTagService creates a new TagService
func NewTagService(
	db *persistence.Database,
	tags *persistence.TagRepository,
	persons *persistence.PersonRepository,
	households *persistence.HouseholdRepository,
	logger *zap.Logger,
) *TagService {
	return &TagService{
		db:         db,
		tags:       tags,
		persons:    persons,
		households: households,
		logger:     logger,
	}
}

// Create creates a tag explicitly. Most tags come into being lazily on first
// attach; explicit creation exists so a description can be set up front.
func (s *TagService) Create(ctx context.Context, actor shared.Actor, req CreateTagRequest) (*TagResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shared.NewBadRequest("Tag name cannot be empty")
	}

	existing, err := s.tags.GetByName(ctx, actor.TenantID, name)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to check tag name")
	}
	if existing != nil {
		return nil, shared.NewConflict("A tag with this name already exists")
	}

	tag := models.NewTag(actor.TenantID, actor.ActorRef(), name)
	tag.Description = req.Description
	if err := s.tags.Add(ctx, &tag); err != nil {
		if shared.IsCode(err, shared.CodeConflict) {
			return nil, shared.NewConflict("A tag with this name already exists")
		}
		return nil, shared.WrapInternal(err, "Failed to create tag")
	}
	return s.Get(ctx, actor, tag.ID)
}

// Update edits a tag's description
func (s *TagService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateTagRequest) (*TagResponse, error) {
	if req.Description == nil {
		return s.Get(ctx, actor, id)
	}
	tag, err := s.tags.Update(ctx, actor.TenantID, id, map[string]any{
		"description":  *req.Description,
		"updatedby_id": actor.ActorRef(),
	})
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to update tag")
	}
	if tag == nil {
		return nil, shared.NewNotFound("Tag not found")
	}
	return s.Get(ctx, actor, id)
}

// Get fetches one tag with usage counts
func (s *TagService) Get(ctx context.Context, actor shared.Actor, id uuid.UUID) (*TagResponse, error) {
	tag, err := s.tags.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load tag")
	}
	if tag == nil {
		return nil, shared.NewNotFound("Tag not found")
	}

	personCount, err := s.persons.Tags().CountMappingsForTag(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to count tag usage")
	}
	householdCount, err := s.households.Tags().CountMappingsForTag(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to count tag usage")
	}

	return &TagResponse{
		ID:             tag.ID,
		Name:           tag.Name,
		Description:    tag.Description,
		Deletable:      tag.Deletable,
		PersonCount:    personCount,
		HouseholdCount: householdCount,
		CreatedAt:      tag.CreatedAt,
		UpdatedAt:      tag.UpdatedAt,
	}, nil
}

// GetPage runs the usage grid query for one descriptor
func (s *TagService) GetPage(ctx context.Context, actor shared.Actor, desc shared.QueryDescriptor) (shared.Page[TagResponse], error) {
	page, err := s.tags.GetPageWithUsage(ctx, actor.TenantID, desc)
	if err != nil {
		return shared.Page[TagResponse]{Rows: []TagResponse{}}, shared.WrapInternal(err, "Failed to query tags")
	}
	rows := make([]TagResponse, len(page.Rows))
	for i, row := range page.Rows {
		rows[i] = TagResponse{
			ID:             row.ID,
			Name:           row.Name,
			Description:    row.Description,
			Deletable:      row.Deletable,
			PersonCount:    row.PersonCount,
			HouseholdCount: row.HouseholdCount,
			CreatedAt:      row.CreatedAt,
			UpdatedAt:      row.UpdatedAt,
		}
	}
	return shared.Page[TagResponse]{Rows: rows, Count: page.Count}, nil
}

// DeleteMany bulk-deletes tags together with every mapping row referencing
// them, in one transaction. Tags flagged non-deletable are skipped, not
// rejected: the caller learns how many survived the filter.
func (s *TagService) DeleteMany(ctx context.Context, actor shared.Actor, req DeleteTagsRequest) (*DeleteTagsResponse, error) {
	deletable, err := s.tags.DeletableIDs(ctx, actor.TenantID, req.IDs)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to resolve tags")
	}
	if len(deletable) == 0 {
		return &DeleteTagsResponse{Deleted: 0, Skipped: len(req.IDs)}, nil
	}

	var deleted int
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.persons.WithTx(tx).Tags().DeleteMappingsForTags(ctx, actor.TenantID, deletable); err != nil {
			return err
		}
		if err := s.households.WithTx(tx).Tags().DeleteMappingsForTags(ctx, actor.TenantID, deletable); err != nil {
			return err
		}
		rows, err := s.tags.WithTx(tx).DeleteMany(ctx, actor.TenantID, deletable)
		if err != nil {
			return err
		}
		deleted = len(rows)
		return nil
	})
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to delete tags")
	}

	s.logger.Info("tags deleted",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.Int("deleted", deleted),
	)
	return &DeleteTagsResponse{Deleted: deleted, Skipped: len(req.IDs) - deleted}, nil
}

// Names returns the deduplicated tag names in use within the tenant,
// across persons and households. Feeds the tag picker.
func (s *TagService) Names(ctx context.Context, actor shared.Actor) ([]string, error) {
	names := []string{}
	err := s.tags.Session(ctx, actor.TenantID).
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to list tag names")
	}
	return names, nil
}
