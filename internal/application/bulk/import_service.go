package bulk

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

// RegisterImportRequest is the input for registering a completed bulk import
type RegisterImportRequest struct {
	FileName string `json:"file_name" binding:"required,min=1,max=255"`
	Source   string `json:"source" binding:"max=100"`
	// TagName is the provenance tag stamped on every imported row. Without
	// it the import is recorded but can never be reversed.
	TagName           string `json:"tag_name" binding:"max=120"`
	RowCount          int    `json:"row_count" binding:"min=0"`
	InsertCount       int    `json:"insert_count" binding:"min=0"`
	ErrorCount        int    `json:"error_count" binding:"min=0"`
	SkipCount         int    `json:"skip_count" binding:"min=0"`
	HouseholdsCreated int    `json:"households_created" binding:"min=0"`
}

// ImportResponse is the wire representation of an import record
type ImportResponse struct {
	ID                uuid.UUID  `json:"id"`
	FileName          string     `json:"file_name"`
	Source            string     `json:"source,omitempty"`
	TagID             *uuid.UUID `json:"tag_id,omitempty"`
	RowCount          int        `json:"row_count"`
	InsertCount       int        `json:"insert_count"`
	ErrorCount        int        `json:"error_count"`
	SkipCount         int        `json:"skip_count"`
	HouseholdsCreated int        `json:"households_created"`
	Reversible        bool       `json:"reversible"`
	CreatedAt         time.Time  `json:"created_at"`
}

// DeleteImportRequest opts into deleting the contacts an import created
// alongside the import record itself. Without the flag only the record goes.
type DeleteImportRequest struct {
	DeleteContacts bool `json:"deleteContacts"`
}

// DeleteImportResponse reports what the deletion removed
type DeleteImportResponse struct {
	Deleted           bool `json:"deleted"`
	ContactsRemoved   bool `json:"contactsRemoved"`
	PersonsDeleted    int  `json:"persons_deleted"`
	HouseholdsDeleted int  `json:"households_deleted"`
}

// ImportService records bulk contact imports and reverses them
type ImportService struct {
	db         *persistence.Database
	imports    *persistence.DataImportRepository
	persons    *persistence.PersonRepository
	households *persistence.HouseholdRepository
	tags       *persistence.TagRepository
	lists      *persistence.ListRepository
	teams      *persistence.TeamRepository
	tasks      *persistence.TaskRepository
	messages   *persistence.EmailMessageRepository
	logger     *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(
	db *persistence.Database,
	imports *persistence.DataImportRepository,
	persons *persistence.PersonRepository,
	households *persistence.HouseholdRepository,
	tags *persistence.TagRepository,
	lists *persistence.ListRepository,
	teams *persistence.TeamRepository,
	tasks *persistence.TaskRepository,
	messages *persistence.EmailMessageRepository,
	logger *zap.Logger,
) *ImportService {
	return &ImportService{
		db:         db,
		imports:    imports,
		persons:    persons,
		households: households,
		tags:       tags,
		lists:      lists,
		teams:      teams,
		tasks:      tasks,
		messages:   messages,
		logger:     logger,
	}
}

// Register records a completed import. When a tag name is given the
// provenance tag is created non-deletable, so ordinary tag cleanup cannot
// sever the link that makes the import reversible.
func (s *ImportService) Register(ctx context.Context, actor shared.Actor, req RegisterImportRequest) (*ImportResponse, error) {
	record := models.DataImport{
		TenantOwnedModel:  models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
		FileName:          strings.TrimSpace(req.FileName),
		Source:            req.Source,
		RowCount:          req.RowCount,
		InsertCount:       req.InsertCount,
		ErrorCount:        req.ErrorCount,
		SkipCount:         req.SkipCount,
		HouseholdsCreated: req.HouseholdsCreated,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if name := strings.TrimSpace(req.TagName); name != "" {
			tag, err := s.provenanceTag(ctx, tx, actor, name)
			if err != nil {
				return err
			}
			record.TagID = &tag.ID
		}
		return s.imports.WithTx(tx).Add(ctx, &record)
	})
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to register import")
	}
	return toImportResponse(&record), nil
}

// Get fetches one import record
func (s *ImportService) Get(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ImportResponse, error) {
	record, err := s.imports.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load import")
	}
	if record == nil {
		return nil, shared.NewNotFound("Import not found")
	}
	return toImportResponse(record), nil
}

// GetPage runs the imports grid query for one descriptor
func (s *ImportService) GetPage(ctx context.Context, actor shared.Actor, desc shared.QueryDescriptor) (shared.Page[ImportResponse], error) {
	page, err := s.imports.GetPage(ctx, actor.TenantID, desc)
	if err != nil {
		return shared.Page[ImportResponse]{Rows: []ImportResponse{}}, shared.WrapInternal(err, "Failed to query imports")
	}
	rows := make([]ImportResponse, len(page.Rows))
	for i := range page.Rows {
		rows[i] = *toImportResponse(&page.Rows[i])
	}
	return shared.Page[ImportResponse]{Rows: rows, Count: page.Count}, nil
}

// Delete removes an import record. Contact deletion is opt-in: only when the
// caller sets deleteContacts does the import get reversed, deleting every
// person and household it created along with their tag mappings, list
// memberships and roster rows, in one transaction. Reversal requires the
// provenance tag to still exist and to still be assigned to at least one
// affected row; both checks run before any write, so a failed precondition
// leaves the data untouched. Without the flag the import record goes alone
// and the affected rows only have their file links cleared.
func (s *ImportService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID, req DeleteImportRequest) (*DeleteImportResponse, error) {
	record, err := s.imports.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load import")
	}
	if record == nil {
		return nil, shared.NewNotFound("Import not found")
	}

	if req.DeleteContacts {
		if record.TagID == nil {
			return nil, shared.NewPreconditionFailed("The import has no provenance tag; its contacts cannot be deleted")
		}
		tag, err := s.tags.GetByID(ctx, actor.TenantID, *record.TagID)
		if err != nil {
			return nil, shared.WrapInternal(err, "Failed to resolve provenance tag")
		}
		if tag == nil {
			return nil, shared.NewPreconditionFailed("The import's provenance tag no longer exists; its contacts cannot be deleted")
		}
	}

	resp := &DeleteImportResponse{Deleted: true}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		persons := s.persons.WithTx(tx)
		households := s.households.WithTx(tx)
		imports := s.imports.WithTx(tx)

		personIDs, err := persons.IDsByFileID(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		householdIDs, err := households.IDsByFileID(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}

		if !req.DeleteContacts {
			if err := persons.ClearFileID(ctx, actor.TenantID, personIDs); err != nil {
				return err
			}
			if err := households.ClearFileID(ctx, actor.TenantID, householdIDs); err != nil {
				return err
			}
			_, err = imports.Repository.Delete(ctx, actor.TenantID, id)
			return err
		}

		assigned, err := persons.Tags().CountMappingsForTagAmong(ctx, actor.TenantID, *record.TagID, personIDs)
		if err != nil {
			return err
		}
		householdAssigned, err := households.Tags().CountMappingsForTagAmong(ctx, actor.TenantID, *record.TagID, householdIDs)
		if err != nil {
			return err
		}
		if assigned+householdAssigned == 0 {
			return shared.NewPreconditionFailed("The provenance tag is no longer assigned to any imported row; contacts cannot be deleted")
		}

		if err := persons.Tags().DeleteMappingsForEntities(ctx, actor.TenantID, personIDs); err != nil {
			return err
		}
		if err := households.Tags().DeleteMappingsForEntities(ctx, actor.TenantID, householdIDs); err != nil {
			return err
		}
		if err := s.lists.WithTx(tx).DeleteMembershipsForPersons(ctx, actor.TenantID, personIDs); err != nil {
			return err
		}
		if err := s.lists.WithTx(tx).DeleteMembershipsForHouseholds(ctx, actor.TenantID, householdIDs); err != nil {
			return err
		}
		if err := s.teams.WithTx(tx).DeleteRosterForPersons(ctx, actor.TenantID, personIDs); err != nil {
			return err
		}
		if err := s.tasks.WithTx(tx).UnlinkPersons(ctx, actor.TenantID, personIDs); err != nil {
			return err
		}
		if err := s.messages.WithTx(tx).UnlinkPersons(ctx, actor.TenantID, personIDs); err != nil {
			return err
		}

		deletedPersons, err := persons.DeleteMany(ctx, actor.TenantID, personIDs)
		if err != nil {
			return err
		}
		deletedHouseholds, err := households.DeleteMany(ctx, actor.TenantID, householdIDs)
		if err != nil {
			return err
		}
		resp.ContactsRemoved = true
		resp.PersonsDeleted = len(deletedPersons)
		resp.HouseholdsDeleted = len(deletedHouseholds)

		tagIDs := []uuid.UUID{*record.TagID}
		if err := persons.Tags().DeleteMappingsForTags(ctx, actor.TenantID, tagIDs); err != nil {
			return err
		}
		if err := households.Tags().DeleteMappingsForTags(ctx, actor.TenantID, tagIDs); err != nil {
			return err
		}
		if _, err := s.tags.WithTx(tx).Delete(ctx, actor.TenantID, *record.TagID); err != nil {
			return err
		}

		_, err = imports.Repository.Delete(ctx, actor.TenantID, id)
		return err
	})
	if err != nil {
		if _, ok := err.(*shared.DomainError); ok {
			return nil, err
		}
		return nil, shared.WrapInternal(err, "Failed to delete import")
	}

	s.logger.Info("import deleted",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("import_id", id.String()),
		zap.Bool("contacts_removed", resp.ContactsRemoved),
		zap.Int("persons_deleted", resp.PersonsDeleted),
		zap.Int("households_deleted", resp.HouseholdsDeleted),
	)
	return resp, nil
}

// provenanceTag resolves or creates the non-deletable tag for one import
func (s *ImportService) provenanceTag(ctx context.Context, tx *gorm.DB, actor shared.Actor, name string) (*models.Tag, error) {
	tags := s.tags.WithTx(tx)
	existing, err := tags.GetByName(ctx, actor.TenantID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Deletable {
			_, err = tags.Update(ctx, actor.TenantID, existing.ID, map[string]any{"deletable": false})
			if err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	tag := models.NewTag(actor.TenantID, actor.ActorRef(), name)
	tag.Deletable = false
	if err := tags.Add(ctx, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func toImportResponse(record *models.DataImport) *ImportResponse {
	return &ImportResponse{
		ID:                record.ID,
		FileName:          record.FileName,
		Source:            record.Source,
		TagID:             record.TagID,
		RowCount:          record.RowCount,
		InsertCount:       record.InsertCount,
		ErrorCount:        record.ErrorCount,
		SkipCount:         record.SkipCount,
		HouseholdsCreated: record.HouseholdsCreated,
		Reversible:        record.TagID != nil,
		CreatedAt:         record.CreatedAt,
	}
}
