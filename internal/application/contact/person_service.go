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

// PersonService handles individual contact operations
type PersonService struct {
	db         *persistence.Database
	persons    *persistence.PersonRepository
	households *persistence.HouseholdRepository
	lists      *persistence.ListRepository
	teams      *persistence.TeamRepository
	tasks      *persistence.TaskRepository
	messages   *persistence.EmailMessageRepository
	settings   *persistence.SettingRepository
	logger     *zap.Logger
}

// NewPersonService creates a new PersonService
func NewPersonService(
	db *persistence.Database,
	persons *persistence.PersonRepository,
	households *persistence.HouseholdRepository,
	lists *persistence.ListRepository,
	teams *persistence.TeamRepository,
	tasks *persistence.TaskRepository,
	messages *persistence.EmailMessageRepository,
	settings *persistence.SettingRepository,
	logger *zap.Logger,
) *PersonService {
	return &PersonService{
		db:         db,
		persons:    persons,
		households: households,
		lists:      lists,
		teams:      teams,
		tasks:      tasks,
		messages:   messages,
		settings:   settings,
		logger:     logger,
	}
}

// Create creates a person. When the request names no campaign the tenant's
// current campaign setting, if any, is stamped on the row.
func (s *PersonService) Create(ctx context.Context, actor shared.Actor, req CreatePersonRequest) (*PersonResponse, error) {
	campaignID := req.CampaignID
	if campaignID == nil {
		resolved, err := s.currentCampaign(ctx, actor.TenantID)
		if err != nil {
			return nil, err
		}
		campaignID = resolved
	}

	if req.HouseholdID != nil {
		household, err := s.households.GetByID(ctx, actor.TenantID, *req.HouseholdID)
		if err != nil {
			return nil, shared.WrapInternal(err, "Failed to resolve household")
		}
		if household == nil {
			return nil, shared.NewBadRequest("Household does not exist")
		}
	}

	person := models.Person{
		TenantOwnedModel: models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:            req.Phone,
		Address:          req.Address,
		City:             req.City,
		State:            req.State,
		PostalCode:       req.PostalCode,
		Notes:            req.Notes,
		HouseholdID:      req.HouseholdID,
		CampaignID:       campaignID,
		DoNotContact:     req.DoNotContact,
	}
	if err := s.persons.Add(ctx, &person); err != nil {
		return nil, shared.WrapInternal(err, "Failed to create person")
	}

	for _, name := range req.Tags {
		if _, err := s.persons.Tags().AttachTag(ctx, actor, person.ID, name); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, actor, person.ID)
}

// Update applies a partial update. Updating an absent or foreign-tenant id
// returns Not Found.
func (s *PersonService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdatePersonRequest) (*PersonResponse, error) {
	values := req.Values()
	if len(values) == 0 {
		return s.Get(ctx, actor, id)
	}
	values["updatedby_id"] = actor.ActorRef()

	person, err := s.persons.Update(ctx, actor.TenantID, id, values)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to update person")
	}
	if person == nil {
		return nil, shared.NewNotFound("Person not found")
	}
	return s.Get(ctx, actor, id)
}

// Get fetches one person together with its tags
func (s *PersonService) Get(ctx context.Context, actor shared.Actor, id uuid.UUID) (*PersonResponse, error) {
	person, err := s.persons.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load person")
	}
	if person == nil {
		return nil, shared.NewNotFound("Person not found")
	}

	resp := toPersonResponse(person)
	resp.Tags, err = s.persons.Tags().GetTags(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load tags")
	}
	if person.HouseholdID != nil {
		household, err := s.households.GetByID(ctx, actor.TenantID, *person.HouseholdID)
		if err != nil {
			return nil, shared.WrapInternal(err, "Failed to load household")
		}
		if household != nil {
			resp.HouseholdName = household.Name
			resp.HouseholdAddress = household.Address
			resp.HouseholdCity = household.City
		}
	}
	return resp, nil
}

// GetPage runs the joined grid query for one descriptor
func (s *PersonService) GetPage(ctx context.Context, actor shared.Actor, desc shared.QueryDescriptor) (shared.Page[PersonResponse], error) {
	page, err := s.persons.GetPageWithHousehold(ctx, actor.TenantID, desc)
	if err != nil {
		return shared.Page[PersonResponse]{Rows: []PersonResponse{}}, shared.WrapInternal(err, "Failed to query persons")
	}
	return toPersonPage(page), nil
}

// Delete removes a person and every row that references it: tag mappings,
// static list memberships and team roster entries go with it, while tasks and
// triage messages merely lose their link. All of it commits atomically.
func (s *PersonService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	person, err := s.persons.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return shared.WrapInternal(err, "Failed to load person")
	}
	if person == nil {
		return shared.NewNotFound("Person not found")
	}

	ids := []uuid.UUID{id}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		persons := s.persons.WithTx(tx)
		if err := persons.Tags().DeleteMappingsForEntities(ctx, actor.TenantID, ids); err != nil {
			return err
		}
		if err := s.lists.WithTx(tx).DeleteMembershipsForPersons(ctx, actor.TenantID, ids); err != nil {
			return err
		}
		if err := s.teams.WithTx(tx).DeleteRosterForPersons(ctx, actor.TenantID, ids); err != nil {
			return err
		}
		if err := s.tasks.WithTx(tx).UnlinkPersons(ctx, actor.TenantID, ids); err != nil {
			return err
		}
		if err := s.messages.WithTx(tx).UnlinkPersons(ctx, actor.TenantID, ids); err != nil {
			return err
		}
		_, err := persons.Repository.Delete(ctx, actor.TenantID, id)
		return err
	})
	if err != nil {
		return shared.WrapInternal(err, "Failed to delete person")
	}

	s.logger.Info("person deleted",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("person_id", id.String()),
	)
	return nil
}

// Autocomplete returns up to a handful of name suggestions for a prefix
func (s *PersonService) Autocomplete(ctx context.Context, actor shared.Actor, key string) ([]AutocompleteEntry, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return []AutocompleteEntry{}, nil
	}

	byLast, err := s.persons.FindPrefix(ctx, actor.TenantID, "last_name", key)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to search persons")
	}
	byFirst, err := s.persons.FindPrefix(ctx, actor.TenantID, "first_name", key)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to search persons")
	}

	seen := map[uuid.UUID]bool{}
	entries := []AutocompleteEntry{}
	for _, p := range append(byLast, byFirst...) {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		entries = append(entries, AutocompleteEntry{
			ID:    p.ID,
			Label: strings.TrimSpace(p.FirstName + " " + p.LastName),
		})
	}
	return entries, nil
}

// AttachTag links a person to the named tag, creating the tag on first use
func (s *PersonService) AttachTag(ctx context.Context, actor shared.Actor, id uuid.UUID, name string) ([]string, error) {
	person, err := s.persons.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load person")
	}
	if person == nil {
		return nil, shared.NewNotFound("Person not found")
	}
	if _, err := s.persons.Tags().AttachTag(ctx, actor, id, name); err != nil {
		return nil, err
	}
	return s.persons.Tags().GetTags(ctx, actor.TenantID, id)
}

// DetachTag removes the named tag from a person; detaching an unattached tag
// is a no-op.
func (s *PersonService) DetachTag(ctx context.Context, actor shared.Actor, id uuid.UUID, name string) ([]string, error) {
	if err := s.persons.Tags().DetachTag(ctx, actor.TenantID, id, name); err != nil {
		return nil, shared.WrapInternal(err, "Failed to detach tag")
	}
	return s.persons.Tags().GetTags(ctx, actor.TenantID, id)
}

// currentCampaign resolves the tenant's current campaign setting, nil when unset
func (s *PersonService) currentCampaign(ctx context.Context, tenantID uuid.UUID) (*uuid.UUID, error) {
	value, err := s.settings.GetValue(ctx, tenantID, models.SettingCurrentCampaign)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to resolve current campaign")
	}
	if value == "" {
		return nil, nil
	}
	campaignID, err := uuid.Parse(value)
	if err != nil {
		// A malformed setting must not block contact creation.
		s.logger.Warn("current campaign setting is not a uuid",
			zap.String("tenant_id", tenantID.String()), zap.String("value", value))
		return nil, nil
	}
	return &campaignID, nil
}
