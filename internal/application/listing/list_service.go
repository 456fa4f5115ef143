package listing

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateListRequest is the input for creating a list
type CreateListRequest struct {
	Name        string                  `json:"name" binding:"required,min=1,max=255"`
	Description string                  `json:"description" binding:"max=255"`
	Object      string                  `json:"object" binding:"required,oneof=people households"`
	IsDynamic   bool                    `json:"is_dynamic"`
	Definition  *shared.QueryDescriptor `json:"definition"`
}

// UpdateListRequest is the partial-update input for a list. The object type
// and dynamic flag are immutable once created.
type UpdateListRequest struct {
	Name        *string                 `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string                 `json:"description" binding:"omitempty,max=255"`
	Definition  *shared.QueryDescriptor `json:"definition"`
}

// MembersRequest names explicit members to add to or remove from a static list
type MembersRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// ListResponse is the wire representation of a list
type ListResponse struct {
	ID          uuid.UUID               `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Object      string                  `json:"object"`
	IsDynamic   bool                    `json:"is_dynamic"`
	Definition  *shared.QueryDescriptor `json:"definition,omitempty"`
	MemberCount int64                   `json:"member_count"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// ListService handles contact list operations. A dynamic list stores a query
// definition that is replayed on every read; a static list snapshots its
// membership once at creation and only changes through explicit edits.
type ListService struct {
	db         *persistence.Database
	lists      *persistence.ListRepository
	persons    *persistence.PersonRepository
	households *persistence.HouseholdRepository
	logger     *zap.Logger
}

// NewListService creates a new ListService
func NewListService(
	db *persistence.Database,
	lists *persistence.ListRepository,
	persons *persistence.PersonRepository,
	households *persistence.HouseholdRepository,
	logger *zap.Logger,
) *ListService {
	return &ListService{
		db:         db,
		lists:      lists,
		persons:    persons,
		households: households,
		logger:     logger,
	}
}

// Create creates a list. For a static list the definition is evaluated once,
// inside the same transaction that creates the list row, and the matching ids
// are snapshotted as membership rows; later data changes never touch the
// snapshot. For a dynamic list only the definition is stored.
func (s *ListService) Create(ctx context.Context, actor shared.Actor, req CreateListRequest) (*ListResponse, error) {
	definition := req.Definition
	if definition == nil {
		if req.IsDynamic {
			return nil, shared.NewBadRequest("A dynamic list requires a query definition")
		}
		definition = &shared.QueryDescriptor{}
	}
	payload, err := marshalDefinition(definition)
	if err != nil {
		return nil, shared.NewBadRequest("List definition cannot be serialized")
	}

	list := models.List{
		TenantOwnedModel: models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		Object:           req.Object,
		IsDynamic:        req.IsDynamic,
		Definition:       payload,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		lists := s.lists.WithTx(tx)
		if err := lists.Add(ctx, &list); err != nil {
			return err
		}
		if req.IsDynamic {
			return nil
		}

		switch req.Object {
		case models.ListObjectPeople:
			ids, err := s.persons.WithTx(tx).IDsByFilter(ctx, actor.TenantID, *definition)
			if err != nil {
				return err
			}
			return lists.AddPersonMembers(ctx, actor, list.ID, ids)
		case models.ListObjectHouseholds:
			ids, err := s.households.WithTx(tx).IDsByFilter(ctx, actor.TenantID, *definition)
			if err != nil {
				return err
			}
			return lists.AddHouseholdMembers(ctx, actor, list.ID, ids)
		default:
			return shared.NewBadRequest("Unknown list object type")
		}
	})
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to create list")
	}

	s.logger.Info("list created",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("list_id", list.ID.String()),
		zap.Bool("dynamic", list.IsDynamic),
	)
	return s.Get(ctx, actor, list.ID)
}

// Update edits a list's name, description and, for dynamic lists, its
// definition. A static list's definition is frozen: it documents what was
// snapshotted and rewriting it would lie about the membership.
func (s *ListService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateListRequest) (*ListResponse, error) {
	list, err := s.lists.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load list")
	}
	if list == nil {
		return nil, shared.NewNotFound("List not found")
	}

	values := map[string]any{}
	if req.Name != nil {
		values["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		values["description"] = *req.Description
	}
	if req.Definition != nil {
		if !list.IsDynamic {
			return nil, shared.NewPreconditionFailed("A static list's definition cannot be changed")
		}
		payload, err := marshalDefinition(req.Definition)
		if err != nil {
			return nil, shared.NewBadRequest("List definition cannot be serialized")
		}
		values["definition"] = payload
	}
	if len(values) == 0 {
		return s.Get(ctx, actor, id)
	}
	values["updatedby_id"] = actor.ActorRef()

	updated, err := s.lists.Update(ctx, actor.TenantID, id, values)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to update list")
	}
	if updated == nil {
		return nil, shared.NewNotFound("List not found")
	}
	return s.Get(ctx, actor, id)
}

// Get fetches one list with its current member count. For a dynamic list the
// count comes from replaying the definition, so it moves with the data.
func (s *ListService) Get(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ListResponse, error) {
	list, err := s.lists.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load list")
	}
	if list == nil {
		return nil, shared.NewNotFound("List not found")
	}

	resp := &ListResponse{
		ID:          list.ID,
		Name:        list.Name,
		Description: list.Description,
		Object:      list.Object,
		IsDynamic:   list.IsDynamic,
		CreatedAt:   list.CreatedAt,
		UpdatedAt:   list.UpdatedAt,
	}
	if definition, err := unmarshalDefinition(list.Definition); err == nil {
		resp.Definition = definition
	}

	resp.MemberCount, err = s.memberCount(ctx, actor, list, resp.Definition)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to count members")
	}
	return resp, nil
}

// GetPage runs the lists grid query for one descriptor
func (s *ListService) GetPage(ctx context.Context, actor shared.Actor, desc shared.QueryDescriptor) (shared.Page[ListResponse], error) {
	page, err := s.lists.GetPage(ctx, actor.TenantID, desc)
	if err != nil {
		return shared.Page[ListResponse]{Rows: []ListResponse{}}, shared.WrapInternal(err, "Failed to query lists")
	}
	rows := make([]ListResponse, len(page.Rows))
	for i, list := range page.Rows {
		rows[i] = ListResponse{
			ID:          list.ID,
			Name:        list.Name,
			Description: list.Description,
			Object:      list.Object,
			IsDynamic:   list.IsDynamic,
			CreatedAt:   list.CreatedAt,
			UpdatedAt:   list.UpdatedAt,
		}
		if definition, err := unmarshalDefinition(list.Definition); err == nil {
			rows[i].Definition = definition
		}
	}
	return shared.Page[ListResponse]{Rows: rows, Count: page.Count}, nil
}

// PersonMembers pages through a people list's members. A dynamic list replays
// its stored definition with the caller's paging window; a static list reads
// its snapshot.
func (s *ListService) PersonMembers(ctx context.Context, actor shared.Actor, id uuid.UUID, desc shared.QueryDescriptor) (shared.Page[persistence.PersonListRow], error) {
	empty := shared.Page[persistence.PersonListRow]{Rows: []persistence.PersonListRow{}}

	list, err := s.memberTarget(ctx, actor, id, models.ListObjectPeople)
	if err != nil {
		return empty, err
	}

	if list.IsDynamic {
		replay, err := s.replayDescriptor(list, desc)
		if err != nil {
			return empty, err
		}
		page, err := s.persons.GetPageWithHousehold(ctx, actor.TenantID, replay)
		if err != nil {
			return empty, shared.WrapInternal(err, "Failed to query list members")
		}
		return page, nil
	}

	page, err := s.persons.GetMemberPage(ctx, actor.TenantID, id, desc)
	if err != nil {
		return empty, shared.WrapInternal(err, "Failed to query list members")
	}
	return page, nil
}

// HouseholdMembers pages through a household list's members
func (s *ListService) HouseholdMembers(ctx context.Context, actor shared.Actor, id uuid.UUID, desc shared.QueryDescriptor) (shared.Page[persistence.HouseholdListRow], error) {
	empty := shared.Page[persistence.HouseholdListRow]{Rows: []persistence.HouseholdListRow{}}

	list, err := s.memberTarget(ctx, actor, id, models.ListObjectHouseholds)
	if err != nil {
		return empty, err
	}

	if list.IsDynamic {
		replay, err := s.replayDescriptor(list, desc)
		if err != nil {
			return empty, err
		}
		page, err := s.households.GetPageWithCounts(ctx, actor.TenantID, replay)
		if err != nil {
			return empty, shared.WrapInternal(err, "Failed to query list members")
		}
		return page, nil
	}

	page, err := s.households.GetMemberPage(ctx, actor.TenantID, id, desc)
	if err != nil {
		return empty, shared.WrapInternal(err, "Failed to query list members")
	}
	return page, nil
}

// AddMembers adds explicit members to a static list. Dynamic membership is
// derived, so editing it directly fails the precondition.
func (s *ListService) AddMembers(ctx context.Context, actor shared.Actor, id uuid.UUID, req MembersRequest) error {
	list, err := s.lists.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return shared.WrapInternal(err, "Failed to load list")
	}
	if list == nil {
		return shared.NewNotFound("List not found")
	}
	if list.IsDynamic {
		return shared.NewPreconditionFailed("Members of a dynamic list cannot be edited directly")
	}

	switch list.Object {
	case models.ListObjectPeople:
		existing, err := s.lists.PersonMemberIDs(ctx, actor.TenantID, id)
		if err != nil {
			return shared.WrapInternal(err, "Failed to load members")
		}
		toAdd := missingIDs(existing, req.IDs)
		return shared.WrapInternal(s.lists.AddPersonMembers(ctx, actor, id, toAdd), "Failed to add members")
	case models.ListObjectHouseholds:
		existing, err := s.lists.HouseholdMemberIDs(ctx, actor.TenantID, id)
		if err != nil {
			return shared.WrapInternal(err, "Failed to load members")
		}
		toAdd := missingIDs(existing, req.IDs)
		return shared.WrapInternal(s.lists.AddHouseholdMembers(ctx, actor, id, toAdd), "Failed to add members")
	default:
		return shared.NewBadRequest("Unknown list object type")
	}
}

// RemoveMembers removes explicit members from a static list
func (s *ListService) RemoveMembers(ctx context.Context, actor shared.Actor, id uuid.UUID, req MembersRequest) error {
	list, err := s.lists.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return shared.WrapInternal(err, "Failed to load list")
	}
	if list == nil {
		return shared.NewNotFound("List not found")
	}
	if list.IsDynamic {
		return shared.NewPreconditionFailed("Members of a dynamic list cannot be edited directly")
	}
	return shared.WrapInternal(
		s.lists.RemoveMembers(ctx, actor.TenantID, id, req.IDs),
		"Failed to remove members")
}

// Delete removes a list and its membership snapshot in one transaction. The
// contacts themselves are untouched.
func (s *ListService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	list, err := s.lists.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return shared.WrapInternal(err, "Failed to load list")
	}
	if list == nil {
		return shared.NewNotFound("List not found")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		lists := s.lists.WithTx(tx)
		if err := lists.DeleteMembershipsForList(ctx, actor.TenantID, id); err != nil {
			return err
		}
		_, err := lists.Repository.Delete(ctx, actor.TenantID, id)
		return err
	})
	return shared.WrapInternal(err, "Failed to delete list")
}

// memberTarget loads a list and checks it targets the expected object type
func (s *ListService) memberTarget(ctx context.Context, actor shared.Actor, id uuid.UUID, object string) (*models.List, error) {
	list, err := s.lists.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load list")
	}
	if list == nil {
		return nil, shared.NewNotFound("List not found")
	}
	if list.Object != object {
		return nil, shared.NewBadRequest("List targets a different object type")
	}
	return list, nil
}

// replayDescriptor merges a dynamic list's stored definition with the
// caller's paging and sorting. The definition decides what is in the list;
// the caller only decides how to walk through it.
func (s *ListService) replayDescriptor(list *models.List, desc shared.QueryDescriptor) (shared.QueryDescriptor, error) {
	definition, err := unmarshalDefinition(list.Definition)
	if err != nil || definition == nil {
		return shared.QueryDescriptor{}, shared.NewPreconditionFailed("List definition can no longer be read")
	}
	replay := *definition
	replay.StartRow = desc.StartRow
	replay.EndRow = desc.EndRow
	replay.Columns = desc.Columns
	if len(desc.SortModel) > 0 {
		replay.SortModel = desc.SortModel
	}
	return replay, nil
}

func (s *ListService) memberCount(ctx context.Context, actor shared.Actor, list *models.List, definition *shared.QueryDescriptor) (int64, error) {
	if list.IsDynamic {
		if definition == nil {
			return 0, nil
		}
		switch list.Object {
		case models.ListObjectPeople:
			ids, err := s.persons.IDsByFilter(ctx, actor.TenantID, *definition)
			return int64(len(ids)), err
		case models.ListObjectHouseholds:
			ids, err := s.households.IDsByFilter(ctx, actor.TenantID, *definition)
			return int64(len(ids)), err
		}
		return 0, nil
	}

	switch list.Object {
	case models.ListObjectPeople:
		ids, err := s.lists.PersonMemberIDs(ctx, actor.TenantID, list.ID)
		return int64(len(ids)), err
	case models.ListObjectHouseholds:
		ids, err := s.lists.HouseholdMemberIDs(ctx, actor.TenantID, list.ID)
		return int64(len(ids)), err
	}
	return 0, nil
}

func marshalDefinition(definition *shared.QueryDescriptor) ([]byte, error) {
	if definition == nil {
		return nil, nil
	}
	return json.Marshal(definition)
}

func unmarshalDefinition(payload []byte) (*shared.QueryDescriptor, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var definition shared.QueryDescriptor
	if err := json.Unmarshal(payload, &definition); err != nil {
		return nil, err
	}
	return &definition, nil
}

// missingIDs returns the wanted ids not already present
func missingIDs(existing, wanted []uuid.UUID) []uuid.UUID {
	present := make(map[uuid.UUID]bool, len(existing))
	for _, id := range existing {
		present[id] = true
	}
	missing := []uuid.UUID{}
	for _, id := range wanted {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
