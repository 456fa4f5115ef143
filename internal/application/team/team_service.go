package team

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

// CreateTeamRequest is the input for creating a team, optionally with its
// initial captain and roster in the same call.
type CreateTeamRequest struct {
	Name          string      `json:"name" binding:"required,min=1,max=255"`
	Description   string      `json:"description" binding:"max=255"`
	TeamCaptainID *uuid.UUID  `json:"team_captain_id"`
	VolunteerIDs  []uuid.UUID `json:"volunteer_ids"`
}

// SyncRosterRequest is the desired end state of a team's roster. The request
// replaces the roster wholesale; it does not express deltas.
type SyncRosterRequest struct {
	Name          *string     `json:"name" binding:"omitempty,min=1,max=255"`
	Description   *string     `json:"description" binding:"omitempty,max=255"`
	TeamCaptainID *uuid.UUID  `json:"team_captain_id"`
	VolunteerIDs  []uuid.UUID `json:"volunteer_ids"`
}

// TeamResponse is the wire representation of a team
type TeamResponse struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	TeamCaptainID *uuid.UUID  `json:"team_captain_id,omitempty"`
	MemberIDs     []uuid.UUID `json:"member_ids,omitempty"`
	MemberCount   int64       `json:"member_count"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TeamService handles team and roster operations
type TeamService struct {
	db      *persistence.Database
	teams   *persistence.TeamRepository
	persons *persistence.PersonRepository
	tasks   *persistence.TaskRepository
	logger  *zap.Logger
}

// NewTeamService creates a new TeamService
func NewTeamService(
	db *persistence.Database,
	teams *persistence.TeamRepository,
	persons *persistence.PersonRepository,
	tasks *persistence.TaskRepository,
	logger *zap.Logger,
) *TeamService {
	return &TeamService{
		db:      db,
		teams:   teams,
		persons: persons,
		tasks:   tasks,
		logger:  logger,
	}
}

// Create creates a team. A captain or volunteer ids given in the same request
// go through the roster reconciliation, so the team, its captain and its
// initial members commit together or not at all.
func (s *TeamService) Create(ctx context.Context, actor shared.Actor, req CreateTeamRequest) (*TeamResponse, error) {
	team := models.Team{
		TenantOwnedModel: models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
	}
	desired := desiredRoster(req.VolunteerIDs, req.TeamCaptainID)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		teams := s.teams.WithTx(tx)
		if err := teams.Add(ctx, &team); err != nil {
			return err
		}
		if len(desired) == 0 {
			return nil
		}
		if err := s.applyRoster(ctx, tx, actor, team.ID, desired); err != nil {
			return err
		}
		if req.TeamCaptainID != nil {
			_, err := teams.Update(ctx, actor.TenantID, team.ID, map[string]any{
				"team_captain_id": req.TeamCaptainID,
				"updatedby_id":    actor.ActorRef(),
			})
			return err
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*shared.DomainError); ok {
			return nil, err
		}
		return nil, shared.WrapInternal(err, "Failed to create team")
	}
	return s.Get(ctx, actor, team.ID)
}

// SyncRoster reconciles a team's stored roster against the desired one in a
// single transaction. The captain, when named, is folded into the desired set
// so a team can never have a captain who is not a member.
func (s *TeamService) SyncRoster(ctx context.Context, actor shared.Actor, id uuid.UUID, req SyncRosterRequest) (*TeamResponse, error) {
	team, err := s.teams.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load team")
	}
	if team == nil {
		return nil, shared.NewNotFound("Team not found")
	}

	desired := desiredRoster(req.VolunteerIDs, req.TeamCaptainID)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.applyRoster(ctx, tx, actor, id, desired); err != nil {
			return err
		}

		values := map[string]any{
			"team_captain_id": req.TeamCaptainID,
			"updatedby_id":    actor.ActorRef(),
		}
		if req.Name != nil {
			values["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			values["description"] = *req.Description
		}
		_, err := s.teams.WithTx(tx).Update(ctx, actor.TenantID, id, values)
		return err
	})
	if err != nil {
		if _, ok := err.(*shared.DomainError); ok {
			return nil, err
		}
		return nil, shared.WrapInternal(err, "Failed to sync roster")
	}

	s.logger.Info("team roster synced",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("team_id", id.String()),
		zap.Int("members", len(desired)),
	)
	return s.Get(ctx, actor, id)
}

// Get fetches one team with its roster
func (s *TeamService) Get(ctx context.Context, actor shared.Actor, id uuid.UUID) (*TeamResponse, error) {
	team, err := s.teams.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load team")
	}
	if team == nil {
		return nil, shared.NewNotFound("Team not found")
	}
	memberIDs, err := s.teams.MemberIDs(ctx, actor.TenantID, id)
	if err != nil {
		return nil, shared.WrapInternal(err, "Failed to load roster")
	}
	return &TeamResponse{
		ID:            team.ID,
		Name:          team.Name,
		Description:   team.Description,
		TeamCaptainID: team.TeamCaptainID,
		MemberIDs:     memberIDs,
		MemberCount:   int64(len(memberIDs)),
		CreatedAt:     team.CreatedAt,
		UpdatedAt:     team.UpdatedAt,
	}, nil
}

// GetPage runs the member-count grid query for one descriptor
func (s *TeamService) GetPage(ctx context.Context, actor shared.Actor, desc shared.QueryDescriptor) (shared.Page[TeamResponse], error) {
	page, err := s.teams.GetPageWithCounts(ctx, actor.TenantID, desc)
	if err != nil {
		return shared.Page[TeamResponse]{Rows: []TeamResponse{}}, shared.WrapInternal(err, "Failed to query teams")
	}
	rows := make([]TeamResponse, len(page.Rows))
	for i, row := range page.Rows {
		rows[i] = TeamResponse{
			ID:            row.ID,
			Name:          row.Name,
			Description:   row.Description,
			TeamCaptainID: row.TeamCaptainID,
			MemberCount:   row.MemberCount,
			CreatedAt:     row.CreatedAt,
			UpdatedAt:     row.UpdatedAt,
		}
	}
	return shared.Page[TeamResponse]{Rows: rows, Count: page.Count}, nil
}

// Delete removes a team and its roster in one transaction. Members are
// untouched; tasks assigned to the team lose their link.
func (s *TeamService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	team, err := s.teams.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return shared.WrapInternal(err, "Failed to load team")
	}
	if team == nil {
		return shared.NewNotFound("Team not found")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		teams := s.teams.WithTx(tx)
		if err := teams.DeleteRosterForTeam(ctx, actor.TenantID, id); err != nil {
			return err
		}
		if err := s.tasks.WithTx(tx).UnlinkTeam(ctx, actor.TenantID, id); err != nil {
			return err
		}
		_, err := teams.Repository.Delete(ctx, actor.TenantID, id)
		return err
	})
	return shared.WrapInternal(err, "Failed to delete team")
}

// applyRoster reconciles a team's stored roster against the desired set
// inside an open transaction. Every desired person must exist in the tenant
// and every one ends up carrying the volunteer tag; after attaching, the
// tagged set is re-read and anyone still missing the tag fails the whole
// operation. Membership writes are set differences, so replaying the same
// desired set performs zero writes.
func (s *TeamService) applyRoster(ctx context.Context, tx *gorm.DB, actor shared.Actor, teamID uuid.UUID, desired []uuid.UUID) error {
	teams := s.teams.WithTx(tx)
	persons := s.persons.WithTx(tx)

	known := []uuid.UUID{}
	if len(desired) > 0 {
		err := persons.Session(ctx, actor.TenantID).
			Where("id IN ?", desired).
			Pluck("id", &known).Error
		if err != nil {
			return err
		}
	}
	if len(known) < len(desired) {
		return shared.NewPreconditionFailed("Roster contains persons that do not exist")
	}

	for _, personID := range desired {
		if _, err := persons.Tags().AttachTag(ctx, actor, personID, models.TagVolunteer); err != nil {
			return err
		}
	}

	tagged, err := persons.Tags().EntityIDsWithTag(ctx, actor.TenantID, models.TagVolunteer)
	if err != nil {
		return err
	}
	for _, personID := range desired {
		if !contains(tagged, personID) {
			return shared.NewPreconditionFailed("Not every desired member carries the volunteer tag")
		}
	}

	current, err := teams.MemberIDs(ctx, actor.TenantID, teamID)
	if err != nil {
		return err
	}
	if err := teams.AddMembers(ctx, actor, teamID, difference(desired, current)); err != nil {
		return err
	}
	return teams.RemoveMembers(ctx, actor.TenantID, teamID, difference(current, desired))
}

// desiredRoster dedupes the volunteer ids and folds the captain in
func desiredRoster(volunteerIDs []uuid.UUID, captainID *uuid.UUID) []uuid.UUID {
	desired := dedupe(volunteerIDs)
	if captainID != nil && !contains(desired, *captainID) {
		desired = append(desired, *captainID)
	}
	return desired
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := []uuid.UUID{}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// difference returns the elements of a not present in b
func difference(a, b []uuid.UUID) []uuid.UUID {
	present := make(map[uuid.UUID]bool, len(b))
	for _, id := range b {
		present[id] = true
	}
	out := []uuid.UUID{}
	for _, id := range a {
		if !present[id] {
			out = append(out, id)
		}
	}
	return out
}
