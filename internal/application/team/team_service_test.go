package team

import (
	"context"
	"fmt"
	"testing"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type teamTestEnv struct {
	db      *gorm.DB
	service *TeamService
	actor   shared.Actor
}

func newTeamTestEnv(t *testing.T) *teamTestEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gormDB.AutoMigrate(
		&models.Person{}, &models.Tag{}, &models.PersonTag{},
		&models.Team{}, &models.TeamPerson{}, &models.Task{},
	))

	service := NewTeamService(
		&persistence.Database{DB: gormDB},
		persistence.NewTeamRepository(gormDB),
		persistence.NewPersonRepository(gormDB),
		persistence.NewTaskRepository(gormDB),
		zap.NewNop(),
	)
	return &teamTestEnv{
		db:      gormDB,
		service: service,
		actor: shared.Actor{
			TenantID:  uuid.New(),
			UserID:    uuid.New(),
			SessionID: uuid.New(),
		},
	}
}

func (e *teamTestEnv) seedPerson(t *testing.T, name string) *models.Person {
	t.Helper()
	person := &models.Person{
		TenantOwnedModel: models.NewTenantOwnedModel(e.actor.TenantID, e.actor.ActorRef()),
		FirstName:        name,
	}
	require.NoError(t, e.db.Create(person).Error)
	return person
}

func (e *teamTestEnv) personTags(t *testing.T, personID uuid.UUID) []string {
	t.Helper()
	names := []string{}
	require.NoError(t, e.db.Table("map_persons_tags AS m").
		Joins("INNER JOIN tags ON tags.id = m.tag_id").
		Where("m.person_id = ?", personID).
		Pluck("tags.name", &names).Error)
	return names
}

func TestTeamCreateAndGet(t *testing.T) {
	env := newTeamTestEnv(t)
	ctx := context.Background()

	created, err := env.service.Create(ctx, env.actor, CreateTeamRequest{
		Name:        "  Canvassing Crew ",
		Description: "Door knockers",
	})
	require.NoError(t, err)
	assert.Equal(t, "Canvassing Crew", created.Name)
	assert.Zero(t, created.MemberCount)

	t.Run("foreign tenant cannot see it", func(t *testing.T) {
		stranger := shared.Actor{TenantID: uuid.New(), UserID: uuid.New()}
		_, err := env.service.Get(ctx, stranger, created.ID)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})
}

func TestTeamCreateWithCaptain(t *testing.T) {
	env := newTeamTestEnv(t)
	ctx := context.Background()

	dave := env.seedPerson(t, "Dave")
	erin := env.seedPerson(t, "Erin")

	t.Run("untagged captain is folded in and auto-tagged", func(t *testing.T) {
		created, err := env.service.Create(ctx, env.actor, CreateTeamRequest{
			Name:          "Kitchen Crew",
			TeamCaptainID: &dave.ID,
			VolunteerIDs:  []uuid.UUID{erin.ID},
		})
		require.NoError(t, err)
		require.NotNil(t, created.TeamCaptainID)
		assert.Equal(t, dave.ID, *created.TeamCaptainID)
		assert.ElementsMatch(t, []uuid.UUID{dave.ID, erin.ID}, created.MemberIDs)
		assert.Contains(t, env.personTags(t, dave.ID), models.TagVolunteer)
	})

	t.Run("unknown captain rolls back the whole creation", func(t *testing.T) {
		var before int64
		require.NoError(t, env.db.Table("teams").Count(&before).Error)

		_, err := env.service.Create(ctx, env.actor, CreateTeamRequest{
			Name:          "Ghost Crew",
			TeamCaptainID: ptr(uuid.New()),
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodePreconditionFailed))

		var after int64
		require.NoError(t, env.db.Table("teams").Count(&after).Error)
		assert.Equal(t, before, after)
	})
}

func ptr[T any](v T) *T { return &v }

func TestSyncRoster(t *testing.T) {
	env := newTeamTestEnv(t)
	ctx := context.Background()

	created, err := env.service.Create(ctx, env.actor, CreateTeamRequest{Name: "Phone Bank"})
	require.NoError(t, err)

	alice := env.seedPerson(t, "Alice")
	bob := env.seedPerson(t, "Bob")
	carol := env.seedPerson(t, "Carol")

	t.Run("builds the roster and tags every member as volunteer", func(t *testing.T) {
		resp, err := env.service.SyncRoster(ctx, env.actor, created.ID, SyncRosterRequest{
			VolunteerIDs: []uuid.UUID{alice.ID, bob.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.MemberCount)
		assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, resp.MemberIDs)

		assert.Contains(t, env.personTags(t, alice.ID), models.TagVolunteer)
		assert.Contains(t, env.personTags(t, bob.ID), models.TagVolunteer)
	})

	t.Run("captain is folded into the roster", func(t *testing.T) {
		resp, err := env.service.SyncRoster(ctx, env.actor, created.ID, SyncRosterRequest{
			TeamCaptainID: &carol.ID,
			VolunteerIDs:  []uuid.UUID{alice.ID, bob.ID},
		})
		require.NoError(t, err)
		require.NotNil(t, resp.TeamCaptainID)
		assert.Equal(t, carol.ID, *resp.TeamCaptainID)
		assert.Contains(t, resp.MemberIDs, carol.ID)
		assert.Contains(t, env.personTags(t, carol.ID), models.TagVolunteer)
	})

	t.Run("shrinking the desired set removes members", func(t *testing.T) {
		resp, err := env.service.SyncRoster(ctx, env.actor, created.ID, SyncRosterRequest{
			VolunteerIDs: []uuid.UUID{alice.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{alice.ID}, resp.MemberIDs)
		assert.Nil(t, resp.TeamCaptainID)

		// leaving the team does not strip the volunteer tag
		assert.Contains(t, env.personTags(t, bob.ID), models.TagVolunteer)
	})

	t.Run("replaying the same request is a no-op", func(t *testing.T) {
		first, err := env.service.SyncRoster(ctx, env.actor, created.ID, SyncRosterRequest{
			VolunteerIDs: []uuid.UUID{alice.ID, bob.ID},
		})
		require.NoError(t, err)
		second, err := env.service.SyncRoster(ctx, env.actor, created.ID, SyncRosterRequest{
			VolunteerIDs: []uuid.UUID{alice.ID, bob.ID},
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, first.MemberIDs, second.MemberIDs)

		var mappingCount int64
		require.NoError(t, env.db.Table("map_teams_persons").Count(&mappingCount).Error)
		assert.Equal(t, int64(2), mappingCount)
	})

	t.Run("unknown person fails the precondition before any write", func(t *testing.T) {
		before, err := env.service.Get(ctx, env.actor, created.ID)
		require.NoError(t, err)

		_, err = env.service.SyncRoster(ctx, env.actor, created.ID, SyncRosterRequest{
			VolunteerIDs: []uuid.UUID{alice.ID, uuid.New()},
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodePreconditionFailed))

		after, err := env.service.Get(ctx, env.actor, created.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, before.MemberIDs, after.MemberIDs)
	})

	t.Run("foreign tenant person fails the precondition", func(t *testing.T) {
		stranger := shared.Actor{TenantID: uuid.New(), UserID: uuid.New()}
		foreign := &models.Person{
			TenantOwnedModel: models.NewTenantOwnedModel(stranger.TenantID, stranger.ActorRef()),
			FirstName:        "Foreign",
		}
		require.NoError(t, env.db.Create(foreign).Error)

		_, err := env.service.SyncRoster(ctx, env.actor, created.ID, SyncRosterRequest{
			VolunteerIDs: []uuid.UUID{foreign.ID},
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodePreconditionFailed))
	})

	t.Run("updates name and description when provided", func(t *testing.T) {
		name := "Evening Phone Bank"
		description := "Weeknights only"
		resp, err := env.service.SyncRoster(ctx, env.actor, created.ID, SyncRosterRequest{
			Name:         &name,
			Description:  &description,
			VolunteerIDs: []uuid.UUID{alice.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, "Evening Phone Bank", resp.Name)
		assert.Equal(t, "Weeknights only", resp.Description)
	})

	t.Run("unknown team is not found", func(t *testing.T) {
		_, err := env.service.SyncRoster(ctx, env.actor, uuid.New(), SyncRosterRequest{})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})
}

func TestTeamGetPage(t *testing.T) {
	env := newTeamTestEnv(t)
	ctx := context.Background()

	teamA, err := env.service.Create(ctx, env.actor, CreateTeamRequest{Name: "Alpha"})
	require.NoError(t, err)
	_, err = env.service.Create(ctx, env.actor, CreateTeamRequest{Name: "Beta"})
	require.NoError(t, err)

	alice := env.seedPerson(t, "Alice")
	bob := env.seedPerson(t, "Bob")
	_, err = env.service.SyncRoster(ctx, env.actor, teamA.ID, SyncRosterRequest{
		VolunteerIDs: []uuid.UUID{alice.ID, bob.ID},
	})
	require.NoError(t, err)

	page, err := env.service.GetPage(ctx, env.actor, shared.QueryDescriptor{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Count)
	require.Len(t, page.Rows, 2)

	byName := map[string]TeamResponse{}
	for _, row := range page.Rows {
		byName[row.Name] = row
	}
	assert.Equal(t, int64(2), byName["Alpha"].MemberCount)
	assert.Zero(t, byName["Beta"].MemberCount)
}

func TestTeamDelete(t *testing.T) {
	env := newTeamTestEnv(t)
	ctx := context.Background()

	created, err := env.service.Create(ctx, env.actor, CreateTeamRequest{Name: "Doomed"})
	require.NoError(t, err)
	alice := env.seedPerson(t, "Alice")
	_, err = env.service.SyncRoster(ctx, env.actor, created.ID, SyncRosterRequest{
		VolunteerIDs: []uuid.UUID{alice.ID},
	})
	require.NoError(t, err)

	task := &models.Task{
		TenantOwnedModel: models.NewTenantOwnedModel(env.actor.TenantID, env.actor.ActorRef()),
		Title:            "Team outing",
		Status:           models.TaskStatusOpen,
		TeamID:           &created.ID,
	}
	require.NoError(t, env.db.Create(task).Error)

	require.NoError(t, env.service.Delete(ctx, env.actor, created.ID))

	t.Run("team and roster are gone", func(t *testing.T) {
		_, err := env.service.Get(ctx, env.actor, created.ID)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))

		var mappingCount int64
		require.NoError(t, env.db.Table("map_teams_persons").Count(&mappingCount).Error)
		assert.Zero(t, mappingCount)
	})

	t.Run("members survive, tasks lose the link", func(t *testing.T) {
		var person models.Person
		assert.NoError(t, env.db.First(&person, "id = ?", alice.ID).Error)

		var reloaded models.Task
		require.NoError(t, env.db.First(&reloaded, "id = ?", task.ID).Error)
		assert.Nil(t, reloaded.TeamID)
	})

	t.Run("deleting an unknown team is not found", func(t *testing.T) {
		err := env.service.Delete(ctx, env.actor, uuid.New())
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})
}
