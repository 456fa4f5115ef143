package tagging

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

type tagTestEnv struct {
	db         *gorm.DB
	service    *TagService
	persons    *persistence.PersonRepository
	households *persistence.HouseholdRepository
	actor      shared.Actor
}

func newTagTestEnv(t *testing.T) *tagTestEnv {
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
		&models.Person{}, &models.Household{},
		&models.Tag{}, &models.PersonTag{}, &models.HouseholdTag{},
	))

	persons := persistence.NewPersonRepository(gormDB)
	households := persistence.NewHouseholdRepository(gormDB)
	service := NewTagService(
		&persistence.Database{DB: gormDB},
		persistence.NewTagRepository(gormDB),
		persons,
		households,
		zap.NewNop(),
	)
	return &tagTestEnv{
		db:         gormDB,
		service:    service,
		persons:    persons,
		households: households,
		actor: shared.Actor{
			TenantID:  uuid.New(),
			UserID:    uuid.New(),
			SessionID: uuid.New(),
		},
	}
}

func (e *tagTestEnv) seedPerson(t *testing.T, name string) *models.Person {
	t.Helper()
	person := &models.Person{
		TenantOwnedModel: models.NewTenantOwnedModel(e.actor.TenantID, e.actor.ActorRef()),
		FirstName:        name,
	}
	require.NoError(t, e.db.Create(person).Error)
	return person
}

func TestTagCreate(t *testing.T) {
	env := newTagTestEnv(t)
	ctx := context.Background()

	t.Run("creates with description", func(t *testing.T) {
		resp, err := env.service.Create(ctx, env.actor, CreateTagRequest{
			Name:        " donor ",
			Description: "Gave at least once",
		})
		require.NoError(t, err)
		assert.Equal(t, "donor", resp.Name)
		assert.Equal(t, "Gave at least once", resp.Description)
		assert.True(t, resp.Deletable)
		assert.Zero(t, resp.PersonCount)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := env.service.Create(ctx, env.actor, CreateTagRequest{Name: "donor"})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeConflict))
	})

	t.Run("another tenant can reuse the name", func(t *testing.T) {
		stranger := shared.Actor{TenantID: uuid.New(), UserID: uuid.New()}
		resp, err := env.service.Create(ctx, stranger, CreateTagRequest{Name: "donor"})
		require.NoError(t, err)
		assert.Equal(t, "donor", resp.Name)
	})
}

func TestTagUpdate(t *testing.T) {
	env := newTagTestEnv(t)
	ctx := context.Background()

	created, err := env.service.Create(ctx, env.actor, CreateTagRequest{Name: "member"})
	require.NoError(t, err)

	t.Run("updates the description", func(t *testing.T) {
		description := "Current members"
		resp, err := env.service.Update(ctx, env.actor, created.ID, UpdateTagRequest{
			Description: &description,
		})
		require.NoError(t, err)
		assert.Equal(t, "Current members", resp.Description)
		assert.Equal(t, "member", resp.Name)
	})

	t.Run("empty update returns the current state", func(t *testing.T) {
		resp, err := env.service.Update(ctx, env.actor, created.ID, UpdateTagRequest{})
		require.NoError(t, err)
		assert.Equal(t, "Current members", resp.Description)
	})

	t.Run("unknown tag is not found", func(t *testing.T) {
		description := "x"
		_, err := env.service.Update(ctx, env.actor, uuid.New(), UpdateTagRequest{Description: &description})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})
}

func TestTagUsageCounts(t *testing.T) {
	env := newTagTestEnv(t)
	ctx := context.Background()

	alice := env.seedPerson(t, "Alice")
	bob := env.seedPerson(t, "Bob")
	household := &models.Household{
		TenantOwnedModel: models.NewTenantOwnedModel(env.actor.TenantID, env.actor.ActorRef()),
		Name:             "The Does",
	}
	require.NoError(t, env.db.Create(household).Error)

	donor, err := env.persons.Tags().AttachTag(ctx, env.actor, alice.ID, "donor")
	require.NoError(t, err)
	_, err = env.persons.Tags().AttachTag(ctx, env.actor, bob.ID, "donor")
	require.NoError(t, err)
	_, err = env.households.Tags().AttachTag(ctx, env.actor, household.ID, "donor")
	require.NoError(t, err)

	t.Run("get reports both usage counts", func(t *testing.T) {
		resp, err := env.service.Get(ctx, env.actor, donor.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.PersonCount)
		assert.Equal(t, int64(1), resp.HouseholdCount)
	})

	t.Run("grid page carries the counts", func(t *testing.T) {
		page, err := env.service.GetPage(ctx, env.actor, shared.QueryDescriptor{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Count)
		require.Len(t, page.Rows, 1)
		assert.Equal(t, int64(2), page.Rows[0].PersonCount)
		assert.Equal(t, int64(1), page.Rows[0].HouseholdCount)
	})

	t.Run("names lists the catalogue", func(t *testing.T) {
		names, err := env.service.Names(ctx, env.actor)
		require.NoError(t, err)
		assert.Equal(t, []string{"donor"}, names)
	})
}

func TestTagDeleteMany(t *testing.T) {
	env := newTagTestEnv(t)
	ctx := context.Background()

	alice := env.seedPerson(t, "Alice")

	donor, err := env.persons.Tags().AttachTag(ctx, env.actor, alice.ID, "donor")
	require.NoError(t, err)
	member, err := env.persons.Tags().AttachTag(ctx, env.actor, alice.ID, "member")
	require.NoError(t, err)

	reserved := models.NewTag(env.actor.TenantID, env.actor.ActorRef(), "import-2026")
	reserved.Deletable = false
	require.NoError(t, env.db.Create(&reserved).Error)

	t.Run("deletes tags and mappings, skips reserved ones", func(t *testing.T) {
		resp, err := env.service.DeleteMany(ctx, env.actor, DeleteTagsRequest{
			IDs: []uuid.UUID{donor.ID, member.ID, reserved.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Deleted)
		assert.Equal(t, 1, resp.Skipped)

		var mappingCount int64
		require.NoError(t, env.db.Table("map_persons_tags").Count(&mappingCount).Error)
		assert.Zero(t, mappingCount)

		var survivor models.Tag
		assert.NoError(t, env.db.First(&survivor, "id = ?", reserved.ID).Error)
	})

	t.Run("nothing deletable reports all skipped", func(t *testing.T) {
		resp, err := env.service.DeleteMany(ctx, env.actor, DeleteTagsRequest{
			IDs: []uuid.UUID{reserved.ID, uuid.New()},
		})
		require.NoError(t, err)
		assert.Zero(t, resp.Deleted)
		assert.Equal(t, 2, resp.Skipped)
	})
}
