package listing

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

type listTestEnv struct {
	db      *gorm.DB
	service *ListService
	actor   shared.Actor
}

func newListTestEnv(t *testing.T) *listTestEnv {
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
		&models.List{}, &models.ListPerson{}, &models.ListHousehold{},
	))

	service := NewListService(
		&persistence.Database{DB: gormDB},
		persistence.NewListRepository(gormDB),
		persistence.NewPersonRepository(gormDB),
		persistence.NewHouseholdRepository(gormDB),
		zap.NewNop(),
	)
	return &listTestEnv{
		db:      gormDB,
		service: service,
		actor: shared.Actor{
			TenantID:  uuid.New(),
			UserID:    uuid.New(),
			SessionID: uuid.New(),
		},
	}
}

func (e *listTestEnv) seedPerson(t *testing.T, name, city string) *models.Person {
	t.Helper()
	person := &models.Person{
		TenantOwnedModel: models.NewTenantOwnedModel(e.actor.TenantID, e.actor.ActorRef()),
		FirstName:        name,
		City:             city,
	}
	require.NoError(t, e.db.Create(person).Error)
	return person
}

func cityFilter(city string) *shared.QueryDescriptor {
	return &shared.QueryDescriptor{
		FilterModel: map[string]shared.FilterValue{
			"city": {Value: city},
		},
	}
}

func TestStaticListSnapshot(t *testing.T) {
	env := newListTestEnv(t)
	ctx := context.Background()

	env.seedPerson(t, "Alice", "Portland")
	env.seedPerson(t, "Bob", "Portland")
	env.seedPerson(t, "Carol", "Salem")

	created, err := env.service.Create(ctx, env.actor, CreateListRequest{
		Name:       "Portland Contacts",
		Object:     models.ListObjectPeople,
		IsDynamic:  false,
		Definition: cityFilter("Portland"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.MemberCount)

	t.Run("snapshot is frozen against later data changes", func(t *testing.T) {
		env.seedPerson(t, "Dave", "Portland")

		got, err := env.service.Get(ctx, env.actor, created.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.MemberCount)
	})

	t.Run("members read from the snapshot", func(t *testing.T) {
		page, err := env.service.PersonMembers(ctx, env.actor, created.ID, shared.QueryDescriptor{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Count)

		names := []string{}
		for _, row := range page.Rows {
			names = append(names, row.FirstName)
		}
		assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)
	})

	t.Run("static definition cannot be rewritten", func(t *testing.T) {
		_, err := env.service.Update(ctx, env.actor, created.ID, UpdateListRequest{
			Definition: cityFilter("Salem"),
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodePreconditionFailed))
	})

	t.Run("name update still works on a static list", func(t *testing.T) {
		name := "Portland Snapshot"
		updated, err := env.service.Update(ctx, env.actor, created.ID, UpdateListRequest{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Portland Snapshot", updated.Name)
		assert.Equal(t, int64(2), updated.MemberCount)
	})
}

func TestDynamicListReplay(t *testing.T) {
	env := newListTestEnv(t)
	ctx := context.Background()

	env.seedPerson(t, "Alice", "Portland")

	created, err := env.service.Create(ctx, env.actor, CreateListRequest{
		Name:       "Portland Live",
		Object:     models.ListObjectPeople,
		IsDynamic:  true,
		Definition: cityFilter("Portland"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.MemberCount)

	t.Run("membership moves with the data", func(t *testing.T) {
		newcomer := env.seedPerson(t, "Bob", "Portland")

		got, err := env.service.Get(ctx, env.actor, created.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.MemberCount)

		page, err := env.service.PersonMembers(ctx, env.actor, created.ID, shared.QueryDescriptor{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Count)

		require.NoError(t, env.db.Delete(&models.Person{}, "id = ?", newcomer.ID).Error)
		got, err = env.service.Get(ctx, env.actor, created.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.MemberCount)
	})

	t.Run("no membership rows are written", func(t *testing.T) {
		var count int64
		require.NoError(t, env.db.Table("map_lists_persons").Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("caller pages the replay but cannot widen it", func(t *testing.T) {
		env.seedPerson(t, "Eve", "Salem")

		page, err := env.service.PersonMembers(ctx, env.actor, created.ID, shared.QueryDescriptor{
			StartRow: 0,
			EndRow:   10,
			FilterModel: map[string]shared.FilterValue{
				"city": {Value: "Salem"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Count)
		require.Len(t, page.Rows, 1)
		assert.Equal(t, "Alice", page.Rows[0].FirstName)
	})

	t.Run("definition update changes the replay", func(t *testing.T) {
		updated, err := env.service.Update(ctx, env.actor, created.ID, UpdateListRequest{
			Definition: cityFilter("Salem"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated.MemberCount)

		page, err := env.service.PersonMembers(ctx, env.actor, created.ID, shared.QueryDescriptor{})
		require.NoError(t, err)
		require.Len(t, page.Rows, 1)
		assert.Equal(t, "Eve", page.Rows[0].FirstName)
	})

	t.Run("editing members directly fails the precondition", func(t *testing.T) {
		someone := env.seedPerson(t, "Direct", "Portland")

		err := env.service.AddMembers(ctx, env.actor, created.ID, MembersRequest{IDs: []uuid.UUID{someone.ID}})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodePreconditionFailed))

		err = env.service.RemoveMembers(ctx, env.actor, created.ID, MembersRequest{IDs: []uuid.UUID{someone.ID}})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodePreconditionFailed))
	})

	t.Run("dynamic list without a definition is rejected", func(t *testing.T) {
		_, err := env.service.Create(ctx, env.actor, CreateListRequest{
			Name:      "No Definition",
			Object:    models.ListObjectPeople,
			IsDynamic: true,
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeBadRequest))
	})
}

func TestStaticListMemberEdits(t *testing.T) {
	env := newListTestEnv(t)
	ctx := context.Background()

	alice := env.seedPerson(t, "Alice", "Portland")
	bob := env.seedPerson(t, "Bob", "Salem")

	created, err := env.service.Create(ctx, env.actor, CreateListRequest{
		Name:       "Hand Picked",
		Object:     models.ListObjectPeople,
		Definition: cityFilter("Portland"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.MemberCount)

	t.Run("add members skips ones already present", func(t *testing.T) {
		err := env.service.AddMembers(ctx, env.actor, created.ID, MembersRequest{
			IDs: []uuid.UUID{alice.ID, bob.ID},
		})
		require.NoError(t, err)

		got, err := env.service.Get(ctx, env.actor, created.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.MemberCount)
	})

	t.Run("remove members", func(t *testing.T) {
		err := env.service.RemoveMembers(ctx, env.actor, created.ID, MembersRequest{
			IDs: []uuid.UUID{alice.ID},
		})
		require.NoError(t, err)

		got, err := env.service.Get(ctx, env.actor, created.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.MemberCount)
	})

	t.Run("member reads on the wrong object type are rejected", func(t *testing.T) {
		_, err := env.service.HouseholdMembers(ctx, env.actor, created.ID, shared.QueryDescriptor{})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeBadRequest))
	})
}

func TestHouseholdList(t *testing.T) {
	env := newListTestEnv(t)
	ctx := context.Background()

	household := &models.Household{
		TenantOwnedModel: models.NewTenantOwnedModel(env.actor.TenantID, env.actor.ActorRef()),
		Name:             "The Smiths",
		City:             "Portland",
	}
	require.NoError(t, env.db.Create(household).Error)

	created, err := env.service.Create(ctx, env.actor, CreateListRequest{
		Name:   "Portland Households",
		Object: models.ListObjectHouseholds,
		Definition: &shared.QueryDescriptor{
			FilterModel: map[string]shared.FilterValue{
				"city": {Value: "Portland"},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.MemberCount)

	page, err := env.service.HouseholdMembers(ctx, env.actor, created.ID, shared.QueryDescriptor{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Count)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "The Smiths", page.Rows[0].Name)
}

func TestListDelete(t *testing.T) {
	env := newListTestEnv(t)
	ctx := context.Background()

	alice := env.seedPerson(t, "Alice", "Portland")

	created, err := env.service.Create(ctx, env.actor, CreateListRequest{
		Name:       "Doomed",
		Object:     models.ListObjectPeople,
		Definition: cityFilter("Portland"),
	})
	require.NoError(t, err)

	require.NoError(t, env.service.Delete(ctx, env.actor, created.ID))

	t.Run("list and snapshot are gone, contacts survive", func(t *testing.T) {
		_, err := env.service.Get(ctx, env.actor, created.ID)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))

		var mappingCount int64
		require.NoError(t, env.db.Table("map_lists_persons").Count(&mappingCount).Error)
		assert.Zero(t, mappingCount)

		var person models.Person
		assert.NoError(t, env.db.First(&person, "id = ?", alice.ID).Error)
	})

	t.Run("deleting an unknown list is not found", func(t *testing.T) {
		err := env.service.Delete(ctx, env.actor, uuid.New())
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})
}
