package persistence

import (
	"context"
	"testing"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonRepositoryGetPageWithHousehold(t *testing.T) {
	db := newTestDB(t)
	repo := NewPersonRepository(db)
	ctx := context.Background()
	actor := newTestActor()

	household := seedHousehold(t, db, actor, "The Does")
	household.City = "Portland"
	require.NoError(t, db.Save(household).Error)

	jane := seedPerson(t, db, actor, "Jane", "Doe")
	jane.HouseholdID = &household.ID
	require.NoError(t, db.Save(jane).Error)
	seedPerson(t, db, actor, "Solo", "Contact")

	t.Run("joins household columns", func(t *testing.T) {
		page, err := repo.GetPageWithHousehold(ctx, actor.TenantID, shared.QueryDescriptor{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Count)
		require.Len(t, page.Rows, 2)

		byName := map[string]PersonListRow{}
		for _, row := range page.Rows {
			byName[row.FirstName] = row
		}
		assert.Equal(t, "The Does", byName["Jane"].HouseholdName)
		assert.Equal(t, "Portland", byName["Jane"].HouseholdCity)
		assert.Empty(t, byName["Solo"].HouseholdName)
	})

	t.Run("filters on household name", func(t *testing.T) {
		page, err := repo.GetPageWithHousehold(ctx, actor.TenantID, shared.QueryDescriptor{
			FilterModel: map[string]shared.FilterValue{
				"household_name": {Value: "The Does"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Count)
		require.Len(t, page.Rows, 1)
		assert.Equal(t, "Jane", page.Rows[0].FirstName)
	})

	t.Run("search reaches the household name", func(t *testing.T) {
		page, err := repo.GetPageWithHousehold(ctx, actor.TenantID, shared.QueryDescriptor{
			SearchStr: "does",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Count)
	})

	t.Run("tag filter switches to the tagged view", func(t *testing.T) {
		_, err := repo.Tags().AttachTag(ctx, actor, jane.ID, "donor")
		require.NoError(t, err)

		page, err := repo.GetPageWithHousehold(ctx, actor.TenantID, shared.QueryDescriptor{
			FilterModel: map[string]shared.FilterValue{
				"tag": {Value: "donor"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Count)
		require.Len(t, page.Rows, 1)
		assert.Equal(t, "Jane", page.Rows[0].FirstName)
		assert.Equal(t, "The Does", page.Rows[0].HouseholdName)
	})

	t.Run("multiple tags do not duplicate the person", func(t *testing.T) {
		_, err := repo.Tags().AttachTag(ctx, actor, jane.ID, "member")
		require.NoError(t, err)

		page, err := repo.GetPageWithHousehold(ctx, actor.TenantID, shared.QueryDescriptor{
			FilterModel: map[string]shared.FilterValue{
				"tag": {Value: "donor"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Count)
		assert.Len(t, page.Rows, 1)
	})
}

func TestPersonRepositoryGetMemberPage(t *testing.T) {
	db := newTestDB(t)
	repo := NewPersonRepository(db)
	ctx := context.Background()
	actor := newTestActor()

	member := seedPerson(t, db, actor, "In", "List")
	seedPerson(t, db, actor, "Out", "List")
	listID := uuid.New()

	mapping := models.ListPerson{
		TenantOwnedModel: models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
		ListID:           listID,
		PersonID:         member.ID,
	}
	require.NoError(t, db.Create(&mapping).Error)

	page, err := repo.GetMemberPage(ctx, actor.TenantID, listID, shared.QueryDescriptor{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Count)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "In", page.Rows[0].FirstName)
}

func TestPersonRepositoryIDsByFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewPersonRepository(db)
	ctx := context.Background()
	actor := newTestActor()

	portland := seedPerson(t, db, actor, "From", "Portland")
	portland.City = "Portland"
	require.NoError(t, db.Save(portland).Error)
	salem := seedPerson(t, db, actor, "From", "Salem")
	salem.City = "Salem"
	require.NoError(t, db.Save(salem).Error)

	t.Run("matches by plain column filter", func(t *testing.T) {
		ids, err := repo.IDsByFilter(ctx, actor.TenantID, shared.QueryDescriptor{
			FilterModel: map[string]shared.FilterValue{
				"city": {Value: "Portland"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{portland.ID}, ids)
	})

	t.Run("matches by tag filter", func(t *testing.T) {
		_, err := repo.Tags().AttachTag(ctx, actor, salem.ID, "volunteer")
		require.NoError(t, err)

		ids, err := repo.IDsByFilter(ctx, actor.TenantID, shared.QueryDescriptor{
			FilterModel: map[string]shared.FilterValue{
				"tag": {Value: "volunteer"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{salem.ID}, ids)
	})

	t.Run("ignores pagination", func(t *testing.T) {
		ids, err := repo.IDsByFilter(ctx, actor.TenantID, shared.QueryDescriptor{
			StartRow: 0,
			EndRow:   1,
		})
		require.NoError(t, err)
		assert.Len(t, ids, 2)
	})
}

func TestPersonRepositoryFileProvenance(t *testing.T) {
	db := newTestDB(t)
	repo := NewPersonRepository(db)
	ctx := context.Background()
	actor := newTestActor()
	fileID := uuid.New()

	imported1 := seedPerson(t, db, actor, "Imported", "One")
	imported1.FileID = &fileID
	require.NoError(t, db.Save(imported1).Error)
	imported2 := seedPerson(t, db, actor, "Imported", "Two")
	imported2.FileID = &fileID
	require.NoError(t, db.Save(imported2).Error)
	seedPerson(t, db, actor, "Manual", "Entry")

	t.Run("ids by file id", func(t *testing.T) {
		ids, err := repo.IDsByFileID(ctx, actor.TenantID, fileID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{imported1.ID, imported2.ID}, ids)
	})

	t.Run("clear file id detaches provenance", func(t *testing.T) {
		require.NoError(t, repo.ClearFileID(ctx, actor.TenantID, []uuid.UUID{imported1.ID}))

		ids, err := repo.IDsByFileID(ctx, actor.TenantID, fileID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{imported2.ID}, ids)
	})

	t.Run("clearing an empty id list is a no-op", func(t *testing.T) {
		require.NoError(t, repo.ClearFileID(ctx, actor.TenantID, nil))
	})
}
