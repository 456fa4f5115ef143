package settings

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

type settingTestEnv struct {
	db      *gorm.DB
	service *SettingService
	actor   shared.Actor
}

func newSettingTestEnv(t *testing.T) *settingTestEnv {
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

	require.NoError(t, gormDB.AutoMigrate(&models.Setting{}))

	service := NewSettingService(persistence.NewSettingRepository(gormDB), zap.NewNop())
	return &settingTestEnv{
		db:      gormDB,
		service: service,
		actor: shared.Actor{
			TenantID:  uuid.New(),
			UserID:    uuid.New(),
			SessionID: uuid.New(),
		},
	}
}

func TestSettingSet(t *testing.T) {
	env := newSettingTestEnv(t)
	ctx := context.Background()

	t.Run("writes a new key", func(t *testing.T) {
		resp, err := env.service.Set(ctx, env.actor, "default_city", SetSettingRequest{Value: "Portland"})
		require.NoError(t, err)
		assert.Equal(t, "default_city", resp.Key)
		assert.Equal(t, "Portland", resp.Value)
	})

	t.Run("writing again upserts in place", func(t *testing.T) {
		resp, err := env.service.Set(ctx, env.actor, "default_city", SetSettingRequest{Value: "Salem"})
		require.NoError(t, err)
		assert.Equal(t, "Salem", resp.Value)

		var count int64
		require.NoError(t, env.db.Table("settings").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("blank key is rejected", func(t *testing.T) {
		_, err := env.service.Set(ctx, env.actor, "   ", SetSettingRequest{Value: "x"})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeBadRequest))
	})

	t.Run("current campaign must be an id", func(t *testing.T) {
		_, err := env.service.Set(ctx, env.actor, models.SettingCurrentCampaign, SetSettingRequest{Value: "spring gala"})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeBadRequest))

		campaignID := uuid.New()
		resp, err := env.service.Set(ctx, env.actor, models.SettingCurrentCampaign, SetSettingRequest{Value: campaignID.String()})
		require.NoError(t, err)
		assert.Equal(t, campaignID.String(), resp.Value)
	})

	t.Run("clearing the current campaign is allowed", func(t *testing.T) {
		resp, err := env.service.Set(ctx, env.actor, models.SettingCurrentCampaign, SetSettingRequest{Value: ""})
		require.NoError(t, err)
		assert.Empty(t, resp.Value)
	})
}

func TestSettingGet(t *testing.T) {
	env := newSettingTestEnv(t)
	ctx := context.Background()

	_, err := env.service.Set(ctx, env.actor, "timezone", SetSettingRequest{Value: "America/Los_Angeles"})
	require.NoError(t, err)

	t.Run("returns the stored value", func(t *testing.T) {
		resp, err := env.service.Get(ctx, env.actor, "timezone")
		require.NoError(t, err)
		assert.Equal(t, "America/Los_Angeles", resp.Value)
	})

	t.Run("absent key is not found", func(t *testing.T) {
		_, err := env.service.Get(ctx, env.actor, "missing")
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))
	})

	t.Run("keys are tenant-scoped", func(t *testing.T) {
		stranger := shared.Actor{TenantID: uuid.New(), UserID: uuid.New()}
		_, err := env.service.Get(ctx, stranger, "timezone")
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeNotFound))

		_, err = env.service.Set(ctx, stranger, "timezone", SetSettingRequest{Value: "UTC"})
		require.NoError(t, err)

		resp, err := env.service.Get(ctx, env.actor, "timezone")
		require.NoError(t, err)
		assert.Equal(t, "America/Los_Angeles", resp.Value)
	})
}

func TestSettingGetAll(t *testing.T) {
	env := newSettingTestEnv(t)
	ctx := context.Background()

	for key, value := range map[string]string{
		"default_city": "Portland",
		"timezone":     "America/Los_Angeles",
	} {
		_, err := env.service.Set(ctx, env.actor, key, SetSettingRequest{Value: value})
		require.NoError(t, err)
	}

	rows, err := env.service.GetAll(ctx, env.actor)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byKey := map[string]string{}
	for _, row := range rows {
		byKey[row.Key] = row.Value
	}
	assert.Equal(t, "Portland", byKey["default_city"])
	assert.Equal(t, "America/Los_Angeles", byKey["timezone"])
}

func TestSettingUnset(t *testing.T) {
	env := newSettingTestEnv(t)
	ctx := context.Background()

	_, err := env.service.Set(ctx, env.actor, "doomed", SetSettingRequest{Value: "x"})
	require.NoError(t, err)

	require.NoError(t, env.service.Unset(ctx, env.actor, "doomed"))

	_, err = env.service.Get(ctx, env.actor, "doomed")
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeNotFound))

	t.Run("unsetting an absent key is a no-op", func(t *testing.T) {
		require.NoError(t, env.service.Unset(ctx, env.actor, "doomed"))
		require.NoError(t, env.service.Unset(ctx, env.actor, "never-existed"))
	})
}
