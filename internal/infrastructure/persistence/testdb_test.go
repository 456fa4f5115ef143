package persistence

import (
	"fmt"
	"testing"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema.
// cache=shared keeps every pooled connection on the same database; the unique
// name keeps parallel tests apart.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Session{},
		&models.Household{},
		&models.Person{},
		&models.Tag{},
		&models.PersonTag{},
		&models.HouseholdTag{},
		&models.List{},
		&models.ListPerson{},
		&models.ListHousehold{},
		&models.Team{},
		&models.TeamPerson{},
		&models.Task{},
		&models.DataImport{},
		&models.EmailMessage{},
		&models.Setting{},
	))
	return db
}

// newTestActor returns an authenticated actor for a fresh tenant
func newTestActor() shared.Actor {
	return shared.Actor{
		TenantID:  uuid.New(),
		UserID:    uuid.New(),
		SessionID: uuid.New(),
	}
}

// seedPerson inserts a person owned by the actor's tenant
func seedPerson(t *testing.T, db *gorm.DB, actor shared.Actor, firstName, lastName string) *models.Person {
	t.Helper()
	person := &models.Person{
		TenantOwnedModel: models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
		FirstName:        firstName,
		LastName:         lastName,
	}
	require.NoError(t, db.Create(person).Error)
	return person
}

// seedHousehold inserts a household owned by the actor's tenant
func seedHousehold(t *testing.T, db *gorm.DB, actor shared.Actor, name string) *models.Household {
	t.Helper()
	household := &models.Household{
		TenantOwnedModel: models.NewTenantOwnedModel(actor.TenantID, actor.ActorRef()),
		Name:             name,
	}
	require.NoError(t, db.Create(household).Error)
	return household
}
