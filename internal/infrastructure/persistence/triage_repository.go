package persistence

import (
	"context"

	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// emailColumns is the descriptor allow-list for the email_messages table
var emailColumns = ColumnSet{
	Table:      "email_messages",
	Searchable: []string{"email_messages.from_address", "email_messages.subject"},
	Filterable: map[string]string{
		"from_address": "email_messages.from_address",
		"status":       "email_messages.status",
		"person_id":    "email_messages.person_id",
		"assignee_id":  "email_messages.assignee_id",
	},
	Sortable: map[string]string{
		"from_address": "email_messages.from_address",
		"subject":      "email_messages.subject",
		"status":       "email_messages.status",
		"received_at":  "email_messages.received_at",
		"created_at":   "email_messages.created_at",
	},
	DefaultSort: "email_messages.received_at DESC",
	PageSize:    100,
}

// EmailMessageRepository provides tenant-scoped access to triage messages
type EmailMessageRepository struct {
	*Repository[models.EmailMessage]
}

// NewEmailMessageRepository creates an email message repository
func NewEmailMessageRepository(db *gorm.DB) *EmailMessageRepository {
	return &EmailMessageRepository{Repository: NewRepository[models.EmailMessage](db, emailColumns)}
}

// WithTx rebinds the repository to a transaction handle
func (r *EmailMessageRepository) WithTx(tx *gorm.DB) *EmailMessageRepository {
	return &EmailMessageRepository{Repository: r.Repository.WithTx(tx)}
}

// UnlinkPersons clears the person match from messages referencing the given
// persons. Used by cascading person deletes; the messages survive.
func (r *EmailMessageRepository) UnlinkPersons(ctx context.Context, tenantID uuid.UUID, personIDs []uuid.UUID) error {
	if len(personIDs) == 0 {
		return nil
	}
	return translateError(r.Session(ctx, tenantID).
		Where("person_id IN ?", personIDs).
		Update("person_id", nil).Error)
}
