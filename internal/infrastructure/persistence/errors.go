package persistence

import (
	"errors"

	"github.com/crm/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError converts driver-level constraint violations into the
// business error taxonomy. Everything else passes through untouched; plain
// absence is handled at the call sites as (nil, nil), not as an error.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.NewConflict("A record with the same unique value already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewConflict("The operation violates a reference to another record")
	default:
		return err
	}
}

// isNotFound reports whether err is GORM's record-not-found
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
