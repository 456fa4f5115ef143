package models

import "github.com/google/uuid"

// DataImport is the GORM model for bulk contact imports. Rows created by an
// import carry its id as file_id and its provenance tag; both together decide
// whether the import can later be reversed.
type DataImport struct {
	TenantOwnedModel
	FileName string `gorm:"type:varchar(255);not null"`
	Source   string `gorm:"type:varchar(100)"`
	// TagID references the provenance tag attached to imported rows.
	TagID             *uuid.UUID `gorm:"type:uuid;index"`
	RowCount          int        `gorm:"not null;default:0"`
	InsertCount       int        `gorm:"not null;default:0"`
	ErrorCount        int        `gorm:"not null;default:0"`
	SkipCount         int        `gorm:"not null;default:0"`
	HouseholdsCreated int        `gorm:"not null;default:0"`
}

// TableName returns the table name for the model
func (DataImport) TableName() string {
	return "data_imports"
}
