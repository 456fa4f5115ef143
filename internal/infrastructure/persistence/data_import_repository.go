package persistence

import (
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// dataImportColumns is the descriptor allow-list for the data_imports table
var dataImportColumns = ColumnSet{
	Table:      "data_imports",
	Searchable: []string{"data_imports.file_name", "data_imports.source"},
	Filterable: map[string]string{
		"file_name": "data_imports.file_name",
		"source":    "data_imports.source",
	},
	Sortable: map[string]string{
		"file_name":  "data_imports.file_name",
		"source":     "data_imports.source",
		"row_count":  "data_imports.row_count",
		"created_at": "data_imports.created_at",
	},
	DefaultSort: "data_imports.created_at DESC",
	PageSize:    100,
}

// DataImportRepository provides tenant-scoped access to import records
type DataImportRepository struct {
	*Repository[models.DataImport]
}

// NewDataImportRepository creates a data import repository
func NewDataImportRepository(db *gorm.DB) *DataImportRepository {
	return &DataImportRepository{Repository: NewRepository[models.DataImport](db, dataImportColumns)}
}

// WithTx rebinds the repository to a transaction handle
func (r *DataImportRepository) WithTx(tx *gorm.DB) *DataImportRepository {
	return &DataImportRepository{Repository: r.Repository.WithTx(tx)}
}
