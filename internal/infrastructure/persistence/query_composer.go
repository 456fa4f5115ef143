package persistence

import (
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ColumnSet declares, per module, which columns a QueryDescriptor may touch.
// Filter keys absent from Filterable are silently ignored (fail-open on the
// key, fail-closed on column access); sort keys absent from Sortable fall
// back to DefaultSort. Caller input is never interpolated into statements as
// a column name.
type ColumnSet struct {
	// Table is the primary table; predicates and counts are qualified with it.
	Table string
	// Searchable lists the text column expressions OR-ed together for SearchStr.
	Searchable []string
	// Filterable maps descriptor filter keys to column expressions.
	Filterable map[string]string
	// Sortable maps descriptor sort colIds to sortable expressions.
	Sortable map[string]string
	// Projectable maps descriptor projection names to selectable expressions.
	Projectable map[string]string
	// Joins are clauses applied to both the count and the data statement.
	Joins []string
	// Selects overrides the select list for joined views.
	Selects []string
	// GroupBy groups joined aggregate views, typically "<table>.id".
	GroupBy string
	// DefaultSort is applied when the descriptor carries no usable sort.
	DefaultSort string
	// PageSize is the module's default window size.
	PageSize int
}

// escapeLike neutralizes LIKE metacharacters in caller-supplied match text so
// it is matched literally. Statements using the result must carry ESCAPE '\'.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

// Predicates returns a scope carrying joins, search and filter conditions.
// The same scope is applied to the count and the data statement so the two
// always agree for a given descriptor.
func (c ColumnSet) Predicates(desc shared.QueryDescriptor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, join := range c.Joins {
			db = db.Joins(join)
		}

		if search := strings.TrimSpace(desc.SearchStr); search != "" && len(c.Searchable) > 0 {
			pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
			conds := make([]string, len(c.Searchable))
			args := make([]any, len(c.Searchable))
			for i, col := range c.Searchable {
				conds[i] = "LOWER(" + col + ") LIKE ? ESCAPE '\\'"
				args[i] = pattern
			}
			db = db.Where(strings.Join(conds, " OR "), args...)
		}

		for key, fv := range desc.FilterModel {
			expr, ok := c.Filterable[key]
			if !ok || fv.Value == nil {
				continue
			}
			db = db.Where(expr+" = ?", fv.Value)
		}

		return db
	}
}

// Order returns a scope applying the descriptor's sort model. Unmapped colIds
// are dropped; when nothing usable remains, DefaultSort applies.
func (c ColumnSet) Order(desc shared.QueryDescriptor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		applied := false
		for _, entry := range desc.SortModel {
			expr, ok := c.Sortable[entry.ColID]
			if !ok {
				continue
			}
			dir := "ASC"
			if strings.EqualFold(entry.Sort, "desc") {
				dir = "DESC"
			}
			db = db.Order(expr + " " + dir)
			applied = true
		}
		if !applied && c.DefaultSort != "" {
			db = db.Order(c.DefaultSort)
		}
		return db
	}
}

// Window returns a scope applying the descriptor's pagination window
func (c ColumnSet) Window(desc shared.QueryDescriptor) func(db *gorm.DB) *gorm.DB {
	offset, limit := desc.Window(c.PageSize)
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(offset).Limit(limit)
	}
}

// Projection returns a scope restricting the select list to the requested
// columns, intersected with the Projectable allow-list. An empty or fully
// unknown request keeps the module's default select list.
func (c ColumnSet) Projection(desc shared.QueryDescriptor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(desc.Columns) > 0 && len(c.Projectable) > 0 {
			selects := make([]string, 0, len(desc.Columns))
			for _, name := range desc.Columns {
				if expr, ok := c.Projectable[name]; ok {
					selects = append(selects, expr)
				}
			}
			if len(selects) > 0 {
				return db.Select(selects)
			}
		}
		if len(c.Selects) > 0 {
			return db.Select(c.Selects)
		}
		return db
	}
}

// Count executes the count statement for a descriptor on a predicate-scoped
// query. Joined views count distinct primary rows so duplicated join rows do
// not inflate the total.
func (c ColumnSet) Count(db *gorm.DB) (int64, error) {
	var count int64
	query := db
	if len(c.Joins) > 0 {
		query = query.Distinct(c.Table + ".id")
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// group applies GroupBy for joined aggregate selects
func (c ColumnSet) group(db *gorm.DB) *gorm.DB {
	if c.GroupBy != "" {
		return db.Group(c.GroupBy)
	}
	return db
}
