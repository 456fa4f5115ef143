package shared

import "encoding/json"

// DefaultPageSize is the fallback page size when a descriptor carries no
// usable end row.
const DefaultPageSize = 100

// SortEntry is one requested sort column with its direction
type SortEntry struct {
	ColID string `json:"colId"`
	Sort  string `json:"sort"` // "asc" or "desc"
}

// FilterValue holds one per-column filter. The wire shape accepts either a
// bare scalar or an object of the form {"value": ...}.
type FilterValue struct {
	Value any
}

// UnmarshalJSON accepts both {"value": x} and a bare scalar x
func (f *FilterValue) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Value != nil {
		f.Value = wrapped.Value
		return nil
	}
	var bare any
	if err := json.Unmarshal(data, &bare); err != nil {
		return err
	}
	f.Value = bare
	return nil
}

// MarshalJSON renders the canonical {"value": x} shape
func (f FilterValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value any `json:"value"`
	}{Value: f.Value})
}

// QueryDescriptor describes one requested page of data: free-text search,
// per-column filters, sort order, offset window and column projection.
// It is a passive value; the query composer decides which parts are honored
// for a given module.
type QueryDescriptor struct {
	SearchStr   string                 `json:"searchStr,omitempty"`
	FilterModel map[string]FilterValue `json:"filterModel,omitempty"`
	SortModel   []SortEntry            `json:"sortModel,omitempty"`
	StartRow    int                    `json:"startRow,omitempty"`
	EndRow      int                    `json:"endRow,omitempty"`
	Columns     []string               `json:"columns,omitempty"`
}

// Window returns the normalized (offset, limit) pair. A negative start row is
// clamped to zero and an end row that does not exceed the start row is
// replaced by startRow + defaultSize.
func (d QueryDescriptor) Window(defaultSize int) (offset, limit int) {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	start := d.StartRow
	if start < 0 {
		start = 0
	}
	end := d.EndRow
	if end <= start {
		end = start + defaultSize
	}
	return start, end - start
}

// Page is one page of query results together with the total match count
// ignoring pagination.
type Page[T any] struct {
	Rows  []T   `json:"rows"`
	Count int64 `json:"count"`
}
