package shared

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryDescriptorWindow(t *testing.T) {
	tests := []struct {
		name       string
		desc       QueryDescriptor
		pageSize   int
		wantOffset int
		wantLimit  int
	}{
		{
			name:       "plain window",
			desc:       QueryDescriptor{StartRow: 20, EndRow: 40},
			pageSize:   100,
			wantOffset: 20,
			wantLimit:  20,
		},
		{
			name:       "negative start clamps to zero",
			desc:       QueryDescriptor{StartRow: -5, EndRow: 10},
			pageSize:   100,
			wantOffset: 0,
			wantLimit:  10,
		},
		{
			name:       "end at or below start falls back to page size",
			desc:       QueryDescriptor{StartRow: 50, EndRow: 50},
			pageSize:   25,
			wantOffset: 50,
			wantLimit:  25,
		},
		{
			name:       "empty descriptor uses page size",
			desc:       QueryDescriptor{},
			pageSize:   25,
			wantOffset: 0,
			wantLimit:  25,
		},
		{
			name:       "zero page size uses the default",
			desc:       QueryDescriptor{},
			pageSize:   0,
			wantOffset: 0,
			wantLimit:  DefaultPageSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := tt.desc.Window(tt.pageSize)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestFilterValueUnmarshal(t *testing.T) {
	t.Run("wrapped object shape", func(t *testing.T) {
		var fv FilterValue
		require.NoError(t, json.Unmarshal([]byte(`{"value":"Portland"}`), &fv))
		assert.Equal(t, "Portland", fv.Value)
	})

	t.Run("bare string", func(t *testing.T) {
		var fv FilterValue
		require.NoError(t, json.Unmarshal([]byte(`"Portland"`), &fv))
		assert.Equal(t, "Portland", fv.Value)
	})

	t.Run("bare boolean", func(t *testing.T) {
		var fv FilterValue
		require.NoError(t, json.Unmarshal([]byte(`true`), &fv))
		assert.Equal(t, true, fv.Value)
	})

	t.Run("bare number", func(t *testing.T) {
		var fv FilterValue
		require.NoError(t, json.Unmarshal([]byte(`42`), &fv))
		assert.Equal(t, float64(42), fv.Value)
	})

	t.Run("full descriptor round trip", func(t *testing.T) {
		payload := []byte(`{
			"searchStr": "smith",
			"filterModel": {"city": "Portland", "tag": {"value": "donor"}},
			"sortModel": [{"colId": "last_name", "sort": "desc"}],
			"startRow": 0,
			"endRow": 50
		}`)
		var desc QueryDescriptor
		require.NoError(t, json.Unmarshal(payload, &desc))
		assert.Equal(t, "smith", desc.SearchStr)
		assert.Equal(t, "Portland", desc.FilterModel["city"].Value)
		assert.Equal(t, "donor", desc.FilterModel["tag"].Value)
		require.Len(t, desc.SortModel, 1)
		assert.Equal(t, "last_name", desc.SortModel[0].ColID)
		assert.Equal(t, "desc", desc.SortModel[0].Sort)
		assert.Equal(t, 50, desc.EndRow)
	})
}
