package spreadsheet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSetKeepsPosition(t *testing.T) {
	r := &Record{}
	r.Set("b", String("1"))
	r.Set("a", Null())
	r.Set("b", String("2"))

	assert.Equal(t, []string{"b", "a"}, r.Keys())
	assert.Equal(t, 2, r.Len())

	v, ok := r.GetString("b")
	require.True(t, ok)
	assert.Equal(t, "2", v)

	_, ok = r.GetString("a")
	assert.False(t, ok, "null is not a string")
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRecordAllNull(t *testing.T) {
	assert.True(t, (&Record{}).AllNull())
	assert.True(t, NewRecord(Field{"a", Null()}, Field{"b", Null()}).AllNull())
	assert.False(t, NewRecord(Field{"a", Null()}, Field{"b", String("")}).AllNull())
	assert.False(t, NewRecord(Field{"a", List()}).AllNull())
}

func TestRecordJSONRoundTrip(t *testing.T) {
	original := NewRecord(
		Field{"name", String("Fish Pie")},
		Field{"category", String("Food")},
		Field{"notes", Null()},
		Field{"filenames", List("fishpie", "fishpie_alt")},
		Field{"empty", List()},
	)

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t,
		`{"name":"Fish Pie","category":"Food","notes":null,"filenames":["fishpie","fishpie_alt"],"empty":[]}`,
		string(data))

	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original.Keys(), decoded.Keys())
	assert.Equal(t, original.Fields(), decoded.Fields())
}

func TestRecordUnmarshalJSON_Rejects(t *testing.T) {
	tests := []string{
		`[]`,
		`{"a": 1}`,
		`{"a": true}`,
		`{"a": [1, 2]}`,
		`{"a": {"b": "c"}}`,
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			var r Record
			assert.Error(t, json.Unmarshal([]byte(input), &r))
		})
	}
}

func TestListNilIsEmpty(t *testing.T) {
	values, ok := List().Strings()
	require.True(t, ok)
	assert.NotNil(t, values)
	assert.Empty(t, values)
}
