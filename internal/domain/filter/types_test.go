package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	items, err := Parse([]string{
		"kind:service",
		"name:contains:tea",
		"id:in:a,b",
	})
	require.NoError(t, err)

	assert.Equal(t, []Item{
		{Field: "kind", Operator: Equal, Value: "service"},
		{Field: "name", Operator: Contains, Value: "tea"},
		{Field: "id", Operator: InList, Value: []string{"a", "b"}},
	}, items)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]string{"kind"})
	assert.Error(t, err)
}

func TestParse_UnknownOperator(t *testing.T) {
	_, err := Parse([]string{"kind:between:a"})
	assert.Error(t, err)
}
