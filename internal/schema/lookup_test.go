package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		path string
		want Node
	}{
		{"title", String},
		{"meta.source", String},
		{"meta.nested.depth", Int32},
		{"owner.id", String},
		{"owner.email", String},
		{"detail.kind", String},
		{"detail.bar", Int32},
		{"counts.anything", Uint16},
		{"tags", ElementsOf(String)},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := taskFields.Lookup(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup_Errors(t *testing.T) {
	for _, path := range []string{"missing", "meta.missing", "title.sub", "tags.0", "detail.baz", "owner.age"} {
		t.Run(path, func(t *testing.T) {
			_, err := taskFields.Lookup(path)
			assert.Error(t, err)
		})
	}
}
