package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
types:
  - name: user
    prefix: usr
    schema:
      name: {type: string}
      email: {type: string}
  - name: task
    schema:
      title: {type: string}
      priority: {type: int8}
      status: {enum: [OPEN, CLOSED]}
      tags: {elements: {type: string}}
      counts: {values: {type: uint16}}
      meta:
        properties:
          source: {type: string}
      owner: {ref: user}
      detail:
        discriminator: kind
        mapping:
          FOO:
            properties:
              foo: {type: string}
          BAR:
            properties:
              bar: {type: int32}
`

func TestDecodeManifest(t *testing.T) {
	decls, err := DecodeManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)
	require.Len(t, decls, 2)

	assert.Equal(t, "user", decls[0].Name)
	assert.Equal(t, "usr", decls[0].Prefix)
	assert.Equal(t, Fields{"name": String, "email": String}, decls[0].Fields)

	task := decls[1]
	assert.Equal(t, "task", task.Name)
	assert.Empty(t, task.Prefix)
	assert.Equal(t, Int8, task.Fields["priority"])
	assert.Equal(t, EnumOf("OPEN", "CLOSED"), task.Fields["status"])
	assert.Equal(t, ElementsOf(String), task.Fields["tags"])
	assert.Equal(t, ValuesOf(Uint16), task.Fields["counts"])
	assert.Equal(t, Props(Fields{"source": String}), task.Fields["meta"])
	assert.Equal(t, RefTo("user", decls[0].Fields), task.Fields["owner"])
	assert.Equal(t, Union("kind", map[string]Fields{
		"FOO": {"foo": String},
		"BAR": {"bar": Int32},
	}), task.Fields["detail"])
}

func TestDecodeManifest_JSON(t *testing.T) {
	decls, err := DecodeManifest(strings.NewReader(
		`{"types": [{"name": "note", "schema": {"body": {"type": "string"}}}]}`,
	))
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, Fields{"body": String}, decls[0].Fields)
}

func TestDecodeManifest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{
			name:     "ref to later type",
			manifest: "types:\n  - name: a\n    schema:\n      b: {ref: b}\n  - name: b\n    schema: {}\n",
			wantErr:  `undeclared type "b"`,
		},
		{
			name:     "duplicate type",
			manifest: "types:\n  - name: a\n  - name: a\n",
			wantErr:  `duplicate type "a"`,
		},
		{
			name:     "missing name",
			manifest: "types:\n  - schema: {}\n",
			wantErr:  "name is required",
		},
		{
			name:     "unknown scalar",
			manifest: "types:\n  - name: a\n    schema:\n      x: {type: decimal}\n",
			wantErr:  "unknown type",
		},
		{
			name:     "unknown manifest key",
			manifest: "types:\n  - name: a\n    colour: red\n",
			wantErr:  "colour",
		},
		{
			name:     "reserved id",
			manifest: "types:\n  - name: a\n    schema:\n      id: {type: string}\n",
			wantErr:  "reserved",
		},
		{
			name:     "unrecognized form",
			manifest: "types:\n  - name: a\n    schema:\n      x: {nullable: true}\n",
			wantErr:  "not recognized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeManifest(strings.NewReader(tt.manifest))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeManifest_Empty(t *testing.T) {
	decls, err := DecodeManifest(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, decls)
}
