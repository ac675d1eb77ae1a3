package schema

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Decl is one document type declared in a manifest.
type Decl struct {
	Name   string
	Prefix string
	Fields Fields
}

type manifestFile struct {
	Types []manifestType `yaml:"types"`
}

type manifestType struct {
	Name   string         `yaml:"name"`
	Prefix string         `yaml:"prefix"`
	Schema map[string]any `yaml:"schema"`
}

// DecodeManifest reads a YAML (or JSON) manifest:
//
//	types:
//	  - name: user
//	    prefix: usr
//	    schema:
//	      email: {type: string}
//	  - name: task
//	    schema:
//	      owner: {ref: user}
//
// A ref may only name a type declared earlier in the same manifest.
func DecodeManifest(r io.Reader) ([]Decl, error) {
	var m manifestFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	declared := make(map[string]Fields, len(m.Types))
	resolve := func(name string) (Fields, bool) {
		f, ok := declared[name]
		return f, ok
	}

	decls := make([]Decl, 0, len(m.Types))
	for i, t := range m.Types {
		if t.Name == "" {
			return nil, fmt.Errorf("types[%d]: name is required", i)
		}
		if _, dup := declared[t.Name]; dup {
			return nil, fmt.Errorf("types[%d]: duplicate type %q", i, t.Name)
		}
		fields, err := Decode(t.Schema, resolve)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", t.Name, err)
		}
		if err := Check(fields); err != nil {
			return nil, fmt.Errorf("type %q: %w", t.Name, err)
		}
		declared[t.Name] = fields
		decls = append(decls, Decl{Name: t.Name, Prefix: t.Prefix, Fields: fields})
	}
	return decls, nil
}
