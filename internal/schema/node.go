// Package schema models the structural shape of a document type and
// validates documents against it.
//
// A schema is a Fields map from property name to Node. Node is a sealed
// interface; only the types in this package implement it:
//
//	Scalar         sized numbers, string, boolean, timestamp
//	Enum           closed set of strings
//	Elements       homogeneous array
//	Values         string-keyed map
//	Properties     nested object
//	Discriminator  tagged union selected by a string tag field
//	Ref            another document type's fields plus its id, embedded by copy
//
// Every property is optional and nullable. Validation is delegated to CUE:
// Compile turns Fields into a closed CUE definition, so undeclared
// properties and type mismatches are rejected.
package schema

import (
	"fmt"
	"sort"
)

// Node is one node of a schema tree.
type Node interface {
	schemaNode() // Marker method - seals interface to this package
}

// ScalarType names a scalar type.
type ScalarType string

const (
	TypeInt8      ScalarType = "int8"
	TypeUint8     ScalarType = "uint8"
	TypeInt16     ScalarType = "int16"
	TypeUint16    ScalarType = "uint16"
	TypeInt32     ScalarType = "int32"
	TypeUint32    ScalarType = "uint32"
	TypeFloat32   ScalarType = "float32"
	TypeFloat64   ScalarType = "float64"
	TypeString    ScalarType = "string"
	TypeBoolean   ScalarType = "boolean"
	TypeTimestamp ScalarType = "timestamp"
)

// Numeric reports whether t is a number type.
func (t ScalarType) Numeric() bool {
	switch t {
	case TypeInt8, TypeUint8, TypeInt16, TypeUint16, TypeInt32, TypeUint32, TypeFloat32, TypeFloat64:
		return true
	}
	return false
}

func (t ScalarType) valid() bool {
	return t.Numeric() || t == TypeString || t == TypeBoolean || t == TypeTimestamp
}

// Scalar is a leaf value.
type Scalar struct {
	Type ScalarType
}

// Enum is a string restricted to a closed set.
type Enum struct {
	Values []string
}

// Elements is an array whose items all match Of.
type Elements struct {
	Of Node
}

// Values is an object with arbitrary string keys whose values match Of.
type Values struct {
	Of Node
}

// Properties is a nested object.
type Properties struct {
	Fields Fields
}

// Discriminator is a tagged union. The Tag property selects exactly one
// branch of Mapping; properties of the other branches are rejected.
type Discriminator struct {
	Tag     string
	Mapping map[string]Fields
}

// Ref embeds the fields of document type Type, plus its id, by copy.
// No live relation to the referenced document is kept.
type Ref struct {
	Type   string
	Fields Fields
}

func (Scalar) schemaNode()        {}
func (Enum) schemaNode()          {}
func (Elements) schemaNode()      {}
func (Values) schemaNode()        {}
func (Properties) schemaNode()    {}
func (Discriminator) schemaNode() {}
func (Ref) schemaNode()           {}

// Scalars.
var (
	Int8      = Scalar{TypeInt8}
	Uint8     = Scalar{TypeUint8}
	Int16     = Scalar{TypeInt16}
	Uint16    = Scalar{TypeUint16}
	Int32     = Scalar{TypeInt32}
	Uint32    = Scalar{TypeUint32}
	Float32   = Scalar{TypeFloat32}
	Float64   = Scalar{TypeFloat64}
	String    = Scalar{TypeString}
	Boolean   = Scalar{TypeBoolean}
	Timestamp = Scalar{TypeTimestamp}
)

// EnumOf declares an enum.
func EnumOf(values ...string) Enum { return Enum{Values: values} }

// ElementsOf declares an array.
func ElementsOf(of Node) Elements { return Elements{Of: of} }

// ValuesOf declares a string-keyed map.
func ValuesOf(of Node) Values { return Values{Of: of} }

// Props declares a nested object.
func Props(fields Fields) Properties { return Properties{Fields: fields} }

// Union declares a tagged union.
func Union(tag string, mapping map[string]Fields) Discriminator {
	return Discriminator{Tag: tag, Mapping: mapping}
}

// RefTo declares an embedded copy of another document type.
func RefTo(typeName string, fields Fields) Ref {
	return Ref{Type: typeName, Fields: fields}
}

// IDField is the identity property. It is reserved at the top level of a
// document and re-added inside Ref nodes.
const IDField = "id"

// Fields maps property names to nodes.
type Fields map[string]Node

// Keys returns the property names in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// withID returns a copy of f with the id property added.
func (f Fields) withID() Fields {
	out := make(Fields, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[IDField] = String
	return out
}

// sortedTags returns the discriminator branch names in sorted order.
func (d Discriminator) sortedTags() []string {
	tags := make([]string, 0, len(d.Mapping))
	for k := range d.Mapping {
		tags = append(tags, k)
	}
	sort.Strings(tags)
	return tags
}

// Check verifies that a top-level schema is well formed.
func Check(f Fields) error {
	if _, ok := f[IDField]; ok {
		return fmt.Errorf("property %q is reserved", IDField)
	}
	return checkFields(f, "")
}

func checkFields(f Fields, prefix string) error {
	for _, k := range f.Keys() {
		if k == "" {
			return fmt.Errorf("%sempty property name", prefix)
		}
		if err := checkNode(f[k], prefix+k); err != nil {
			return err
		}
	}
	return nil
}

func checkNode(n Node, path string) error {
	switch node := n.(type) {
	case Scalar:
		if !node.Type.valid() {
			return fmt.Errorf("%s: unknown scalar type %q", path, node.Type)
		}
	case Enum:
		if len(node.Values) == 0 {
			return fmt.Errorf("%s: enum must declare at least one value", path)
		}
		seen := make(map[string]bool, len(node.Values))
		for _, v := range node.Values {
			if seen[v] {
				return fmt.Errorf("%s: duplicate enum value %q", path, v)
			}
			seen[v] = true
		}
	case Elements:
		if node.Of == nil {
			return fmt.Errorf("%s: elements must declare an item schema", path)
		}
		return checkNode(node.Of, path+"[]")
	case Values:
		if node.Of == nil {
			return fmt.Errorf("%s: values must declare a value schema", path)
		}
		return checkNode(node.Of, path+"{}")
	case Properties:
		return checkFields(node.Fields, path+".")
	case Discriminator:
		if node.Tag == "" {
			return fmt.Errorf("%s: discriminator tag is required", path)
		}
		if len(node.Mapping) == 0 {
			return fmt.Errorf("%s: discriminator must declare at least one mapping", path)
		}
		for _, tag := range node.sortedTags() {
			branch := node.Mapping[tag]
			if _, ok := branch[node.Tag]; ok {
				return fmt.Errorf("%s: mapping %q redeclares tag property %q", path, tag, node.Tag)
			}
			if err := checkFields(branch, path+"<"+tag+">."); err != nil {
				return err
			}
		}
	case Ref:
		if node.Type == "" {
			return fmt.Errorf("%s: ref must name a document type", path)
		}
		if _, ok := node.Fields[IDField]; ok {
			return fmt.Errorf("%s: ref fields must not declare %q", path, IDField)
		}
		return checkFields(node.Fields, path+".")
	case nil:
		return fmt.Errorf("%s: missing schema node", path)
	default:
		return fmt.Errorf("%s: unsupported schema node %T", path, n)
	}
	return nil
}
