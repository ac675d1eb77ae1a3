package schema

import (
	"fmt"
	"sort"
)

// Resolver looks up the fields of a previously declared document type.
type Resolver func(typeName string) (Fields, bool)

// Encode renders fields in the JSON Type Definition style used by
// manifests:
//
//	{"type": "int32"}
//	{"enum": ["A", "B"]}
//	{"elements": {...}}
//	{"values": {...}}
//	{"properties": {...}}
//	{"discriminator": "kind", "mapping": {"A": {"properties": {...}}}}
//	{"ref": "user", "properties": {...}}
//
// Enum values are sorted; declaration order carries no meaning.
func Encode(fields Fields) map[string]any {
	out := make(map[string]any, len(fields))
	for k, n := range fields {
		out[k] = encodeNode(n)
	}
	return out
}

func encodeNode(n Node) map[string]any {
	switch node := n.(type) {
	case Scalar:
		return map[string]any{"type": string(node.Type)}
	case Enum:
		values := append([]string(nil), node.Values...)
		sort.Strings(values)
		list := make([]any, len(values))
		for i, v := range values {
			list[i] = v
		}
		return map[string]any{"enum": list}
	case Elements:
		return map[string]any{"elements": encodeNode(node.Of)}
	case Values:
		return map[string]any{"values": encodeNode(node.Of)}
	case Properties:
		return map[string]any{"properties": Encode(node.Fields)}
	case Discriminator:
		mapping := make(map[string]any, len(node.Mapping))
		for tag, branch := range node.Mapping {
			mapping[tag] = map[string]any{"properties": Encode(branch)}
		}
		return map[string]any{"discriminator": node.Tag, "mapping": mapping}
	case Ref:
		return map[string]any{"ref": node.Type, "properties": Encode(node.Fields)}
	}
	return map[string]any{}
}

// Decode parses a JTD-style property map. A ref without inline properties
// is resolved through resolve.
func Decode(raw map[string]any, resolve Resolver) (Fields, error) {
	return decodeFields(raw, resolve, "")
}

func decodeFields(raw map[string]any, resolve Resolver, prefix string) (Fields, error) {
	out := make(Fields, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		obj, ok := raw[k].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s%s: expected an object, got %T", prefix, k, raw[k])
		}
		n, err := decodeNode(obj, resolve, prefix+k)
		if err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, nil
}

func decodeNode(obj map[string]any, resolve Resolver, path string) (Node, error) {
	switch {
	case obj["type"] != nil:
		t, ok := obj["type"].(string)
		if !ok || !ScalarType(t).valid() {
			return nil, fmt.Errorf("%s: unknown type %v", path, obj["type"])
		}
		return Scalar{Type: ScalarType(t)}, nil

	case obj["enum"] != nil:
		list, ok := obj["enum"].([]any)
		if !ok {
			return nil, fmt.Errorf("%s: enum must be a list", path)
		}
		values := make([]string, len(list))
		for i, v := range list {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%s: enum value %v is not a string", path, v)
			}
			values[i] = s
		}
		return Enum{Values: values}, nil

	case obj["elements"] != nil:
		of, err := decodeChild(obj["elements"], resolve, path+"[]")
		if err != nil {
			return nil, err
		}
		return Elements{Of: of}, nil

	case obj["values"] != nil:
		of, err := decodeChild(obj["values"], resolve, path+"{}")
		if err != nil {
			return nil, err
		}
		return Values{Of: of}, nil

	case obj["discriminator"] != nil:
		tag, ok := obj["discriminator"].(string)
		if !ok {
			return nil, fmt.Errorf("%s: discriminator must be a string", path)
		}
		mapping, ok := obj["mapping"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: discriminator requires a mapping object", path)
		}
		d := Discriminator{Tag: tag, Mapping: make(map[string]Fields, len(mapping))}
		for branch, rawBranch := range mapping {
			bobj, ok := rawBranch.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s<%s>: expected an object", path, branch)
			}
			props, _ := bobj["properties"].(map[string]any)
			fields, err := decodeFields(props, resolve, path+"<"+branch+">.")
			if err != nil {
				return nil, err
			}
			d.Mapping[branch] = fields
		}
		return d, nil

	case obj["ref"] != nil:
		name, ok := obj["ref"].(string)
		if !ok {
			return nil, fmt.Errorf("%s: ref must name a document type", path)
		}
		if props, ok := obj["properties"].(map[string]any); ok {
			fields, err := decodeFields(props, resolve, path+".")
			if err != nil {
				return nil, err
			}
			return Ref{Type: name, Fields: fields}, nil
		}
		if resolve == nil {
			return nil, fmt.Errorf("%s: cannot resolve ref %q", path, name)
		}
		fields, ok := resolve(name)
		if !ok {
			return nil, fmt.Errorf("%s: ref to undeclared type %q", path, name)
		}
		return Ref{Type: name, Fields: fields}, nil

	case obj["properties"] != nil:
		props, ok := obj["properties"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: properties must be an object", path)
		}
		fields, err := decodeFields(props, resolve, path+".")
		if err != nil {
			return nil, err
		}
		return Properties{Fields: fields}, nil
	}
	return nil, fmt.Errorf("%s: schema form not recognized", path)
}

func decodeChild(v any, resolve Resolver, path string) (Node, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object, got %T", path, v)
	}
	return decodeNode(obj, resolve, path)
}
