package queryir

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/roach88/bongo/internal/errs"
	"github.com/roach88/bongo/internal/schema"
)

// Parse compiles a query object into a Predicate. Every error is an
// errs.CodeCompile error.
func Parse(q map[string]any, fields schema.Fields) (Predicate, error) {
	p := &parser{fields: fields}
	return p.query(q)
}

// ParseSort resolves sort keys against the schema.
func ParseSort(keys []SortKey, fields schema.Fields) ([]Sort, error) {
	p := &parser{fields: fields}
	out := make([]Sort, 0, len(keys))
	for _, k := range keys {
		f, node, err := p.resolve(k.Field)
		if err != nil {
			return nil, err
		}
		if _, err := operand(k.Field, node, false); err != nil {
			return nil, err
		}
		dir := k.Direction
		switch dir {
		case "":
			dir = Asc
		case Asc, Desc:
		default:
			return nil, errs.Compile("invalid sort direction %q for %q", k.Direction, k.Field)
		}
		out = append(out, Sort{Field: f, Direction: dir})
	}
	return out, nil
}

type parser struct {
	fields schema.Fields
}

func (p *parser) query(q map[string]any) (Predicate, error) {
	if len(q) == 0 {
		return True{}, nil
	}

	_, hasAnd := q[OpAnd]
	_, hasOr := q[OpOr]
	if hasAnd && hasOr {
		return nil, errs.Compile("%s and %s cannot be combined in one object", OpAnd, OpOr)
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		var (
			pred Predicate
			err  error
		)
		switch {
		case k == OpAnd || k == OpOr:
			pred, err = p.logical(k, q[k])
		case strings.HasPrefix(k, "$"):
			err = errs.Compile("unknown operator %q", k)
		default:
			pred, err = p.field(k, q[k])
		}
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}

	if len(preds) == 1 {
		return preds[0], nil
	}
	return And{Predicates: preds}, nil
}

func (p *parser) logical(op string, v any) (Predicate, error) {
	items, ok := asList(v)
	if !ok {
		return nil, errs.Compile("%s expects an array, got %T", op, v)
	}
	if len(items) < 2 {
		return nil, errs.Compile("%s expects at least 2 entries, got %d", op, len(items))
	}

	preds := make([]Predicate, 0, len(items))
	for i, item := range items {
		sub, ok := asObject(item)
		if !ok {
			return nil, errs.Compile("%s[%d]: expected a query object, got %T", op, i, item)
		}
		pred, err := p.query(sub)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}

	if op == OpOr {
		return Or{Predicates: preds}, nil
	}
	return And{Predicates: preds}, nil
}

func (p *parser) field(key string, v any) (Predicate, error) {
	f, node, err := p.resolve(key)
	if err != nil {
		return nil, err
	}

	obj, isObj := asObject(v)
	if !isObj {
		target, err := operand(key, node, false)
		if err != nil {
			return nil, err
		}
		val, err := scalar(key, v, target)
		if err != nil {
			return nil, err
		}
		return Compare{Field: f, Op: OpEq, Value: val}, nil
	}

	if len(obj) == 0 {
		return nil, errs.Compile("%q: empty operator object", key)
	}

	ops := make([]string, 0, len(obj))
	for op := range obj {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	preds := make([]Predicate, 0, len(ops))
	for _, op := range ops {
		arg := obj[op]
		switch Op(op) {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
			target, err := operand(key, node, false)
			if err != nil {
				return nil, err
			}
			val, err := scalar(key, arg, target)
			if err != nil {
				return nil, err
			}
			preds = append(preds, Compare{Field: f, Op: Op(op), Value: val})
			continue
		}

		switch op {
		case OpIn, OpNin:
			items, ok := asList(arg)
			if !ok {
				return nil, errs.Compile("%q: %s expects an array, got %T", key, op, arg)
			}
			target, err := operand(key, node, true)
			if err != nil {
				return nil, err
			}
			values := make([]any, 0, len(items))
			for _, item := range items {
				val, err := scalar(key, item, target)
				if err != nil {
					return nil, err
				}
				values = append(values, val)
			}
			preds = append(preds, Membership{Field: f, Values: values, Negate: op == OpNin})
		default:
			if !strings.HasPrefix(op, "$") {
				return nil, errs.Compile("%q: expected a scalar or an operator object, got property %q", key, op)
			}
			return nil, errs.Compile("%q: unknown operator %q", key, op)
		}
	}

	if len(preds) == 1 {
		return preds[0], nil
	}
	return And{Predicates: preds}, nil
}

// resolve maps a dotted key to a Field and its schema node.
func (p *parser) resolve(key string) (Field, schema.Node, error) {
	if key == schema.IDField {
		return Field{ID: true}, schema.String, nil
	}
	node, err := p.fields.Lookup(key)
	if err != nil {
		return Field{}, nil, errs.Compile("unknown field %q: %v", key, err)
	}
	return Field{Path: strings.Split(key, ".")}, node, nil
}

// operand returns the node literals for key are checked against. Only
// scalar and enum fields compare; an array of scalars additionally accepts
// $in and $nin, matching when any element is (or is not) listed.
func operand(key string, node schema.Node, membership bool) (schema.Node, error) {
	switch n := node.(type) {
	case schema.Scalar, schema.Enum:
		return node, nil
	case schema.Elements:
		if !membership {
			return nil, errs.Compile("%q is an array: match its elements with %s or %s", key, OpIn, OpNin)
		}
		switch n.Of.(type) {
		case schema.Scalar, schema.Enum:
			return n.Of, nil
		}
		return nil, errs.Compile("%q is an array of objects and cannot be matched", key)
	default:
		return nil, errs.Compile("%q is an object: address one of its properties with a dotted path", key)
	}
}

// scalar normalizes a literal to nil, string, bool, int64 or float64.
func scalar(key string, v any, node schema.Node) (any, error) {
	if s, ok := node.(schema.Scalar); ok && s.Type == schema.TypeTimestamp && v != nil {
		ts, err := schema.CanonicalTimestamp(v)
		if err != nil {
			return nil, errs.Compile("%q: %v", key, err)
		}
		return ts, nil
	}

	switch val := v.(type) {
	case nil:
		return nil, nil
	case string, bool, int64, float64:
		return val, nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, errs.Compile("%q: invalid number %q", key, val.String())
		}
		return f, nil
	case time.Time:
		return schema.FormatTimestamp(val), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, errs.Compile("%q: integer %d out of range", key, u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return nil, errs.Compile("%q: expected a scalar, got %T", key, v)
}

// asList accepts any slice or array.
func asList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asObject accepts any map keyed by strings.
func asObject(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
