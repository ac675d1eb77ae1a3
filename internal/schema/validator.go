package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/bongo/internal/errs"
)

// Validator checks documents of one type against its compiled schema.
// It is safe for concurrent use.
type Validator struct {
	typeName string
	source   string

	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

// Compile builds a Validator for the document type name.
func Compile(name string, fields Fields) (*Validator, error) {
	if err := Check(fields); err != nil {
		return nil, errs.Registration(name, "invalid schema: %v", err)
	}

	src := Source(fields)
	ctx := cuecontext.New()
	root := ctx.CompileString(src, cue.Filename(name+".cue"))
	if err := root.Err(); err != nil {
		return nil, errs.Registration(name, "compile schema: %s", formatCUEError(err))
	}

	def := root.LookupPath(cue.ParsePath("#Doc"))
	if err := def.Err(); err != nil {
		return nil, errs.Registration(name, "compile schema: %s", formatCUEError(err))
	}

	return &Validator{typeName: name, source: src, ctx: ctx, def: def}, nil
}

// Source returns the generated CUE source.
func (v *Validator) Source() string { return v.source }

// Validate checks one stored document (the JSON object without id).
// The document must already carry defaults and normalized values.
func (v *Validator) Validate(doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errs.Validation(v.typeName, fmt.Sprintf("%v", doc), err)
	}

	expr, err := cuejson.Extract(v.typeName, data)
	if err != nil {
		return errs.Validation(v.typeName, string(data), err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	val := v.ctx.BuildExpr(expr)
	if err := val.Err(); err != nil {
		return errs.Validation(v.typeName, string(data), fmt.Errorf("%s", formatCUEError(err)))
	}

	if err := v.def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return errs.Validation(v.typeName, string(data), fmt.Errorf("%s", formatCUEError(err)))
	}
	return nil
}

// formatCUEError flattens a CUE error list into one line.
func formatCUEError(err error) string {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(list))
	for _, e := range list {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Source renders fields as a CUE file declaring the closed definition #Doc.
func Source(fields Fields) string {
	g := &generator{}
	body := g.fields(fields, nil, 1)

	var b strings.Builder
	b.WriteString("package bongo\n\n")
	if g.usesTime {
		b.WriteString("import \"time\"\n\n")
	}
	b.WriteString("#Doc: ")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String()
}

type generator struct {
	usesTime bool
}

// fields renders a struct. Every property is optional and nullable; the
// extra map holds properties that are required and already rendered.
func (g *generator) fields(f Fields, extra map[string]string, depth int) string {
	if len(f) == 0 && len(extra) == 0 {
		return "{}"
	}

	indent := strings.Repeat("\t", depth)
	var b strings.Builder
	b.WriteString("{\n")
	for _, k := range sortedKeys(extra) {
		fmt.Fprintf(&b, "%s%s!: %s\n", indent, quote(k), extra[k])
	}
	for _, k := range f.Keys() {
		fmt.Fprintf(&b, "%s%s?: %s | null\n", indent, quote(k), g.node(f[k], depth+1))
	}
	b.WriteString(strings.Repeat("\t", depth-1))
	b.WriteString("}")
	return b.String()
}

func (g *generator) node(n Node, depth int) string {
	switch node := n.(type) {
	case Scalar:
		return g.scalar(node.Type)
	case Enum:
		alts := make([]string, len(node.Values))
		for i, v := range node.Values {
			alts[i] = quote(v)
		}
		return "(" + strings.Join(alts, " | ") + ")"
	case Elements:
		return "[...(" + g.node(node.Of, depth) + ")]"
	case Values:
		return "{[string]: " + g.node(node.Of, depth) + "}"
	case Properties:
		return g.fields(node.Fields, nil, depth)
	case Ref:
		return g.fields(node.Fields.withID(), nil, depth)
	case Discriminator:
		tags := node.sortedTags()
		alts := make([]string, len(tags))
		for i, tag := range tags {
			alts[i] = g.fields(node.Mapping[tag], map[string]string{node.Tag: quote(tag)}, depth)
		}
		return "(" + strings.Join(alts, " | ") + ")"
	}
	return "_|_"
}

func (g *generator) scalar(t ScalarType) string {
	switch t {
	case TypeInt8:
		return "int & >=-128 & <=127"
	case TypeUint8:
		return "int & >=0 & <=255"
	case TypeInt16:
		return "int & >=-32768 & <=32767"
	case TypeUint16:
		return "int & >=0 & <=65535"
	case TypeInt32:
		return "int & >=-2147483648 & <=2147483647"
	case TypeUint32:
		return "int & >=0 & <=4294967295"
	case TypeFloat32:
		return "number & >=-3.4028234663852886e+38 & <=3.4028234663852886e+38"
	case TypeFloat64:
		return "number"
	case TypeString:
		return "string"
	case TypeBoolean:
		return "bool"
	case TypeTimestamp:
		g.usesTime = true
		return "time.Time"
	}
	return "_|_"
}

// quote renders s as a CUE string literal. JSON string syntax is a subset
// of CUE's.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func sortedKeys(m map[string]string) []string {
	f := make(Fields, len(m))
	for k := range m {
		f[k] = nil
	}
	return f.Keys()
}
