package querysql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/bongo/internal/queryir"
)

var jsonPathOps = map[queryir.Op]string{
	queryir.OpEq:  "==",
	queryir.OpNe:  "!=",
	queryir.OpGt:  ">",
	queryir.OpGte: ">=",
	queryir.OpLt:  "<",
	queryir.OpLte: "<=",
}

// jsonPathCompare renders a jsonpath predicate such as $."foo" == 123.
func jsonPathCompare(path []string, op queryir.Op, v any) (string, error) {
	jop, ok := jsonPathOps[op]
	if !ok {
		return "", fmt.Errorf("unsupported operator %q", op)
	}
	lit, err := JSONPathLiteral(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", jsonPathAccessor(path), jop, lit), nil
}

// jsonPathMembership renders an existence filter such as
// $."foo" ? (@ == 2 || @ == 3).
func jsonPathMembership(path []string, values []any, negate bool) (string, error) {
	op, sep := "==", " || "
	if negate {
		op, sep = "!=", " && "
	}
	conds := make([]string, len(values))
	for i, v := range values {
		lit, err := JSONPathLiteral(v)
		if err != nil {
			return "", err
		}
		conds[i] = "@ " + op + " " + lit
	}
	return fmt.Sprintf("%s ? (%s)", jsonPathAccessor(path), strings.Join(conds, sep)), nil
}

// jsonPathAccessor renders $."a"."b".
func jsonPathAccessor(path []string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, seg := range path {
		b.WriteString(".")
		b.WriteString(jsonPathString(seg))
	}
	return b.String()
}

// JSONPathLiteral serializes a normalized literal for embedding in a
// jsonpath expression: strings are quoted and escaped, numbers and
// booleans render natively, nil renders as null.
func JSONPathLiteral(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return jsonPathString(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return "", fmt.Errorf("non-finite number %v", val)
		}
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("unsupported literal type %T", v)
}

func jsonPathString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
