package queryir

// Predicate represents a filter condition over one document.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Field addresses a value: either the identity column or a path into the
// stored document.
type Field struct {
	ID   bool     // identity column
	Path []string // document path, empty when ID is set
}

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "$eq"
	OpNe  Op = "$ne"
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
)

// Logical and set operators.
const (
	OpAnd = "$and"
	OpOr  = "$or"
	OpIn  = "$in"
	OpNin = "$nin"
)

// True matches every document.
type True struct{}

// Compare tests one field against a literal.
//
// Equality treats null and absent alike: {"f": nil} matches documents
// where f is null.
type Compare struct {
	Field Field
	Op    Op
	Value any
}

// Membership tests whether a field (or any element of an array field)
// equals one of Values. With Negate set it tests whether the field holds
// a value outside Values.
type Membership struct {
	Field  Field
	Values []any
	Negate bool
}

// And requires every predicate to hold.
type And struct {
	Predicates []Predicate
}

// Or requires at least one predicate to hold.
type Or struct {
	Predicates []Predicate
}

func (True) predicateNode()       {}
func (Compare) predicateNode()    {}
func (Membership) predicateNode() {}
func (And) predicateNode()        {}
func (Or) predicateNode()         {}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// SortKey is a caller-supplied ordering on a dotted field path.
type SortKey struct {
	Field     string
	Direction Direction
}

// Sort is a resolved ordering.
type Sort struct {
	Field     Field
	Direction Direction
}
