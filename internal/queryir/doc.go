// Package queryir provides the intermediate representation of document
// queries, between the query object callers write and the SQL backends.
//
// ARCHITECTURE:
//
//	[query object] → Parse → [Predicate IR] → querysql → [SQL + args]
//
// Parse is schema aware: field paths are resolved against the document
// type's schema, so unknown fields and malformed operators fail before any
// statement is issued.
//
// QUERY LANGUAGE:
//
//	{}                                   true
//	{"f": v}                             f equals v
//	{"f": {"$eq"|"$ne"|"$gt"|"$gte"|"$lt"|"$lte": v}}
//	{"f": {"$in"|"$nin": [v, ...]}}      membership, empty list is true
//	{"$and": [q, q, ...]}                at least two entries
//	{"$or":  [q, q, ...]}                at least two entries
//
// Several keys in one object are an implicit $and, taken in sorted key
// order. Several operators on one field are an implicit $and too. Dotted
// keys ("meta.source") address nested properties; the top-level key "id"
// addresses the document identity.
//
// SEALED INTERFACES:
//
// Predicate is sealed with a marker method, so backends can switch
// exhaustively over True, Compare, Membership, And and Or.
//
// VALUES:
//
// Literal values are normalized to nil, string, bool, int64 or float64.
// Timestamp fields accept time.Time or any RFC 3339 string; both are
// rewritten to the canonical stored form.
package queryir
