// Package bongo is typed document storage over a relational store.
//
// Callers declare document types with a structural schema, register them
// with a Bongo registry and get back a Collection. Every Collection
// operation returns an Action: a pending unit of work that touches the
// store only when interpreted with Run (one connection, no transaction)
// or Transact (one connection, all-or-nothing).
//
//	b, err := bongo.Open(ctx, bongo.StoreOptions{DSN: "app.db"})
//	tasks, err := bongo.Register[Task](b, bongo.DocumentType{
//		Name:   "task",
//		Prefix: "tsk",
//		Schema: bongo.Fields{
//			"title": bongo.String,
//			"done":  bongo.Boolean,
//		},
//	})
//	err = b.Migrate(ctx)
//
//	open, err := tasks.Find(bongo.Q{"done": false}, bongo.FindOptions{
//		Sort: []bongo.SortKey{bongo.Asc("title")},
//	}).Run(ctx, b)
//
// Queries are plain maps:
//
//	{}                                    every document
//	{"field": v}                          equality (null matches null)
//	{"field": {"$gt": v, "$lt": w}}       comparisons, implicitly and-ed
//	{"field": {"$in": [v, w]}}            membership; "$nin" negates
//	{"$or": [{...}, {...}]}               logical groups; "$and" likewise
//
// Dotted paths address nested properties. "id" addresses the identifier.
package bongo
