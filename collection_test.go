package bongo

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bongo/internal/errs"
	"github.com/roach88/bongo/internal/ids"
	"github.com/roach88/bongo/internal/testutil"
)

type task struct {
	Title  string         `json:"title"`
	Points Opt[int]       `json:"points"`
	Done   bool           `json:"done"`
	Tags   []string       `json:"tags"`
	Due    Opt[time.Time] `json:"due"`
}

var taskSchema = Fields{
	"title":  String,
	"points": Int32,
	"done":   Boolean,
	"tags":   Elements(String),
	"due":    Timestamp,
}

var taskCmp = cmp.AllowUnexported(Opt[int]{}, Opt[time.Time]{})

// createTasks returns a migrated registry with a "task" collection.
func createTasks(t *testing.T, opts ...Option) (*Bongo, *Collection[task]) {
	t.Helper()
	b := createTestBongo(t, opts...)
	tasks := MustRegister[task](b, DocumentType{Name: "task", Prefix: "tsk", Schema: taskSchema})
	mustMigrate(t, b)
	return b, tasks
}

func seed(t *testing.T, b *Bongo, c *Collection[task], vs ...task) []Document[task] {
	t.Helper()
	docs, err := c.CreateAll(vs).Transact(context.Background(), b)
	require.NoError(t, err)
	return docs
}

func titles(docs []Document[task]) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Data.Title)
	}
	return out
}

func TestCreate_FindByIDRoundTrip(t *testing.T) {
	b, tasks := createTasks(t)
	ctx := context.Background()

	due := time.Date(2024, 3, 1, 9, 30, 15, 123456789, time.FixedZone("CET", 3600))
	created, err := tasks.Create(task{
		Title:  "write docs",
		Points: Some(3),
		Tags:   []string{"docs", "writing"},
		Due:    Some(due),
	}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "tsk_0001", created.ID)

	// Stored at microsecond precision in UTC.
	assert.True(t, created.Data.Due.MustGet().Equal(due.Truncate(time.Microsecond)))

	found, err := tasks.FindByID(created.ID).Run(ctx, b)
	require.NoError(t, err)
	if diff := cmp.Diff(created, found, taskCmp); diff != "" {
		t.Errorf("round trip mismatch (-created +found):\n%s", diff)
	}
}

func TestCreate_UntypedRoundTrip(t *testing.T) {
	b := createTestBongo(t)
	docs := MustRegister[M](b, DocumentType{Name: "thing", Schema: Fields{
		"foo":  Int32,
		"bar":  String,
		"meta": Properties(Fields{"tags": Elements(String)}),
	}})
	mustMigrate(t, b)
	ctx := context.Background()

	created, err := docs.Create(M{"foo": 42}).Run(ctx, b)
	require.NoError(t, err)

	// Every declared key is present, unset ones as null.
	assert.Equal(t, M{"foo": float64(42), "bar": nil, "meta": nil}, created.Data)

	found, err := docs.FindByID(created.ID).Run(ctx, b)
	require.NoError(t, err)
	if diff := cmp.Diff(created, found); diff != "" {
		t.Errorf("round trip mismatch (-created +found):\n%s", diff)
	}
}

func TestCreate_ValidationFailsAtInterpretation(t *testing.T) {
	b, tasks := createTasks(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		value task
	}{
		{"points out of range", task{Title: "x", Points: Some(1 << 40)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tasks.Create(tt.value) // building never fails
			_, err := a.Run(ctx, b)
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err))
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}

	raw := MustRegister[M](b, DocumentType{Name: "task", Prefix: "tsk", Schema: taskSchema})
	for name, v := range map[string]M{
		"unknown field":  {"title": "x", "owner": "me"},
		"wrong type":     {"title": 5},
		"bad timestamp":  {"due": "yesterday"},
		"element type":   {"tags": []any{"a", 1}},
		"not an instant": {"due": true},
		"extra field":    {"id": "tsk_9", "title": "x", "extra": 1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := raw.Create(v).Run(ctx, b)
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err), "got %v", err)
			assert.Contains(t, err.Error(), "type=task")
		})
	}

	n, err := tasks.Count(Q{}).Run(ctx, b)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreate_PrefixedIdentifiers(t *testing.T) {
	b := createTestBongo(t, WithIDGenerator(ids.UUIDv7{}))
	tasks := MustRegister[task](b, DocumentType{Name: "task", Prefix: "tsk", Schema: taskSchema})
	plain := MustRegister[M](b, DocumentType{Name: "note", Schema: noteSchema})
	mustMigrate(t, b)
	ctx := context.Background()

	d1, err := tasks.Create(task{Title: "a"}).Run(ctx, b)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d1.ID, "tsk_"))
	assert.Len(t, d1.ID, len("tsk_")+32)

	d2, err := plain.Create(M{"body": "b"}).Run(ctx, b)
	require.NoError(t, err)
	assert.Len(t, d2.ID, 32)
}

func TestFind_TypeIsolation(t *testing.T) {
	b, tasks := createTasks(t)
	notes := MustRegister[M](b, DocumentType{Name: "note", Schema: noteSchema})
	mustMigrate(t, b)
	ctx := context.Background()

	seed(t, b, tasks, task{Title: "a"}, task{Title: "b"}, task{Title: "c"})
	_, err := notes.CreateAll([]M{{"body": "x"}, {"body": "y"}}).Run(ctx, b)
	require.NoError(t, err)

	got, err := tasks.Find(Q{}, FindOptions{}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, titles(got))

	n, err := notes.Count(Q{}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestFind_FieldMatch(t *testing.T) {
	b, tasks := createTasks(t)
	ctx := context.Background()
	seed(t, b, tasks,
		task{Title: "a", Points: Some(1), Done: true, Tags: []string{"red"}},
		task{Title: "b", Points: Some(5), Tags: []string{"blue", "red"}},
		task{Title: "c"},
	)

	tests := []struct {
		name  string
		query Q
		want  []string
	}{
		{"equality", Q{"title": "b"}, []string{"b"}},
		{"no match", Q{"title": "z"}, []string{}},
		{"boolean", Q{"done": true}, []string{"a"}},
		{"null", Q{"points": nil}, []string{"c"}},
		{"not null", Q{"points": Q{"$ne": nil}}, []string{"a", "b"}},
		{"range", Q{"points": Q{"$gt": 0, "$lte": 1}}, []string{"a"}},
		{"implicit and", Q{"title": "a", "done": true}, []string{"a"}},
		{"in", Q{"title": Q{"$in": []string{"a", "c"}}}, []string{"a", "c"}},
		{"nin", Q{"title": Q{"$nin": []string{"a", "c"}}}, []string{"b"}},
		{"array contains", Q{"tags": Q{"$in": []string{"blue"}}}, []string{"b"}},
		{"array contains any", Q{"tags": Q{"$in": []string{"green", "red"}}}, []string{"a", "b"}},
		{"or", Q{"$or": []any{Q{"title": "a"}, Q{"points": 5}}}, []string{"a", "b"}},
		{"and", Q{"$and": []any{Q{"points": Q{"$gte": 1}}, Q{"done": false}}}, []string{"b"}},
		{"by id", Q{"id": "tsk_0002"}, []string{"b"}},
		{"empty in is vacuous", Q{"title": Q{"$in": []string{}}}, []string{"a", "b", "c"}},
		{"empty nin is vacuous", Q{"title": Q{"$nin": []any{}}}, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tasks.Find(tt.query, FindOptions{}).Run(ctx, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestFind_Timestamps(t *testing.T) {
	b, tasks := createTasks(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(t, b, tasks,
		task{Title: "early", Due: Some(base)},
		task{Title: "late", Due: Some(base.Add(48 * time.Hour))},
	)

	got, err := tasks.Find(Q{"due": Q{"$gt": base.Add(time.Hour)}}, FindOptions{}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, titles(got))

	// Canonical and offset strings address the same instant.
	got, err = tasks.Find(Q{"due": "2024-01-01T01:00:00+01:00"}, FindOptions{}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"early"}, titles(got))
}

func TestFind_SortLimitOffset(t *testing.T) {
	b, tasks := createTasks(t, WithPageSize(2))
	ctx := context.Background()
	seed(t, b, tasks,
		task{Title: "a", Points: Some(2)},
		task{Title: "b", Points: Some(3)},
		task{Title: "c", Points: Some(2)},
	)

	got, err := tasks.Find(Q{}, FindOptions{}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(got), "default page size")

	got, err = tasks.Find(Q{}, FindOptions{Limit: -1}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, titles(got), "unbounded")

	got, err = tasks.Find(Q{}, FindOptions{Limit: -1, Sort: []SortKey{Desc("points")}}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, titles(got), "ties broken by id")

	got, err = tasks.Find(Q{}, FindOptions{Limit: 1, Offset: 1, Sort: []SortKey{Asc("title")}}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, titles(got))
}

func TestFind_CompileErrors(t *testing.T) {
	b, tasks := createTasks(t)
	ctx := context.Background()

	for name, q := range map[string]Q{
		"unknown field":    {"owner": "me"},
		"unknown operator": {"title": Q{"$like": "a%"}},
		"and with one":     {"$and": []any{Q{"title": "a"}}},
		"and and or":       {"$and": []any{Q{}, Q{}}, "$or": []any{Q{}, Q{}}},
		"in not array":     {"title": Q{"$in": "a"}},
		"non scalar":       {"title": Q{"$eq": []string{"a"}}},
		"array equality":   {"tags": "red"},
		"array as text":    {"tags": `["red"]`},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tasks.Find(q, FindOptions{}).Run(ctx, b)
			require.Error(t, err)
			assert.True(t, errs.IsCompile(err), "got %v", err)
		})
	}

	_, err := tasks.Find(Q{}, FindOptions{Sort: []SortKey{Asc("owner")}}).Run(ctx, b)
	assert.True(t, errs.IsCompile(err))

	_, err = tasks.Find(Q{}, FindOptions{Sort: []SortKey{Asc("tags")}}).Run(ctx, b)
	assert.True(t, errs.IsCompile(err))

	_, err = tasks.Count(Q{"nope": 1}).Run(ctx, b)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.CodeCompile, e.Code)
	assert.Equal(t, "task", e.Type)
}

func TestFindOne(t *testing.T) {
	b, tasks := createTasks(t)
	ctx := context.Background()
	seed(t, b, tasks, task{Title: "a"}, task{Title: "b"}, task{Title: "b"}, task{Title: "b"})

	none, err := tasks.FindOne(Q{"title": "z"}).Run(ctx, b)
	require.NoError(t, err)
	assert.Nil(t, none)

	one, err := tasks.FindOne(Q{"title": "a"}).Run(ctx, b)
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "tsk_0001", one.ID)

	_, err = tasks.FindOne(Q{"title": "b"}).Run(ctx, b)
	require.Error(t, err)
	assert.True(t, errs.IsTooManyResults(err))
	assert.Contains(t, err.Error(), "found 3")
}

func TestFindByID_NotFound(t *testing.T) {
	b, tasks := createTasks(t)
	_, err := tasks.FindByID("tsk_missing").Run(context.Background(), b)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSave_UpdatesInPlace(t *testing.T) {
	b := createTestBongo(t)
	things := MustRegister[M](b, DocumentType{Name: "thing", Schema: Fields{"foo": Int32, "bar": String}})
	mustMigrate(t, b)
	ctx := context.Background()

	doc, err := things.Create(M{"foo": 42, "bar": "x"}).Run(ctx, b)
	require.NoError(t, err)

	doc.Data["foo"] = 22
	_, err = things.Save(doc).Run(ctx, b)
	require.NoError(t, err)

	found, err := things.FindByID(doc.ID).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, Document[M]{ID: doc.ID, Data: M{"foo": float64(22), "bar": "x"}}, found)

	n, err := things.Count(Q{}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSave_InsertsUnknownID(t *testing.T) {
	b, tasks := createTasks(t)
	ctx := context.Background()

	_, err := tasks.Save(Document[task]{ID: "tsk_custom", Data: task{Title: "mine"}}).Run(ctx, b)
	require.NoError(t, err)

	found, err := tasks.FindByID("tsk_custom").Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "mine", found.Data.Title)

	_, err = tasks.Save(Document[task]{Data: task{Title: "no id"}}).Run(ctx, b)
	assert.True(t, errs.IsValidation(err))
}

func TestDeleteByIDAndDrop(t *testing.T) {
	b, tasks := createTasks(t)
	notes := MustRegister[M](b, DocumentType{Name: "note", Schema: noteSchema})
	mustMigrate(t, b)
	ctx := context.Background()

	docs := seed(t, b, tasks, task{Title: "a"}, task{Title: "b"}, task{Title: "c"})
	_, err := notes.Create(M{"body": "keep"}).Run(ctx, b)
	require.NoError(t, err)

	removed, err := tasks.DeleteByID(docs[0].ID).Run(ctx, b)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = tasks.DeleteByID(docs[0].ID).Run(ctx, b)
	require.NoError(t, err)
	assert.False(t, removed)

	dropped, err := tasks.Drop().Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dropped)

	n, err := notes.Count(Q{}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "other types untouched")
}

func TestAtomicity_TransactVersusRun(t *testing.T) {
	ctx := context.Background()

	compose := func(tasks *Collection[task], raw *Collection[M]) Action[Document[M]] {
		return FlatMap(tasks.Create(task{Title: "first"}), func(Document[task]) Action[Document[M]] {
			return raw.Create(M{"title": 7})
		})
	}

	t.Run("transact", func(t *testing.T) {
		b, tasks := createTasks(t)
		raw := MustRegister[M](b, DocumentType{Name: "task", Prefix: "tsk", Schema: taskSchema})

		_, err := compose(tasks, raw).Transact(ctx, b)
		require.Error(t, err)
		assert.True(t, errs.IsValidation(err))

		got, err := tasks.Find(Q{}, FindOptions{}).Run(ctx, b)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("run", func(t *testing.T) {
		b, tasks := createTasks(t)
		raw := MustRegister[M](b, DocumentType{Name: "task", Prefix: "tsk", Schema: taskSchema})

		_, err := compose(tasks, raw).Run(ctx, b)
		require.Error(t, err)

		got, err := tasks.Find(Q{}, FindOptions{}).Run(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, []string{"first"}, titles(got))
	})
}

func TestChain(t *testing.T) {
	b, tasks := createTasks(t)
	ctx := context.Background()

	bump := func(d Document[task]) Action[Document[task]] {
		d.Data.Points = Some(d.Data.Points.Or(0) + 1)
		return tasks.Save(d)
	}
	got, err := Chain(tasks.Create(task{Title: "a"}), bump, bump, bump).Transact(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Data.Points.MustGet())

	stored, err := tasks.FindByID(got.ID).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Data.Points.MustGet())

	// Any lets one pipeline mix result types.
	mixed, err := Flatten([]Action[any]{
		Any(tasks.Count(Q{})),
		Any(Then(tasks.Create(task{Title: "b"}), Lazy(func(context.Context) (string, error) { return "created", nil }))),
		Any(tasks.Count(Q{})),
	}).Transact(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "created", int64(2)}, mixed)

	// A failing step stops the chain and rolls back what came before.
	boom := errors.New("boom")
	_, err = Chain(tasks.Create(task{Title: "c"}), bump, func(Document[task]) Action[Document[task]] {
		return Fail[Document[task]](boom)
	}).Transact(ctx, b)
	require.ErrorIs(t, err, boom)

	n, err := tasks.Count(Q{}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCreateAll_SharesOneConnection(t *testing.T) {
	b, tasks := createTasks(t)
	ctx := context.Background()

	docs, err := tasks.CreateAll([]task{{Title: "a"}, {Title: "b"}}).Transact(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"tsk_0001", "tsk_0002"}, []string{docs[0].ID, docs[1].ID})

	// Re-running a composed action starts from scratch.
	a := tasks.Count(Q{})
	n1, err := a.Run(ctx, b)
	require.NoError(t, err)
	n2, err := a.Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, n1, n2)
}

func TestFind_ForUpdateSerializesTransactions(t *testing.T) {
	b, tasks := createTasks(t)
	ctx := context.Background()
	seed(t, b, tasks, task{Title: "shared"})

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(e string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	locked := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		hold := FlatMap(tasks.Find(Q{"title": "shared"}, FindOptions{ForUpdate: true}),
			func([]Document[task]) Action[struct{}] {
				return Lazy(func(context.Context) (struct{}, error) {
					close(locked)
					<-release
					record("first finished")
					return struct{}{}, nil
				})
			})
		_, err := hold.Transact(ctx, b)
		firstDone <- err
	}()
	<-locked

	secondDone := make(chan error, 1)
	go func() {
		_, err := tasks.Find(Q{"title": "shared"}, FindOptions{ForUpdate: true}).Transact(ctx, b)
		record("second read")
		secondDone <- err
	}()

	select {
	case <-secondDone:
		t.Fatal("second locking read completed while the first transaction was open")
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-secondDone)
	assert.Equal(t, []string{"first finished", "second read"}, events)
}

func TestFind_ForUpdateWaitIsBoundedByBusyTimeout(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, StoreOptions{
		DSN:         filepath.Join(t.TempDir(), "busy.db"),
		BusyTimeout: 50 * time.Millisecond,
		Logger:      testutil.Quiet(),
	}, WithLogger(testutil.Quiet()))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	tasks := MustRegister[task](b, DocumentType{Name: "task", Prefix: "tsk", Schema: taskSchema})
	mustMigrate(t, b)
	seed(t, b, tasks, task{Title: "shared"})

	locked := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		hold := FlatMap(tasks.Find(Q{"title": "shared"}, FindOptions{ForUpdate: true}),
			func([]Document[task]) Action[struct{}] {
				return Lazy(func(context.Context) (struct{}, error) {
					close(locked)
					<-release
					return struct{}{}, nil
				})
			})
		_, err := hold.Transact(ctx, b)
		firstDone <- err
	}()
	<-locked

	start := time.Now()
	_, err = tasks.Find(Q{"title": "shared"}, FindOptions{ForUpdate: true}).Transact(ctx, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	assert.Less(t, time.Since(start), 5*time.Second)

	close(release)
	require.NoError(t, <-firstDone)
}

func TestUnion_NestedAndRef(t *testing.T) {
	b := createTestBongo(t)
	users := MustRegister[M](b, DocumentType{Name: "user", Prefix: "usr", Schema: Fields{"name": String}})
	shapes := MustRegister[M](b, DocumentType{Name: "shape", Schema: Fields{
		"label": String,
		"geometry": Discriminator("kind", map[string]Fields{
			"circle": {"radius": Float64},
			"rect":   {"w": Float64, "h": Float64},
		}),
		"owner":    Ref(users),
		"snapshot": Properties(Fields{"name": String}),
		"attrs":    Values(Int32),
	}})
	mustMigrate(t, b)
	ctx := context.Background()

	ada, err := users.Create(M{"name": "ada"}).Run(ctx, b)
	require.NoError(t, err)
	snapshot, err := Nested(ada)
	require.NoError(t, err)

	_, err = shapes.CreateAll([]M{
		{"label": "c", "geometry": M{"kind": "circle", "radius": 2.5}, "owner": ada, "snapshot": snapshot},
		{"label": "r", "geometry": M{"kind": "rect", "w": 1, "h": 2}, "attrs": M{"z": 3}},
	}).Transact(ctx, b)
	require.NoError(t, err)

	circle, err := shapes.FindOne(Q{"geometry.kind": "circle"}).Run(ctx, b)
	require.NoError(t, err)
	require.NotNil(t, circle)
	assert.Equal(t, M{"kind": "circle", "radius": 2.5}, circle.Data["geometry"])
	assert.Equal(t, M{"id": ada.ID, "name": "ada"}, circle.Data["owner"])
	assert.Equal(t, M{"name": "ada"}, circle.Data["snapshot"])

	byOwner, err := shapes.Count(Q{"owner.id": ada.ID}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byOwner)

	bigger, err := shapes.Count(Q{"geometry.radius": Q{"$gt": 2}}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bigger)

	byAttr, err := shapes.Count(Q{"attrs.z": 3}).Run(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byAttr)

	for name, q := range map[string]Q{
		"properties as text":   {"snapshot": `{"name":"ada"}`},
		"properties in":        {"snapshot": Q{"$in": []string{"ada"}}},
		"ref by id string":     {"owner": ada.ID},
		"union equality":       {"geometry": "circle"},
		"values in":            {"attrs": Q{"$in": []int{3}}},
		"values as object ops": {"attrs": Q{"$gt": 1}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := shapes.Find(q, FindOptions{}).Run(ctx, b)
			require.Error(t, err)
			assert.True(t, errs.IsCompile(err), "got %v", err)
		})
	}

	for name, v := range map[string]M{
		"field from other branch": {"geometry": M{"kind": "circle", "w": 1}},
		"unknown tag":             {"geometry": M{"kind": "hexagon"}},
		"missing tag":             {"geometry": M{"radius": 1}},
		"id in properties":        {"snapshot": ada},
		"ref without user fields": {"owner": M{"id": "usr_1", "age": 3}},
		"values element type":     {"attrs": M{"z": "three"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := shapes.Create(v).Run(ctx, b)
			assert.True(t, errs.IsValidation(err), "got %v", err)
		})
	}
}
