package migrate

import "github.com/roach88/bongo/internal/dialect"

// Revision is one forward/backward step of the physical schema.
type Revision struct {
	ID   int
	Up   []string
	Down []string
}

// Well-known revision ids.
const (
	// RevisionTracking creates the table that stores the current revision.
	// Once it is reverted there is nowhere left to persist to.
	RevisionTracking = 1
	// RevisionCatalog creates the partition catalog. Reverting it first
	// drops every catalogued partition.
	RevisionCatalog = 4
)

// Table names.
const (
	RevisionTable   = "bongo_revision"
	DocumentsTable  = "bongo_documents"
	PartitionsTable = "bongo_partitions"
)

// Revisions returns the ordered revision list for a dialect.
func Revisions(d dialect.Dialect) []Revision {
	if d == dialect.Postgres {
		return []Revision{
			{
				ID:   1,
				Up:   []string{`CREATE TABLE IF NOT EXISTS bongo_revision (revision INTEGER NOT NULL)`},
				Down: []string{`DROP TABLE IF EXISTS bongo_revision`},
			},
			{
				ID: 2,
				Up: []string{`CREATE TABLE IF NOT EXISTS bongo_documents (
	id TEXT NOT NULL,
	type TEXT NOT NULL,
	doc JSONB NOT NULL,
	PRIMARY KEY (id, type)
) PARTITION BY LIST (type)`},
				Down: []string{`DROP TABLE IF EXISTS bongo_documents`},
			},
			{
				ID:   3,
				Up:   []string{`CREATE INDEX IF NOT EXISTS bongo_documents_doc ON bongo_documents USING GIN (doc jsonb_path_ops)`},
				Down: []string{`DROP INDEX IF EXISTS bongo_documents_doc`},
			},
			{
				ID:   4,
				Up:   []string{`CREATE TABLE IF NOT EXISTS bongo_partitions (type TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE)`},
				Down: []string{`DROP TABLE IF EXISTS bongo_partitions`},
			},
		}
	}

	return []Revision{
		{
			ID:   1,
			Up:   []string{`CREATE TABLE IF NOT EXISTS bongo_revision (revision INTEGER NOT NULL)`},
			Down: []string{`DROP TABLE IF EXISTS bongo_revision`},
		},
		{
			ID: 2,
			Up: []string{`CREATE TABLE IF NOT EXISTS bongo_documents (
	id TEXT NOT NULL,
	type TEXT NOT NULL,
	doc TEXT NOT NULL CHECK (json_valid(doc)),
	PRIMARY KEY (id, type)
)`},
			Down: []string{`DROP TABLE IF EXISTS bongo_documents`},
		},
		{
			ID:   3,
			Up:   []string{`CREATE INDEX IF NOT EXISTS bongo_documents_type_id ON bongo_documents (type, id)`},
			Down: []string{`DROP INDEX IF EXISTS bongo_documents_type_id`},
		},
		{
			ID:   4,
			Up:   []string{`CREATE TABLE IF NOT EXISTS bongo_partitions (type TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE)`},
			Down: []string{`DROP TABLE IF EXISTS bongo_partitions`},
		},
	}
}
