package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bongo"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Limit  int
	Offset int
	Sort   []string
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find <type> [query-json]",
		Short: "List documents matching a query",
		Long: `List documents of a manifest-declared type that match a JSON query.

Example:
  bongo find -m types.yaml task '{"status": "OPEN"}' --sort -priority --limit 10
  bongo find -m types.yaml task '{"$or": [{"owner.id": "usr_1"}, {"tags": {"$in": ["ops"]}}]}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 2 {
				query = args[1]
			}
			return runFind(opts, args[0], query, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum results (0 = configured page size, -1 = all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "results to skip")
	cmd.Flags().StringSliceVar(&opts.Sort, "sort", nil, "sort keys, prefix with - for descending (repeatable)")

	return cmd
}

func runFind(opts *FindOptions, typeName, query string, cmd *cobra.Command) error {
	e, err := setup(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	q, err := parseQuery(query)
	if err != nil {
		return e.out.Fail("parse query", err)
	}

	ctx := commandContext(cmd)
	b, cols, err := e.open(ctx, e.manifestPath(""))
	if err != nil {
		return err
	}
	defer b.Close()

	c, err := e.collection(cols, typeName)
	if err != nil {
		return err
	}

	docs, err := c.Find(q, bongo.FindOptions{
		Limit:  opts.Limit,
		Offset: opts.Offset,
		Sort:   parseSort(opts.Sort),
	}).Run(ctx, b)
	if err != nil {
		return e.out.Fail("find "+typeName, err)
	}
	if docs == nil {
		docs = []bongo.Document[bongo.M]{}
	}

	lines := make([]string, 0, len(docs))
	for _, d := range docs {
		data, err := json.Marshal(d)
		if err != nil {
			return e.out.Fail("encode document", err)
		}
		lines = append(lines, string(data))
	}
	e.out.VerboseLog("%d document(s)", len(docs))
	return e.out.Success(docs, strings.Join(lines, "\n"))
}

// parseQuery decodes a JSON query object. Empty input is the match-all
// query.
func parseQuery(s string) (bongo.Q, error) {
	if strings.TrimSpace(s) == "" {
		return bongo.Q{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var q bongo.Q
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("query must be a JSON object: %w", err)
	}
	if q == nil {
		return nil, fmt.Errorf("query must be a JSON object, got null")
	}
	return q, nil
}

// parseSort turns "field" and "-field" into sort keys.
func parseSort(keys []string) []bongo.SortKey {
	out := make([]bongo.SortKey, 0, len(keys))
	for _, k := range keys {
		if field, ok := strings.CutPrefix(k, "-"); ok {
			out = append(out, bongo.Desc(field))
			continue
		}
		out = append(out, bongo.Asc(k))
	}
	return out
}
