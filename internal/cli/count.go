package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// CountResult is the JSON payload of count.
type CountResult struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count <type> [query-json]",
		Short: "Count documents matching a query",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 2 {
				query = args[1]
			}
			return runCount(rootOpts, args[0], query, cmd)
		},
	}
}

func runCount(opts *RootOptions, typeName, query string, cmd *cobra.Command) error {
	e, err := setup(opts, cmd)
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

	n, err := c.Count(q).Run(ctx, b)
	if err != nil {
		return e.out.Fail("count "+typeName, err)
	}
	return e.out.Success(CountResult{Type: typeName, Count: n}, strconv.FormatInt(n, 10))
}
