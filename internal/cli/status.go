package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bongo/internal/migrate"
)

// StatusResult is the JSON payload of status.
type StatusResult struct {
	Dialect    string              `json:"dialect"`
	Current    int                 `json:"current"`
	Latest     int                 `json:"latest"`
	Partitions []migrate.Partition `json:"partitions"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the applied revision and provisioned partitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	e, err := setup(opts, cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	b, _, err := e.open(ctx, "")
	if err != nil {
		return err
	}
	defer b.Close()

	m := migrate.New(b.Provider(), b.Dialect(), migrate.WithLogger(e.logger))
	cur, err := m.Current(ctx)
	if err != nil {
		return e.out.Fail("read revision", err)
	}
	parts, err := m.Partitions(ctx)
	if err != nil {
		return e.out.Fail("list partitions", err)
	}

	res := StatusResult{Dialect: b.Dialect().String(), Current: cur, Latest: m.Latest(), Partitions: parts}
	if res.Partitions == nil {
		res.Partitions = []migrate.Partition{}
	}

	var text strings.Builder
	fmt.Fprintf(&text, "dialect:  %s\n", res.Dialect)
	fmt.Fprintf(&text, "revision: %d/%d", res.Current, res.Latest)
	if res.Current < res.Latest {
		text.WriteString(" (pending)")
	}
	for _, p := range parts {
		fmt.Fprintf(&text, "\n  %-20s %s", p.Type, p.Name)
	}
	return e.out.Success(res, text.String())
}
