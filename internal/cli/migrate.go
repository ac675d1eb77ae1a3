package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bongo/internal/migrate"
)

// MigrateResult is the JSON payload of migrate.
type MigrateResult struct {
	Direction string `json:"direction"`
	Revision  int    `json:"revision"`
	Types     int    `json:"types"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate <up|down> [manifest]",
		Short: "Apply or revert storage revisions",
		Long: `Bring the physical schema up to the latest revision and provision a
partition for every type in the manifest, or revert every revision.

"down" removes all bongo tables, partitions and documents.

Example:
  bongo migrate up types.yaml
  BONGO_DSN=app.db bongo migrate down`,
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest := ""
			if len(args) == 2 {
				manifest = args[1]
			}
			return runMigrate(rootOpts, args[0], manifest, cmd)
		},
	}
	return cmd
}

func runMigrate(opts *RootOptions, direction, manifest string, cmd *cobra.Command) error {
	e, err := setup(opts, cmd)
	if err != nil {
		return err
	}
	if direction != "up" && direction != "down" {
		return e.out.Fail("migrate", fmt.Errorf("direction must be up or down, got %q", direction))
	}

	ctx := commandContext(cmd)
	path := ""
	if direction == "up" {
		path = e.manifestPath(manifest)
	}
	b, cols, err := e.open(ctx, path)
	if err != nil {
		return err
	}
	defer b.Close()

	if direction == "up" {
		err = b.Migrate(ctx)
	} else {
		err = b.Drop(ctx)
	}
	if err != nil {
		return e.out.Fail("migrate "+direction, err)
	}

	rev, err := migrate.New(b.Provider(), b.Dialect(), migrate.WithLogger(e.logger)).Current(ctx)
	if err != nil {
		return e.out.Fail("read revision", err)
	}

	res := MigrateResult{Direction: direction, Revision: rev, Types: len(cols)}
	text := fmt.Sprintf("✓ Migrated %s to revision %d", direction, rev)
	if direction == "up" {
		text += fmt.Sprintf(" (%d type(s) provisioned)", len(cols))
	}
	return e.out.Success(res, text)
}
