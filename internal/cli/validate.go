package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bongo"
	"github.com/roach88/bongo/internal/dialect"
	"github.com/roach88/bongo/internal/schema"
)

// TypeSummary describes one validated document type.
type TypeSummary struct {
	Name        string `json:"name"`
	Prefix      string `json:"prefix,omitempty"`
	Fields      int    `json:"fields"`
	Fingerprint string `json:"fingerprint"`
}

// ValidationResult is the JSON payload of validate.
type ValidationResult struct {
	Valid bool          `json:"valid"`
	Types []TypeSummary `json:"types"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Check a manifest without touching the store",
		Long: `Decode a document type manifest, compile every schema and run the
registration checks (unique names and prefixes, prefix length).

No connection is opened.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	decls, err := loadManifest(path)
	if err != nil {
		return out.Fail("load manifest", err)
	}
	if len(decls) == 0 {
		return out.Fail("load manifest", fmt.Errorf("%s declares no types", path))
	}

	// Registration never touches the provider.
	b := bongo.New(nil, dialect.SQLite)
	if _, err := registerAll(b, decls); err != nil {
		return out.Fail("validate manifest", err)
	}

	res := ValidationResult{Valid: true}
	var text strings.Builder
	text.WriteString("✓ Manifest valid")
	for _, d := range decls {
		fp, err := schema.Fingerprint(d.Fields)
		if err != nil {
			return out.Fail("fingerprint "+d.Name, err)
		}
		res.Types = append(res.Types, TypeSummary{Name: d.Name, Prefix: d.Prefix, Fields: len(d.Fields), Fingerprint: fp})
		out.VerboseLog("%s: %d field(s)", d.Name, len(d.Fields))
		fmt.Fprintf(&text, "\n  %-20s %s", d.Name, fp[:12])
	}
	return out.Success(res, text.String())
}
