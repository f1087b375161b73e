package cli

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zplkit/pkg/export"
	"github.com/matzehuels/zplkit/pkg/zpl"
)

// optimizeCommand creates the optimize command.
func (c *CLI) optimizeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "optimize [program.zpl]",
		Short: "Strip comments and whitespace from a ZPL program",
		Long: `Strip comments and whitespace from a ZPL program.

Every line is trimmed, blank lines and lines starting with "//" are
dropped and the rest are joined with newlines. Lines are never reordered.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			markup, err := readInput(cmd.InOrStdin(), argOrEmpty(args))
			if err != nil {
				return err
			}
			optimized, stats := zpl.OptimizeWithStats(markup)
			c.Logger.Debug("optimized program",
				"input_lines", stats.InputLines,
				"comment_lines", stats.CommentLines,
				"output_bytes", stats.OutputBytes)
			return writeText(output, optimized)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// templatizeCommand creates the templatize command.
func (c *CLI) templatizeCommand() *cobra.Command {
	var (
		output string
		policy string
		data   formDataFlags
	)

	cmd := &cobra.Command{
		Use:   "templatize [program.zpl]",
		Short: "Replace literal values with {{key}} placeholders",
		Long: `Replace literal values with {{key}} placeholders.

Every occurrence of each non-empty value is replaced as plain text, so the
result can be filled again with different data. When values overlap, the
--policy decides: longest-first (default) prefers the longest match at each
position, insertion replaces values one after another, strict refuses.`,
		Example: `  zplkit templatize shipping.zpl --set recipient="Jane Doe" --set trackingNumber=TRK1
  zplkit templatize product.zpl --data product.yaml --policy strict`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			markup, err := readInput(cmd.InOrStdin(), argOrEmpty(args))
			if err != nil {
				return err
			}
			values, err := data.load()
			if err != nil {
				return err
			}
			p, err := zpl.ParseSubstitutionPolicy(firstNonEmpty(policy, string(cfg.Compile.Substitution)))
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			bindings := make([]zpl.Binding, len(keys))
			for i, k := range keys {
				bindings[i] = zpl.Binding{Key: k, Value: values[k]}
			}

			out, replacements, err := zpl.Templatize(markup, bindings, p)
			if err != nil {
				return err
			}
			for _, r := range replacements {
				if r.Count == 0 {
					c.Logger.Warn("value not found in program", "key", r.Key, "value", r.Value)
					continue
				}
				c.Logger.Debug("replaced", "key", r.Key, "count", r.Count)
			}
			return writeText(output, out)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&policy, "policy", "", "overlap policy: longest-first, insertion, strict")
	cmd.Flags().StringVar(&data.file, "data", "", "values file (YAML or JSON)")
	cmd.Flags().StringArrayVar(&data.sets, "set", nil, "value as key=value (repeatable)")
	return cmd
}

// fillCommand creates the fill command.
func (c *CLI) fillCommand() *cobra.Command {
	var (
		output string
		data   formDataFlags
	)

	cmd := &cobra.Command{
		Use:   "fill [template.zpl]",
		Short: "Replace {{key}} placeholders with values",
		Long: `Replace {{key}} placeholders with values.

Placeholders without a value are left as they are and reported.`,
		Example: `  zplkit fill shipping.tmpl.zpl --set recipient="John Roe" --set trackingNumber=TRK2`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := readInput(cmd.InOrStdin(), argOrEmpty(args))
			if err != nil {
				return err
			}
			values, err := data.load()
			if err != nil {
				return err
			}
			for _, key := range zpl.Placeholders(tmpl) {
				if _, ok := values[key]; !ok {
					c.Logger.Warn("no value for placeholder", "key", key)
				}
			}
			return writeText(output, zpl.Fill(tmpl, values))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&data.file, "data", "", "values file (YAML or JSON)")
	cmd.Flags().StringArrayVar(&data.sets, "set", nil, "value as key=value (repeatable)")
	return cmd
}

// writeText writes s to output, or stdout when output is empty.
func writeText(output, s string) error {
	if err := export.Write(output, []byte(s)); err != nil {
		return err
	}
	if output != "" && output != "-" {
		printFile(output)
	}
	return nil
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
