package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/export"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/pipeline"
	"github.com/matzehuels/zplkit/pkg/zpl"
)

// runFlags are shared by compile and generate.
type runFlags struct {
	formats      []string
	output       string
	escape       string
	substitution string
	noCache      bool
	refresh      bool
	profile      profileFlags
	data         formDataFlags
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.formats, "format", "f", nil, "output formats: zpl, optimized, variables, js, png (comma-separated)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file, or base path for several formats (default stdout)")
	cmd.Flags().StringVar(&f.escape, "escape", "", "field data escape policy: hex, strip, reject, none")
	cmd.Flags().StringVar(&f.substitution, "substitution", "", "variables policy: longest-first, insertion, strict")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the preview cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "re-render the preview even when cached")
	cmd.Flags().StringVar(&f.data.file, "data", "", "form data file (YAML or JSON)")
	cmd.Flags().StringArrayVar(&f.data.sets, "set", nil, "form value as key=value (repeatable)")
	f.profile.register(cmd)
}

// runOptions fills the shared pipeline options from flags and config.
func (c *CLI) runOptions(f runFlags) (pipeline.Options, error) {
	cfg, err := c.config()
	if err != nil {
		return pipeline.Options{}, err
	}
	data, err := f.data.load()
	if err != nil {
		return pipeline.Options{}, err
	}
	escape, err := zpl.ParseEscapePolicy(firstNonEmpty(f.escape, string(cfg.Compile.Escape)))
	if err != nil {
		return pipeline.Options{}, err
	}
	substitution, err := zpl.ParseSubstitutionPolicy(firstNonEmpty(f.substitution, string(cfg.Compile.Substitution)))
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Data:         data,
		Escape:       escape,
		Scale:        cfg.Compile.Scale,
		Formats:      parseFormats(f.formats),
		Substitution: substitution,
		Profile:      f.profile.profile(cfg.Profile()),
		Refresh:      f.refresh,
		Logger:       c.Logger,
	}, nil
}

// execute runs the pipeline and writes the artifacts.
func (c *CLI) execute(ctx context.Context, f runFlags, opts pipeline.Options, input string) error {
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}

	stdout, err := writeArtifacts(result, opts.Formats, f.output, input)
	if err != nil {
		return err
	}
	if stdout {
		return nil
	}

	printIssues(result.Issues)
	var cached *bool
	if opts.Wants(export.FormatPNG) {
		cached = &result.CacheInfo.PreviewHit
	}
	printStats(result.Stats.Fragments, result.Stats.Bytes, cached)
	return nil
}

// compileCommand creates the compile command.
func (c *CLI) compileCommand() *cobra.Command {
	var (
		flags    runFlags
		docName  string
		comments bool
	)

	cmd := &cobra.Command{
		Use:   "compile [document.json]",
		Short: "Compile a label document to ZPL",
		Long: `Compile a label document to ZPL.

The document is read from a JSON file, from stdin, or from the document
store with --doc. Elements are emitted in paint order; editor pixels are
scaled to printer dots.`,
		Example: `  zplkit compile label.json
  zplkit compile label.json -f zpl,optimized,png -o out/label
  zplkit compile --doc shipping -f js`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var input string
			if len(args) == 1 {
				input = args[0]
			}

			var (
				doc *label.Document
				err error
			)
			switch {
			case docName != "" && input != "":
				return errors.New(errors.ErrCodeInvalidInput, "use either a file or --doc, not both")
			case docName != "":
				doc, err = c.loadDocument(ctx, docName)
				input = docName
			default:
				doc, err = readDocument(cmd.InOrStdin(), input)
			}
			if err != nil {
				return err
			}

			opts, err := c.runOptions(flags)
			if err != nil {
				return err
			}
			opts.Document = doc
			opts.Comments = comments
			opts.Profile = flags.profile.profile(doc.Profile.WithDefaults())
			return c.execute(ctx, flags, opts, input)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&docName, "doc", "", "compile a stored document by name")
	cmd.Flags().BoolVar(&comments, "comments", false, "emit a ^FX comment before each element")

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
