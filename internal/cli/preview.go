package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/export"
	"github.com/matzehuels/zplkit/pkg/pipeline"
)

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		output  string
		profile profileFlags
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "preview [program.zpl|document.json]",
		Short: "Render a ZPL program to PNG",
		Long: `Render a ZPL program to PNG through the preview service.

A .json argument is compiled as a label document first. Images are cached by
program and profile; --refresh renders again and replaces the cached image.
The preview service is called at most once per run and is never retried.`,
		Example: `  zplkit preview label.zpl -o label.png
  zplkit preview label.json --resolution 12dpmm --size 3x2 -o label.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input := argOrEmpty(args)
			if output == "" {
				if input == "" || input == "-" {
					return errors.New(errors.ErrCodeInvalidInput, "--output is required when reading stdin")
				}
				output = export.BasePath("", input) + export.Extension(export.FormatPNG)
			}

			cfg, err := c.config()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := pipeline.Options{Profile: profile.profile(cfg.Profile()), Refresh: refresh}
			var markup string
			if strings.EqualFold(filepath.Ext(input), ".json") {
				doc, err := readDocument(cmd.InOrStdin(), input)
				if err != nil {
					return err
				}
				compiled, err := runner.Compile(ctx, pipeline.Options{
					Document: doc,
					Escape:   cfg.Compile.Escape,
					Scale:    cfg.Compile.Scale,
				})
				if err != nil {
					return err
				}
				markup = compiled.Markup
				opts.Profile = profile.profile(doc.Profile.WithDefaults())
			} else if markup, err = readInput(cmd.InOrStdin(), input); err != nil {
				return err
			}

			p := newProgress(c.Logger)
			spinner := newSpinnerWithContext(ctx, "Rendering "+opts.Profile.String()+" preview...")
			spinner.Start()
			png, hit, err := runner.PreviewWithCacheInfo(ctx, markup, opts)
			spinner.Stop()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			p.done("Rendered preview")

			if err := export.Write(output, png); err != nil {
				return err
			}
			printSuccess("Preview saved")
			printFile(output)
			printStats(0, len(png), &hit)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output PNG file (default <input>.png)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the preview cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "render again even when cached")
	profile.register(cmd)

	return cmd
}
