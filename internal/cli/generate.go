package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/zplkit/pkg/catalog"
)

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		flags       runFlags
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "generate <template>",
		Short: "Generate ZPL from a catalog template",
		Long: `Generate ZPL from a catalog template and form data.

The template is named "category/template", or by its key alone when that is
unique. Values come from --data, then --set, then the interactive prompts.
Empty optional fields are left off the label; empty required fields print
the template's fallback and are reported as warnings.`,
		Example: `  zplkit generate logistics/shipping --set recipient="Jane Doe" --set trackingNumber=TRK1
  zplkit generate product --data product.yaml -f zpl,variables -o product
  zplkit generate shipping --interactive -f png -o shipping.png`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return c.templateRefs(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := c.runOptions(flags)
			if err != nil {
				return err
			}
			opts.Template = args[0]

			if interactive {
				reg, err := c.registry()
				if err != nil {
					return err
				}
				tmpl, err := reg.Find(args[0])
				if err != nil {
					return err
				}
				printInfo("%s %s", StyleTitle.Render(tmpl.Name), StyleDim.Render(tmpl.ID()))
				if opts.Data, err = c.promptForm(ctx, tmpl, opts.Data); err != nil {
					return err
				}
			}

			return c.execute(ctx, flags, opts, "")
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for each template field")

	return cmd
}

// templateRefs lists "category/template" ids for shell completion.
func (c *CLI) templateRefs() []string {
	reg, err := c.registry()
	if err != nil {
		return nil
	}
	var refs []string
	for _, t := range reg.Templates() {
		refs = append(refs, t.ID())
	}
	return refs
}

// registry returns the configured catalog.
func (c *CLI) registry() (*catalog.Registry, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return loadRegistry(cfg)
}
