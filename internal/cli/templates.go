package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zplkit/pkg/catalog"
)

// templatesCommand creates the templates command.
func (c *CLI) templatesCommand() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "templates [template]",
		Short: "List catalog templates, or show one template's fields",
		Example: `  zplkit templates
  zplkit templates logistics/shipping
  zplkit templates --pick`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}

			switch {
			case pick:
				chosen, err := pickTemplate(reg.Templates())
				if err != nil {
					return err
				}
				if chosen == nil {
					return nil
				}
				printTemplate(*chosen)
			case len(args) == 1:
				tmpl, err := reg.Find(args[0])
				if err != nil {
					return err
				}
				printTemplate(tmpl)
			default:
				printCategories(reg.Categories())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "choose a template interactively")
	return cmd
}

func printCategories(categories []catalog.Category) {
	for i, cat := range categories {
		if i > 0 {
			printNewline()
		}
		fmt.Println(StyleTitle.Render(cat.Name) + " " + StyleDim.Render(cat.Key))
		for _, t := range cat.Templates {
			printKeyValue("  "+t.Key, t.Name)
			printDetail("  %s", fieldSummary(t))
		}
	}
	printNewline()
	printNextStep("Generate a label", "zplkit generate <category/template> --set key=value")
}

func printTemplate(t catalog.Template) {
	fmt.Println(StyleTitle.Render(t.Name) + " " + StyleDim.Render(t.ID()))
	for _, f := range t.Fields {
		required := ""
		if f.Required {
			required = StyleWarning.Render(" required")
		}
		printKeyValue(f.Key, f.Label+StyleDim.Render(" ("+string(f.Kind)+")")+required)
	}
	printNewline()
	printNextStep("Generate", "zplkit generate "+t.ID()+" --interactive")
}

// samplesCommand creates the samples command.
func (c *CLI) samplesCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "samples [sample]",
		Short: "List sample programs, or print one",
		Example: `  zplkit samples
  zplkit samples qrcode -o qrcode.zpl`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				for _, s := range reg.Samples() {
					printKeyValue(s.Key, s.Name)
				}
				return nil
			}
			s, err := reg.Sample(args[0])
			if err != nil {
				return err
			}
			return writeText(output, s.Code)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
