package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/store"
)

// docCommand creates the document management command.
func (c *CLI) docCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Create and edit stored label documents",
		Long: `Create and edit stored label documents.

Documents live in the configured store (JSON files by default, or MongoDB).
Element positions and sizes are editor pixels; compile scales them to
printer dots.`,
	}

	cmd.AddCommand(c.docNewCommand())
	cmd.AddCommand(c.docAddCommand())
	cmd.AddCommand(c.docSetCommand())
	cmd.AddCommand(c.docRemoveCommand())
	cmd.AddCommand(c.docShowCommand())
	cmd.AddCommand(c.docListCommand())
	cmd.AddCommand(c.docDeleteCommand())
	cmd.AddCommand(c.docImportCommand())
	cmd.AddCommand(c.docExportCommand())

	return cmd
}

// =============================================================================
// Store helpers
// =============================================================================

// withStore opens the store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// loadDocument loads a stored document by name.
func (c *CLI) loadDocument(ctx context.Context, name string) (*label.Document, error) {
	var doc *label.Document
	err := c.withStore(ctx, func(st store.Store) error {
		var err error
		doc, err = st.Load(ctx, name)
		return err
	})
	return doc, err
}

// editDocument loads name, applies fn and saves the result.
func (c *CLI) editDocument(ctx context.Context, name string, fn func(*label.Document) error) error {
	return c.withStore(ctx, func(st store.Store) error {
		doc, err := st.Load(ctx, name)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		return st.Save(ctx, doc)
	})
}

// =============================================================================
// Element flags
// =============================================================================

type elementFlags struct {
	x, y          int
	width, height int
	content       string
	fontSize      int
	fontVariant   string
}

func (f *elementFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.x, "x", 0, "left edge in editor pixels")
	cmd.Flags().IntVar(&f.y, "y", 0, "top edge in editor pixels")
	cmd.Flags().IntVar(&f.width, "width", 0, "width in editor pixels")
	cmd.Flags().IntVar(&f.height, "height", 0, "height in editor pixels")
	cmd.Flags().StringVar(&f.content, "content", "", "text, barcode or QR payload")
	cmd.Flags().IntVar(&f.fontSize, "font-size", 0, "font size for text elements")
	cmd.Flags().StringVar(&f.fontVariant, "font", "", "font variant, e.g. 0N")
}

// patch returns a patch holding only the flags that were set.
func (f *elementFlags) patch(cmd *cobra.Command) label.Patch {
	var p label.Patch
	changed := cmd.Flags().Changed
	if changed("x") {
		p.X = label.Ptr(f.x)
	}
	if changed("y") {
		p.Y = label.Ptr(f.y)
	}
	if changed("width") {
		p.Width = label.Ptr(f.width)
	}
	if changed("height") {
		p.Height = label.Ptr(f.height)
	}
	if changed("content") {
		p.Content = label.Ptr(f.content)
	}
	if changed("font-size") {
		p.FontSize = label.Ptr(f.fontSize)
	}
	if changed("font") {
		p.FontVariant = label.Ptr(f.fontVariant)
	}
	return p
}

func elementNotFound(doc, id string) error {
	return errors.New(errors.ErrCodeNotFound, "document %s has no element %q", doc, id)
}

// =============================================================================
// Commands
// =============================================================================

func (c *CLI) docNewCommand() *cobra.Command {
	var (
		profile profileFlags
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create an empty document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			if err := errors.ValidateName(name); err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			doc := label.New(profile.profile(cfg.Profile()))
			doc.Name = name
			if err := doc.Profile.Validate(); err != nil {
				return err
			}

			return c.withStore(ctx, func(st store.Store) error {
				if !force {
					if _, err := st.Load(ctx, name); err == nil {
						return errors.New(errors.ErrCodeInvalidInput, "document %s already exists (use --force to replace it)", name)
					} else if !errors.Is(err, errors.ErrCodeDocumentNotFound) {
						return err
					}
				}
				if err := st.Save(ctx, doc); err != nil {
					return err
				}
				printSuccess("Created %s", StyleHighlight.Render(name))
				printDetail("Profile: %s", doc.Profile)
				printNextStep("Add an element", "zplkit doc add "+name+" text --content Hello")
				return nil
			})
		},
	}

	profile.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing document")
	return cmd
}

func (c *CLI) docAddCommand() *cobra.Command {
	var flags elementFlags

	cmd := &cobra.Command{
		Use:       "add <name> <type>",
		Short:     "Append an element (text, barcode, qrcode, box, line)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"text", "barcode", "qrcode", "box", "line"},
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := label.ParseElementType(args[1])
			if err != nil {
				return err
			}
			return c.editDocument(cmd.Context(), args[0], func(doc *label.Document) error {
				e, err := doc.Add(t)
				if err != nil {
					return err
				}
				if p := flags.patch(cmd); !p.IsEmpty() {
					doc.Update(e.ID, p)
				}
				printSuccess("Added %s %s", t, StyleHighlight.Render(e.ID))
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) docSetCommand() *cobra.Command {
	var flags elementFlags

	cmd := &cobra.Command{
		Use:   "set <name> <element-id>",
		Short: "Change element properties",
		Example: `  zplkit doc set shipping 3f2a --x 40 --y 120
  zplkit doc set shipping 3f2a --content "Fragile"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := flags.patch(cmd)
			if p.IsEmpty() {
				return errors.New(errors.ErrCodeInvalidInput, "nothing to change; pass at least one property flag")
			}
			return c.editDocument(cmd.Context(), args[0], func(doc *label.Document) error {
				if !doc.Update(args[1], p) {
					return elementNotFound(args[0], args[1])
				}
				printSuccess("Updated %s", StyleHighlight.Render(args[1]))
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) docRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name> <element-id>",
		Short: "Remove an element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editDocument(cmd.Context(), args[0], func(doc *label.Document) error {
				if !doc.Remove(args[1]) {
					return elementNotFound(args[0], args[1])
				}
				printSuccess("Removed %s", StyleHighlight.Render(args[1]))
				return nil
			})
		},
	}
}

func (c *CLI) docShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := c.loadDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return label.WriteJSON(cmd.OutOrStdout(), doc)
			}
			fmt.Println(StyleTitle.Render(doc.Name) + " " + StyleDim.Render(doc.Profile.String()))
			for _, e := range doc.List() {
				printKeyValue(e.ID, describeElement(e))
			}
			if doc.Len() == 0 {
				printDetail("No elements")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the document as JSON")
	return cmd
}

func describeElement(e label.Element) string {
	geometry := fmt.Sprintf("%s at %d,%d %dx%d", e.Type, e.X, e.Y, e.Width, e.Height)
	if !e.Type.HasContent() {
		return geometry
	}
	return geometry + StyleDim.Render(fmt.Sprintf(" %q", e.Content))
}

func (c *CLI) docListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				summaries, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(summaries) == 0 {
					printInfo("No documents")
					printNextStep("Create one", "zplkit doc new <name>")
					return nil
				}
				for _, s := range summaries {
					printKeyValue(s.Name, fmt.Sprintf("%s · %d elements · %s",
						s.Profile, s.Elements, s.UpdatedAt.Local().Format("Jan 2 15:04")))
				}
				return nil
			})
		},
	}
}

func (c *CLI) docDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				if err := st.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Deleted %s", args[0])
				return nil
			})
		},
	}
}

func (c *CLI) docImportCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Store a document from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := label.ImportJSON(args[0])
			if err != nil {
				return err
			}
			switch {
			case name != "":
				doc.Name = name
			case doc.Name == "":
				base := filepath.Base(args[0])
				doc.Name = strings.TrimSuffix(base, filepath.Ext(base))
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				if err := st.Save(cmd.Context(), doc); err != nil {
					return err
				}
				printSuccess("Imported %s (%d elements)", StyleHighlight.Render(doc.Name), doc.Len())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "store under this name (default: the document's name or the file name)")
	return cmd
}

func (c *CLI) docExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a stored document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := c.loadDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return label.WriteJSON(os.Stdout, doc)
			}
			if err := label.ExportJSON(output, doc); err != nil {
				return err
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
