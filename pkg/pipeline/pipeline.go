// Package pipeline provides the compile pipeline shared by the CLI and the
// HTTP API.
//
// A run takes one source (a label document, a catalog template with form
// data, or an existing program), compiles it to ZPL and renders the
// requested export formats:
//
//  1. Compile: document or template → fragment list → program text
//  2. Render: program text → zpl, optimized, variables, js
//  3. Preview: program text → PNG through the preview service, cached
//
// # Usage
//
//	runner := pipeline.NewRunner(registry, previewClient, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Template: "logistics/shipping",
//	    Data:     catalog.FormData{"recipient": "Jane Doe", "trackingNumber": "TRK1"},
//	    Formats:  []string{"zpl", "png"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/zplkit/pkg/cache"
	"github.com/matzehuels/zplkit/pkg/catalog"
	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/export"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/zpl"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultFormat is rendered when no format is requested.
	DefaultFormat = export.FormatZPL

	// DefaultEscape is the field data escape policy.
	DefaultEscape = zpl.EscapeHex

	// DefaultSubstitution is the templatizer policy.
	DefaultSubstitution = zpl.SubstituteLongestFirst
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	export.FormatZPL:       true,
	export.FormatOptimized: true,
	export.FormatVariables: true,
	export.FormatJS:        true,
	export.FormatPNG:       true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. Exactly one of Document, Template or
// Markup is set.
type Options struct {
	// Sources
	Document *label.Document `json:"document,omitempty"`
	Template string          `json:"template,omitempty"` // "category/template" or a unique template key
	Markup   string          `json:"markup,omitempty"`   // an existing program

	// Data fills the template. For the variables format it also supplies
	// the values to replace when the source is not a template.
	Data catalog.FormData `json:"data,omitempty"`

	// Compile options
	Escape   zpl.EscapePolicy `json:"escape,omitempty"`
	Scale    float64          `json:"scale,omitempty"`
	Comments bool             `json:"comments,omitempty"`

	// Render options
	Formats      []string               `json:"formats,omitempty"`
	Substitution zpl.SubstitutionPolicy `json:"substitution,omitempty"`
	Profile      label.Profile          `json:"profile,omitzero"`
	Refresh      bool                   `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Source describes what was compiled, e.g. "template:logistics/shipping".
	Source string

	// Markup is the generated program.
	Markup string

	// Program is the fragment list behind Markup. It is empty for markup
	// sources.
	Program zpl.Program

	// Issues flags form data problems for template sources. They never fail
	// the run.
	Issues []catalog.Issue

	// Replacements reports what the variables format substituted.
	Replacements []zpl.Replacement

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Elements    int
	Fragments   int
	Bytes       int
	Optimize    zpl.OptimizeStats
	CompileTime time.Duration
	RenderTime  time.Duration
	PreviewTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	PreviewHit bool // Whether the PNG came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: zpl, optimized, variables, js, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the source and applies defaults for the full
// pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForCompile(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForCompile checks that exactly one source is set and applies
// compile defaults.
func (o *Options) ValidateForCompile() error {
	sources := 0
	for _, set := range []bool{o.Document != nil, o.Template != "", o.Markup != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "exactly one of document, template or markup is required")
	}
	if o.Escape == "" {
		o.Escape = DefaultEscape
	}
	if _, err := zpl.ParseEscapePolicy(string(o.Escape)); err != nil {
		return err
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must not be negative")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Substitution == "" {
		o.Substitution = DefaultSubstitution
	}
	o.Profile = o.Profile.WithDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if _, err := zpl.ParseSubstitutionPolicy(string(o.Substitution)); err != nil {
		return err
	}
	return o.Profile.Validate()
}

// Wants reports whether format was requested.
func (o *Options) Wants(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// CompileOptions returns the emitter options.
func (o *Options) CompileOptions() []zpl.Option {
	opts := []zpl.Option{zpl.WithEscape(o.Escape)}
	if o.Scale > 0 {
		opts = append(opts, zpl.WithMapper(zpl.Mapper{Scale: o.Scale}))
	}
	if o.Comments {
		opts = append(opts, zpl.WithComments())
	}
	return opts
}

// PreviewKeyOpts returns cache key options for the preview image.
func (o *Options) PreviewKeyOpts() cache.PreviewKeyOpts {
	return cache.PreviewKeyOpts{
		Resolution: string(o.Profile.Resolution),
		Size:       string(o.Profile.Size),
	}
}
