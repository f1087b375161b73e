package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/zplkit/pkg/cache"
	"github.com/matzehuels/zplkit/pkg/catalog"
	"github.com/matzehuels/zplkit/pkg/export"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/observability"
	"github.com/matzehuels/zplkit/pkg/preview"
	"github.com/matzehuels/zplkit/pkg/recipe"
	"github.com/matzehuels/zplkit/pkg/zpl"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating compile and caching logic.
//
// The Runner is stateless except for its collaborators; multiple goroutines
// can safely use the same Runner with different options.
type Runner struct {
	Registry *catalog.Registry
	Preview  preview.Renderer
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
}

// NewRunner creates a runner. Nil arguments fall back to the embedded
// catalog, the public preview service, a NullCache, the DefaultKeyer and
// the default logger.
func NewRunner(reg *catalog.Registry, renderer preview.Renderer, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if reg == nil {
		if def, err := catalog.Default(); err == nil {
			reg = def
		}
	}
	if renderer == nil {
		renderer = preview.NewClient()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Registry: reg,
		Preview:  renderer,
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
	}
}

// Execute compiles the source and renders every requested format.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger

	// Stage 1: Compile
	result, err := r.Compile(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	logger.Info("compiled label",
		"source", result.Source,
		"fragments", result.Stats.Fragments,
		"bytes", result.Stats.Bytes,
		"duration", result.Stats.CompileTime)
	for _, issue := range result.Issues {
		logger.Warn(issue.String())
	}

	// Stage 2: Text formats
	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, opts.Formats)
	renderStart := time.Now()
	if err := r.renderText(result, opts); err != nil {
		hooks.OnExportComplete(ctx, opts.Formats, time.Since(renderStart), err)
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Stats.RenderTime = time.Since(renderStart)
	hooks.OnExportComplete(ctx, opts.Formats, result.Stats.RenderTime, nil)

	// Stage 3: Preview
	if opts.Wants(export.FormatPNG) {
		previewStart := time.Now()
		png, hit, err := r.PreviewWithCacheInfo(ctx, result.Markup, opts)
		if err != nil {
			return nil, fmt.Errorf("preview: %w", err)
		}
		result.Artifacts[export.FormatPNG] = png
		result.Stats.PreviewTime = time.Since(previewStart)
		result.CacheInfo.PreviewHit = hit

		logger.Info("rendered preview",
			"profile", opts.Profile.String(),
			"bytes", len(png),
			"cached", hit,
			"duration", result.Stats.PreviewTime)
	}

	return result, nil
}

// Compile runs only the compile stage. The returned result carries the
// markup but no artifacts.
func (r *Runner) Compile(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForCompile(); err != nil {
		return nil, err
	}

	result := &Result{Artifacts: make(map[string][]byte)}
	start := time.Now()

	var (
		prog     zpl.Program
		err      error
		elements int
	)
	switch {
	case opts.Document != nil:
		result.Source = "document:" + documentName(opts.Document)
		elements = opts.Document.Len()
		observability.Pipeline().OnCompileStart(ctx, result.Source, elements)
		prog, err = zpl.Compile(opts.Document, opts.CompileOptions()...)
	case opts.Template != "":
		var tmpl catalog.Template
		tmpl, err = r.template(opts.Template)
		if err != nil {
			return nil, err
		}
		result.Source = "template:" + tmpl.ID()
		elements = len(tmpl.Layout)
		observability.Pipeline().OnCompileStart(ctx, result.Source, elements)
		result.Issues = tmpl.Check(opts.Data)
		prog, err = recipe.Generate(tmpl, opts.Data, recipe.WithEscape(opts.Escape))
	default:
		result.Source = "markup"
		observability.Pipeline().OnCompileStart(ctx, result.Source, 0)
		result.Markup = opts.Markup
	}

	if err != nil {
		observability.Pipeline().OnCompileComplete(ctx, result.Source, 0, time.Since(start), err)
		return nil, err
	}
	if result.Markup == "" {
		result.Program = prog
		result.Markup = prog.String()
	}

	result.Stats.Elements = elements
	result.Stats.Fragments = len(prog.Fragments)
	result.Stats.Bytes = len(result.Markup)
	result.Stats.CompileTime = time.Since(start)
	observability.Pipeline().OnCompileComplete(ctx, result.Source, result.Stats.Fragments, result.Stats.CompileTime, nil)
	return result, nil
}

// renderText fills the text artifacts of result.
func (r *Runner) renderText(result *Result, opts Options) error {
	for _, format := range opts.Formats {
		switch format {
		case export.FormatZPL:
			result.Artifacts[format] = []byte(result.Markup)
		case export.FormatOptimized:
			optimized, stats := zpl.OptimizeWithStats(result.Markup)
			result.Artifacts[format] = []byte(optimized)
			result.Stats.Optimize = stats
		case export.FormatVariables:
			bindings, err := r.bindings(opts)
			if err != nil {
				return err
			}
			if opts.Markup == "" {
				// Compiled values may have been escaped; match them as emitted.
				for i := range bindings {
					bindings[i].Value = zpl.FieldValue(opts.Escape, bindings[i].Value)
				}
			}
			tmpl, replacements, err := zpl.Templatize(result.Markup, bindings, opts.Substitution)
			if err != nil {
				return err
			}
			result.Artifacts[format] = []byte(tmpl)
			result.Replacements = replacements
		case export.FormatJS:
			result.Artifacts[format] = []byte(export.JavaScript(result.Markup))
		}
	}
	return nil
}

// bindings orders the form data for templatizing: schema order for
// template sources, sorted keys otherwise.
func (r *Runner) bindings(opts Options) ([]zpl.Binding, error) {
	if opts.Template != "" {
		tmpl, err := r.template(opts.Template)
		if err != nil {
			return nil, err
		}
		return tmpl.Bindings(opts.Data), nil
	}
	keys := make([]string, 0, len(opts.Data))
	for k := range opts.Data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]zpl.Binding, len(keys))
	for i, k := range keys {
		out[i] = zpl.Binding{Key: k, Value: opts.Data[k]}
	}
	return out, nil
}

func (r *Runner) template(ref string) (catalog.Template, error) {
	reg := r.Registry
	if reg == nil {
		def, err := catalog.Default()
		if err != nil {
			return catalog.Template{}, err
		}
		reg = def
	}
	return reg.Find(ref)
}

// PreviewWithCacheInfo renders markup to PNG with caching and returns cache
// hit info. The preview service is called at most once; failures are not
// cached.
func (r *Runner) PreviewWithCacheInfo(ctx context.Context, markup string, opts Options) ([]byte, bool, error) {
	r.applyLogger(&opts)
	opts.SetRenderDefaults()
	if err := opts.Profile.Validate(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.PreviewKey(cache.HashString(markup), opts.PreviewKeyOpts())
	cacheHooks := observability.Cache()

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cacheHooks.OnCacheHit(ctx, "preview")
			return data, true, nil
		} else if err != nil {
			opts.Logger.Debug("preview cache read failed", "err", err)
		}
		cacheHooks.OnCacheMiss(ctx, "preview")
	}

	profile := opts.Profile.String()
	hooks := observability.Pipeline()
	hooks.OnPreviewStart(ctx, profile)
	start := time.Now()

	png, err := r.Preview.Render(ctx, markup, opts.Profile)
	hooks.OnPreviewComplete(ctx, profile, len(png), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, png, cache.TTLPreview); err != nil {
		opts.Logger.Debug("preview cache write failed", "err", err)
	} else {
		cacheHooks.OnCacheSet(ctx, "preview", len(png))
	}
	return png, false, nil
}

// RenderPreview is a convenience wrapper that calls PreviewWithCacheInfo
// and discards the cache hit info.
func (r *Runner) RenderPreview(ctx context.Context, markup string, profile label.Profile) ([]byte, error) {
	png, _, err := r.PreviewWithCacheInfo(ctx, markup, Options{Profile: profile})
	return png, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set. Run
// logging goes through opts.Logger, so callers can redirect one run.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func documentName(doc *label.Document) string {
	if doc.Name == "" {
		return "untitled"
	}
	return doc.Name
}
