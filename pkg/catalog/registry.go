package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/zplkit/pkg/errors"
)

//go:embed data/*
var dataFS embed.FS

// Embedded returns the filesystem holding the built-in catalog files.
func Embedded() fs.FS {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

var loadDefault = sync.OnceValues(func() (*Registry, error) {
	return LoadFS(Embedded())
})

// Default returns the built-in registry. It is loaded once and shared, so
// callers must not modify it.
func Default() (*Registry, error) {
	return loadDefault()
}

// Registry indexes categories, templates and samples.
type Registry struct {
	categories []Category
	samples    []Sample
}

type catalogFile struct {
	Categories []Category `json:"categories" yaml:"categories" toml:"categories"`
	Samples    []Sample   `json:"samples" yaml:"samples" toml:"samples"`
}

// LoadFS walks fsys and loads every .yaml, .yml, .toml and .json file.
func LoadFS(fsys fs.FS) (*Registry, error) {
	return Load(fsys)
}

// Load merges the catalogs found in each filesystem, in order. A category
// key seen again extends the category; a repeated template, field or sample
// key is an error.
func Load(fss ...fs.FS) (*Registry, error) {
	r := &Registry{}
	for _, fsys := range fss {
		if fsys == nil {
			continue
		}
		err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() || !isCatalogFile(path) {
				return nil
			}
			data, err := fs.ReadFile(fsys, path)
			if err != nil {
				return fmt.Errorf("catalog: read %s: %w", path, err)
			}
			file, err := parseFile(data, path)
			if err != nil {
				return err
			}
			return r.merge(file, path)
		})
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml", ".json":
		return true
	}
	return false
}

func parseFile(data []byte, path string) (catalogFile, error) {
	var file catalogFile
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &file)
	case ".json":
		err = json.Unmarshal(data, &file)
	default:
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return catalogFile{}, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "catalog: parse %s", path)
	}
	return file, nil
}

func (r *Registry) merge(file catalogFile, source string) error {
	for _, c := range file.Categories {
		if err := errors.ValidateKey(c.Key); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidTemplate, err, "catalog: %s: category", source)
		}
		idx := slices.IndexFunc(r.categories, func(have Category) bool { return have.Key == c.Key })
		if idx < 0 {
			r.categories = append(r.categories, Category{Key: c.Key, Name: c.Name})
			idx = len(r.categories) - 1
		}
		cat := &r.categories[idx]
		if cat.Name == "" {
			cat.Name = c.Name
		}
		for _, t := range c.Templates {
			t.Category = c.Key
			if err := normalizeTemplate(&t); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidTemplate, err, "catalog: %s: template %s", source, t.ID())
			}
			if slices.ContainsFunc(cat.Templates, func(have Template) bool { return have.Key == t.Key }) {
				return errors.New(errors.ErrCodeInvalidTemplate, "catalog: %s: duplicate template %s", source, t.ID())
			}
			cat.Templates = append(cat.Templates, t)
		}
	}
	for _, s := range file.Samples {
		if s.Key == "" {
			return errors.New(errors.ErrCodeInvalidTemplate, "catalog: %s: sample without key", source)
		}
		if slices.ContainsFunc(r.samples, func(have Sample) bool { return have.Key == s.Key }) {
			return errors.New(errors.ErrCodeInvalidTemplate, "catalog: %s: duplicate sample %q", source, s.Key)
		}
		r.samples = append(r.samples, s)
	}
	return nil
}

func normalizeTemplate(t *Template) error {
	if err := errors.ValidateKey(t.Key); err != nil {
		return err
	}
	if t.Name == "" {
		t.Name = t.Key
	}
	seen := make(map[string]bool, len(t.Fields))
	for i := range t.Fields {
		f := &t.Fields[i]
		if err := errors.ValidateKey(f.Key); err != nil {
			return err
		}
		if seen[f.Key] {
			return fmt.Errorf("duplicate field %q", f.Key)
		}
		seen[f.Key] = true
		if f.Kind == "" {
			f.Kind = KindText
		}
		if !f.Kind.Valid() {
			return fmt.Errorf("field %q: unknown kind %q", f.Key, f.Kind)
		}
		if f.Label == "" {
			f.Label = f.Key
		}
	}
	for i := range t.Layout {
		b := &t.Layout[i]
		switch {
		case b.Field != "" && b.Text != "":
			return fmt.Errorf("block %d: set either field or text, not both", i)
		case b.Field == "" && b.Text == "":
			return fmt.Errorf("block %d: empty block", i)
		case b.Static():
			if b.Kind == "" {
				b.Kind = KindText
			}
		default:
			f, ok := t.Field(b.Field)
			if !ok {
				return fmt.Errorf("block %d: unknown field %q", i, b.Field)
			}
			if b.Kind == "" {
				b.Kind = f.Kind
			}
		}
		if !b.Kind.Valid() {
			return fmt.Errorf("block %d: unknown kind %q", i, b.Kind)
		}
		if b.X < 0 || b.Y < 0 || b.FontSize < 0 || b.Height < 0 {
			return fmt.Errorf("block %d: negative geometry", i)
		}
	}
	return nil
}

// =============================================================================
// Queries
// =============================================================================

// Categories returns the categories in load order.
func (r *Registry) Categories() []Category {
	return slices.Clone(r.categories)
}

// Templates returns every template in load order.
func (r *Registry) Templates() []Template {
	var out []Template
	for _, c := range r.categories {
		out = append(out, c.Templates...)
	}
	return out
}

// Samples returns the sample programs in load order.
func (r *Registry) Samples() []Sample {
	return slices.Clone(r.samples)
}

// Sample returns the sample with the given key.
func (r *Registry) Sample(key string) (Sample, error) {
	for _, s := range r.samples {
		if s.Key == key {
			return s, nil
		}
	}
	return Sample{}, errors.New(errors.ErrCodeTemplateNotFound, "sample not found: %s", key)
}

// Lookup returns a template by category and template key.
func (r *Registry) Lookup(category, template string) (Template, error) {
	for _, c := range r.categories {
		if c.Key != category {
			continue
		}
		for _, t := range c.Templates {
			if t.Key == template {
				return t, nil
			}
		}
	}
	return Template{}, errors.New(errors.ErrCodeTemplateNotFound, "template not found: %s/%s", category, template)
}

// Find resolves a template from "category/template" or from a template key
// that is unique across categories.
func (r *Registry) Find(ref string) (Template, error) {
	if category, template, ok := strings.Cut(ref, "/"); ok {
		return r.Lookup(category, template)
	}
	var matches []Template
	for _, c := range r.categories {
		for _, t := range c.Templates {
			if t.Key == ref {
				matches = append(matches, t)
			}
		}
	}
	switch len(matches) {
	case 0:
		return Template{}, errors.New(errors.ErrCodeTemplateNotFound, "template not found: %s", ref)
	case 1:
		return matches[0], nil
	}
	ids := make([]string, len(matches))
	for i, t := range matches {
		ids[i] = t.ID()
	}
	return Template{}, errors.New(errors.ErrCodeInvalidInput,
		"template %q is ambiguous (%s); use category/template", ref, strings.Join(ids, ", "))
}

func sortedKeys(m FormData) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
