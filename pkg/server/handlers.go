package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/zplkit/pkg/buildinfo"
	"github.com/matzehuels/zplkit/pkg/catalog"
	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/export"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/pipeline"
	"github.com/matzehuels/zplkit/pkg/preview"
	"github.com/matzehuels/zplkit/pkg/store"
	"github.com/matzehuels/zplkit/pkg/zpl"
)

// =============================================================================
// Catalog
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

type templatesResponse struct {
	Categories []catalog.Category `json:"categories"`
	Samples    []catalog.Sample   `json:"samples"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	reg, err := s.registry()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templatesResponse{Categories: reg.Categories(), Samples: reg.Samples()})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	reg, err := s.registry()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tmpl, err := reg.Lookup(chi.URLParam(r, "category"), chi.URLParam(r, "template"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

type generateRequest struct {
	Data         catalog.FormData       `json:"data"`
	Escape       zpl.EscapePolicy       `json:"escape,omitempty"`
	Variables    bool                   `json:"variables,omitempty"`
	Substitution zpl.SubstitutionPolicy `json:"substitution,omitempty"`
}

type generateResponse struct {
	Template     string            `json:"template"`
	Markup       string            `json:"markup"`
	Issues       []catalog.Issue   `json:"issues"`
	Variables    string            `json:"variables,omitempty"`
	Replacements []zpl.Replacement `json:"replacements,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	formats := []string{export.FormatZPL}
	if req.Variables {
		formats = append(formats, export.FormatVariables)
	}
	res, err := s.runner.Execute(r.Context(), pipeline.Options{
		Template:     chi.URLParam(r, "category") + "/" + chi.URLParam(r, "template"),
		Data:         req.Data,
		Escape:       orDefault(req.Escape, s.defaults.Escape),
		Substitution: orDefault(req.Substitution, s.defaults.Substitution),
		Formats:      formats,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := generateResponse{
		Template:     res.Source,
		Markup:       res.Markup,
		Issues:       res.Issues,
		Variables:    string(res.Artifacts[export.FormatVariables]),
		Replacements: res.Replacements,
	}
	if resp.Issues == nil {
		resp.Issues = []catalog.Issue{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Compiler passes
// =============================================================================

type compileResponse struct {
	Markup    string `json:"markup"`
	Fragments int    `json:"fragments"`
}

// handleCompile takes a document body. Query parameters: optimize=1,
// comments=1, escape=<policy>.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var doc label.Document
	if err := s.decode(w, r, &doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	format := export.FormatZPL
	if truthy(q.Get("optimize")) {
		format = export.FormatOptimized
	}
	res, err := s.runner.Execute(r.Context(), pipeline.Options{
		Document: &doc,
		Escape:   orDefault(zpl.EscapePolicy(q.Get("escape")), s.defaults.Escape),
		Scale:    s.defaults.Scale,
		Comments: truthy(q.Get("comments")),
		Formats:  []string{format},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, compileResponse{
		Markup:    string(res.Artifacts[format]),
		Fragments: res.Stats.Fragments,
	})
}

type markupRequest struct {
	Markup string `json:"markup"`
}

type optimizeResponse struct {
	Markup string            `json:"markup"`
	Stats  zpl.OptimizeStats `json:"stats"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req markupRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, stats := zpl.OptimizeWithStats(req.Markup)
	writeJSON(w, http.StatusOK, optimizeResponse{Markup: out, Stats: stats})
}

type templatizeRequest struct {
	Markup   string                 `json:"markup"`
	Bindings []zpl.Binding          `json:"bindings"`
	Policy   zpl.SubstitutionPolicy `json:"policy,omitempty"`
}

type templatizeResponse struct {
	Template     string            `json:"template"`
	Replacements []zpl.Replacement `json:"replacements"`
}

func (s *Server) handleTemplatize(w http.ResponseWriter, r *http.Request) {
	var req templatizeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	policy, err := zpl.ParseSubstitutionPolicy(string(orDefault(req.Policy, s.defaults.Substitution)))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, reps, err := zpl.Templatize(req.Markup, req.Bindings, policy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templatizeResponse{Template: out, Replacements: reps})
}

type fillRequest struct {
	Template string            `json:"template"`
	Data     map[string]string `json:"data"`
}

type fillResponse struct {
	Markup     string   `json:"markup"`
	Unresolved []string `json:"unresolved"`
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	var req fillRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out := zpl.Fill(req.Template, req.Data)
	unresolved := zpl.Placeholders(out)
	if unresolved == nil {
		unresolved = []string{}
	}
	writeJSON(w, http.StatusOK, fillResponse{Markup: out, Unresolved: unresolved})
}

// =============================================================================
// Preview
// =============================================================================

type previewRequest struct {
	Markup  string        `json:"markup"`
	Profile label.Profile `json:"profile,omitzero"`
	Refresh bool          `json:"refresh,omitempty"`
}

// handlePreview renders markup to PNG. Requests sharing an X-Session-ID go
// through one slot: a newer request cancels the older one, which gets 409.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Markup == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "markup is required"))
		return
	}
	profile := req.Profile
	if profile.Resolution == "" {
		profile.Resolution = s.defaults.Profile.Resolution
	}
	if profile.Size == "" {
		profile.Size = s.defaults.Profile.Size
	}

	var (
		png []byte
		hit bool
		err error
	)
	opts := pipeline.Options{Profile: profile, Refresh: req.Refresh}
	if session := r.Header.Get(SessionHeader); session != "" {
		var slot *preview.Slot
		slot, err = s.slots.get(session, preview.RendererFunc(s.runner.RenderPreview))
		if err == nil {
			err = slot.Do(r.Context(), func(ctx context.Context) error {
				var err error
				png, hit, err = s.runner.PreviewWithCacheInfo(ctx, req.Markup, opts)
				return err
			})
		}
	} else {
		png, hit, err = s.runner.PreviewWithCacheInfo(r.Context(), req.Markup, opts)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(hit))
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// =============================================================================
// Documents
// =============================================================================

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	var doc label.Document
	if err := s.decode(w, r, &doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc.Name = chi.URLParam(r, "name")
	if err := s.store.Save(r.Context(), &doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

func orDefault[T ~string](v, def T) T {
	if v == "" {
		return def
	}
	return v
}

func truthy(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
