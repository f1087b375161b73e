package pipeline

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/zplkit/pkg/cache"
	"github.com/matzehuels/zplkit/pkg/catalog"
	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/preview"
)

// fakeRenderer counts calls and echoes a fixed payload.
type fakeRenderer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, markup string, p label.Profile) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("PNG:" + p.String() + ":" + markup[:3]), nil
}

func newTestRunner(t *testing.T, r preview.Renderer) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	reg, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(reg, r, c, nil, nil)
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"zpl", false},
		{"optimized", false},
		{"variables", false},
		{"js", false},
		{"png", false},
		{"svg", true},
		{"ZPL", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Markup: "^XA^XZ"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.Escape != DefaultEscape || opts.Substitution != DefaultSubstitution {
		t.Errorf("policies = %q, %q", opts.Escape, opts.Substitution)
	}
	if opts.Profile != label.DefaultProfile() {
		t.Errorf("Profile = %v", opts.Profile)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Markup: "^XA^XZ", Formats: []string{"zpl", "js"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	first := opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != len(first.Formats) || opts.Escape != first.Escape {
		t.Error("second call changed options")
	}
}

func TestOptionsSourceErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no source", Options{}, errors.ErrCodeInvalidInput},
		{"two sources", Options{Markup: "^XA^XZ", Template: "shipping"}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Markup: "^XA^XZ", Formats: []string{"pdf"}}, errors.ErrCodeInvalidFormat},
		{"bad escape", Options{Markup: "^XA^XZ", Escape: "base64"}, errors.ErrCodeInvalidInput},
		{"bad profile", Options{Markup: "^XA^XZ", Profile: label.Profile{Size: "9x9"}}, errors.ErrCodeInvalidProfile},
		{"negative scale", Options{Markup: "^XA^XZ", Scale: -1}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestExecuteDocument(t *testing.T) {
	doc := label.New(label.DefaultProfile())
	doc.Name = "box"
	box, _ := doc.Add(label.TypeBox)
	doc.Update(box.ID, label.Patch{X: label.Ptr(10), Y: label.Ptr(10), Width: label.Ptr(200), Height: label.Ptr(2)})

	r := newTestRunner(t, &fakeRenderer{})
	res, err := r.Execute(context.Background(), Options{Document: doc, Formats: []string{"zpl", "optimized"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != "document:box" {
		t.Errorf("Source = %q", res.Source)
	}
	want := "^XA\n^CI28\n^FO20,20\n^GB200,2,3^FS\n\n^XZ"
	if got := string(res.Artifacts["zpl"]); got != want {
		t.Errorf("zpl = %q, want %q", got, want)
	}
	if got := string(res.Artifacts["optimized"]); got != "^XA\n^CI28\n^FO20,20\n^GB200,2,3^FS\n^XZ" {
		t.Errorf("optimized = %q", got)
	}
	if res.Stats.Elements != 1 || res.Stats.Fragments != 1 || res.Stats.Optimize.BlankLines != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if _, ok := res.Artifacts["png"]; ok {
		t.Error("png was not requested")
	}
}

func TestExecuteTemplateVariables(t *testing.T) {
	r := newTestRunner(t, &fakeRenderer{})
	res, err := r.Execute(context.Background(), Options{
		Template: "logistics/shipping",
		Data:     catalog.FormData{"recipient": "Jane Doe", "trackingNumber": "TRK1"},
		Formats:  []string{"zpl", "variables", "js"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Issues) != 1 || res.Issues[0].Field != "address" {
		t.Errorf("Issues = %+v", res.Issues)
	}
	vars := string(res.Artifacts["variables"])
	if !strings.Contains(vars, "^FD{{trackingNumber}}^FS") || strings.Contains(vars, "TRK1") {
		t.Errorf("variables:\n%s", vars)
	}
	if len(res.Replacements) != 2 {
		t.Errorf("Replacements = %+v", res.Replacements)
	}
	if !strings.HasPrefix(string(res.Artifacts["js"]), "const zplCode = `^XA") {
		t.Errorf("js = %q", res.Artifacts["js"])
	}
}

func TestExecuteVariablesWithEscapedValue(t *testing.T) {
	r := newTestRunner(t, &fakeRenderer{})
	res, err := r.Execute(context.Background(), Options{
		Template: "retail/product",
		Data:     catalog.FormData{"productName": "Tea^Cup", "price": "4", "barcode": "123"},
		Formats:  []string{"zpl", "variables"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if zpl := string(res.Artifacts["zpl"]); !strings.Contains(zpl, "^FH_^FDTea_5ECup^FS") {
		t.Fatalf("zpl does not carry the escaped value:\n%s", zpl)
	}
	vars := string(res.Artifacts["variables"])
	if !strings.Contains(vars, "{{productName}}") || strings.Contains(vars, "Tea_5ECup") {
		t.Errorf("escaped value left untemplatized:\n%s", vars)
	}
	for _, rep := range res.Replacements {
		if rep.Count == 0 {
			t.Errorf("no replacement for %s (%q)", rep.Key, rep.Value)
		}
	}
}

func TestExecuteLogsThroughOptionsLogger(t *testing.T) {
	var runLog, runnerLog bytes.Buffer
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(nil, &fakeRenderer{}, c, nil, log.New(&runnerLog))

	_, err = r.Execute(context.Background(), Options{
		Markup: "^XA^XZ",
		Logger: log.New(&runLog),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(runLog.String(), "compiled label") {
		t.Errorf("options logger got %q", runLog.String())
	}
	if runnerLog.Len() != 0 {
		t.Errorf("runner logger should stay quiet, got %q", runnerLog.String())
	}

	if _, err := r.Execute(context.Background(), Options{Markup: "^XA^XZ"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(runnerLog.String(), "compiled label") {
		t.Errorf("runner logger not used as the default, got %q", runnerLog.String())
	}
}

func TestExecuteUnknownTemplate(t *testing.T) {
	r := newTestRunner(t, &fakeRenderer{})
	_, err := r.Execute(context.Background(), Options{Template: "nope"})
	if !errors.Is(err, errors.ErrCodeTemplateNotFound) {
		t.Errorf("expected TEMPLATE_NOT_FOUND, got %v", err)
	}
}

func TestExecutePreviewCaching(t *testing.T) {
	fake := &fakeRenderer{}
	r := newTestRunner(t, fake)
	opts := Options{Markup: "^XA\n^FDhi^FS\n^XZ", Formats: []string{"png"}}

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.PreviewHit {
		t.Error("first run should miss")
	}
	if got := string(res.Artifacts["png"]); got != "PNG:8dpmm/4x6:^XA" {
		t.Errorf("png = %q", got)
	}

	res, err = r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.PreviewHit || fake.calls.Load() != 1 {
		t.Errorf("second run: hit=%v calls=%d", res.CacheInfo.PreviewHit, fake.calls.Load())
	}

	// A different profile is a different key.
	opts.Profile = label.Profile{Resolution: label.Res12dpmm, Size: label.Size3x2}
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	if fake.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", fake.calls.Load())
	}

	opts.Refresh = true
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	if fake.calls.Load() != 3 {
		t.Errorf("refresh should bypass cache, calls = %d", fake.calls.Load())
	}
}

func TestExecutePreviewFailureNotCached(t *testing.T) {
	fake := &fakeRenderer{err: errors.New(errors.ErrCodePreviewFailed, "boom")}
	r := newTestRunner(t, fake)
	opts := Options{Markup: "^XA^XZ", Formats: []string{"png"}}

	for i := 0; i < 2; i++ {
		if _, err := r.Execute(context.Background(), opts); !errors.Is(err, errors.ErrCodePreviewFailed) {
			t.Fatalf("expected PREVIEW_FAILED, got %v", err)
		}
	}
	if fake.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (one per run, no retry)", fake.calls.Load())
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil, nil)
	if r.Registry == nil || r.Preview == nil || r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Errorf("NewRunner defaults not applied: %+v", r)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
