package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/zplkit/pkg/cache"
	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/store"
	"github.com/matzehuels/zplkit/pkg/zpl"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Profile() != label.DefaultProfile() {
		t.Errorf("Profile() = %v", cfg.Profile())
	}
	if len(cfg.PreviewOptions()) != 2 {
		t.Errorf("PreviewOptions() = %d options", len(cfg.PreviewOptions()))
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[preview]
resolution = "12dpmm"
timeout = "3s"

[cache]
backend = "redis"
redis_addr = "localhost:6379"

[store]
backend = "mongo"
mongo_uri = "mongodb://localhost"

[compile]
escape = "reject"

[server]
addr = ":9090"
bogus = 1
`)
	cfg, unknown, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Preview.Resolution != label.Res12dpmm || cfg.Preview.Size != label.Size4x6 {
		t.Errorf("profile = %v", cfg.Profile())
	}
	if cfg.Preview.Timeout.Duration != 3*time.Second {
		t.Errorf("timeout = %v", cfg.Preview.Timeout)
	}
	if cfg.Compile.Escape != zpl.EscapeReject || cfg.Compile.Substitution != zpl.SubstituteLongestFirst {
		t.Errorf("compile = %+v", cfg.Compile)
	}
	if cfg.CacheOptions().Backend != cache.BackendRedis || cfg.StoreOptions().Backend != store.BackendMongo {
		t.Errorf("backends = %q, %q", cfg.Cache.Backend, cfg.Store.Backend)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if diff := cmp.Diff([]string{"server.bogus"}, unknown); diff != "" {
		t.Errorf("unknown keys (-want +got):\n%s", diff)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("missing default file should not fail: %v", err)
	}
	if cfg != Default() {
		t.Error("expected defaults")
	}

	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing explicit file should fail")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "[preview\n"},
		{"escape", "[compile]\nescape = \"base64\"\n"},
		{"size", "[preview]\nsize = \"9x9\"\n"},
		{"cache backend", "[cache]\nbackend = \"memcached\"\n"},
		{"store backend", "[store]\nbackend = \"sqlite\"\n"},
		{"url", "[preview]\nbase_url = \"ftp://x\"\n"},
		{"scale", "[compile]\nscale = -1.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.GetCode(err) == "" {
				t.Errorf("error has no code: %v", err)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	p, err := Path()
	if err != nil || p != filepath.Join("/cfg", "zplkit", "config.toml") {
		t.Errorf("Path() = %q, %v", p, err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Catalog.Dir = "/srv/templates"
	text, err := cfg.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, `timeout = "15s"`) {
		t.Errorf("timeout not encoded as text:\n%s", text)
	}
	got, _, err := Load(writeConfig(t, text))
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Errorf("round trip mismatch:\n%s", cmp.Diff(cfg, got))
	}
}
