package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/zplkit/pkg/catalog"
	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/export"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/pipeline"
)

// =============================================================================
// Input
// =============================================================================

// readInput returns the contents of path, or of stdin for "" and "-".
func readInput(stdin io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// readDocument decodes a label document from path or stdin.
func readDocument(stdin io.Reader, path string) (*label.Document, error) {
	if path == "" || path == "-" {
		return label.ReadJSON(stdin)
	}
	return label.ImportJSON(path)
}

// formDataFlags holds --data and --set.
type formDataFlags struct {
	file string
	sets []string
}

// load reads the data file (YAML or JSON) and applies --set pairs over it.
func (f formDataFlags) load() (catalog.FormData, error) {
	data := catalog.FormData{}
	if f.file != "" {
		raw, err := os.ReadFile(f.file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.file, err)
		}
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", f.file)
		}
	}
	for _, kv := range f.sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid --set %q (want key=value)", kv)
		}
		data[key] = value
	}
	return data, nil
}

// =============================================================================
// Output
// =============================================================================

// writeArtifacts writes the requested formats. A single text format goes to
// output, or stdout when output is empty. Otherwise each format is written to
// base+extension, where base comes from output or the input path. It reports
// whether anything went to stdout so callers can keep it clean.
func writeArtifacts(result *pipeline.Result, formats []string, output, input string) (bool, error) {
	if len(formats) == 1 && !export.Binary(formats[0]) {
		data := result.Artifacts[formats[0]]
		if output == "" || output == "-" {
			return true, export.Write("", data)
		}
		if err := export.Write(output, data); err != nil {
			return false, err
		}
		printFile(output)
		return false, nil
	}

	base := export.BasePath(output, input)
	if base == "" || base == "-" {
		return false, errors.New(errors.ErrCodeInvalidInput, "--output is required for %s", strings.Join(formats, ","))
	}
	paths, err := export.WriteAll(base, formats, result.Artifacts)
	for _, p := range paths {
		printFile(p)
	}
	return false, err
}
