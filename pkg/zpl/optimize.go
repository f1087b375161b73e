package zpl

import "strings"

// CommentMarker starts a line that Optimize drops.
const CommentMarker = "//"

// OptimizeStats describes what Optimize removed.
type OptimizeStats struct {
	InputLines   int `json:"input_lines"`
	OutputLines  int `json:"output_lines"`
	BlankLines   int `json:"blank_lines"`
	CommentLines int `json:"comment_lines"`
	InputBytes   int `json:"input_bytes"`
	OutputBytes  int `json:"output_bytes"`
}

// Optimize trims every line, drops blank lines and lines starting with
// CommentMarker, and joins the rest with "\n". It never reorders lines or
// changes text inside a kept line, and Optimize(Optimize(s)) == Optimize(s).
func Optimize(s string) string {
	out, _ := OptimizeWithStats(s)
	return out
}

// OptimizeWithStats is Optimize plus a count of removed lines.
func OptimizeWithStats(s string) (string, OptimizeStats) {
	lines := strings.Split(s, "\n")
	stats := OptimizeStats{InputLines: len(lines), InputBytes: len(s)}

	kept := lines[:0:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			stats.BlankLines++
		case strings.HasPrefix(line, CommentMarker):
			stats.CommentLines++
		default:
			kept = append(kept, line)
		}
	}

	out := strings.Join(kept, "\n")
	stats.OutputLines = len(kept)
	stats.OutputBytes = len(out)
	return out, stats
}
