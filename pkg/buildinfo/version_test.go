package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	for _, want := range []string{"version: " + Version, "commit: " + Commit, "go: go"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "zplkit/"+Version {
		t.Errorf("UserAgent() = %q", got)
	}
}
