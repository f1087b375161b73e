package zpl

import (
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/zplkit/pkg/errors"
)

// Binding pairs a template field key with the literal value used when the
// program was generated.
type Binding struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Replacement reports how often a binding's value was replaced.
type Replacement struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SubstitutionPolicy decides which value wins when values overlap.
type SubstitutionPolicy string

// Substitution policies.
const (
	// SubstituteLongestFirst scans the markup once and, at each position,
	// replaces the longest matching value. Ties keep binding order.
	SubstituteLongestFirst SubstitutionPolicy = "longest-first"
	// SubstituteInsertion replaces each value everywhere, one binding after
	// another. A short value can consume part of a longer one.
	SubstituteInsertion SubstitutionPolicy = "insertion"
	// SubstituteStrict refuses bindings where one value contains another.
	SubstituteStrict SubstitutionPolicy = "strict"
)

// SubstitutionPolicies lists every policy; the first is the default.
var SubstitutionPolicies = []SubstitutionPolicy{SubstituteLongestFirst, SubstituteInsertion, SubstituteStrict}

// ParseSubstitutionPolicy converts s into a SubstitutionPolicy. Empty selects
// SubstituteLongestFirst.
func ParseSubstitutionPolicy(s string) (SubstitutionPolicy, error) {
	switch p := SubstitutionPolicy(strings.ToLower(s)); p {
	case "":
		return SubstituteLongestFirst, nil
	case SubstituteLongestFirst, SubstituteInsertion, SubstituteStrict:
		return p, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput,
		"invalid substitution policy: %q (must be one of: longest-first, insertion, strict)", s)
}

// Placeholder returns the token that stands for key, e.g. "{{sku}}".
func Placeholder(key string) string {
	return "{{" + key + "}}"
}

// Templatize replaces literal occurrences of each non-empty binding value in
// markup with its placeholder. Values are matched as plain text and the
// markup structure is never inspected. Replacements are reported in binding
// order.
func Templatize(markup string, bindings []Binding, policy SubstitutionPolicy) (string, []Replacement, error) {
	active := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		if b.Value != "" {
			active = append(active, b)
		}
	}

	counts := make([]int, len(active))
	var out string
	switch policy {
	case SubstituteInsertion:
		out = markup
		for i, b := range active {
			counts[i] = strings.Count(out, b.Value)
			out = strings.ReplaceAll(out, b.Value, Placeholder(b.Key))
		}
	case SubstituteStrict:
		if err := checkOverlap(active); err != nil {
			return "", nil, err
		}
		out = scanReplace(markup, active, counts)
	case SubstituteLongestFirst, "":
		out = scanReplace(markup, active, counts)
	default:
		return "", nil, errors.New(errors.ErrCodeInvalidInput, "invalid substitution policy: %q", policy)
	}

	reps := make([]Replacement, len(active))
	for i, b := range active {
		reps[i] = Replacement{Key: b.Key, Value: b.Value, Count: counts[i]}
	}
	return out, reps, nil
}

// scanReplace walks markup once. At each offset it tries values longest
// first and, on a match, emits the placeholder and skips the value, so
// inserted placeholders are never matched again.
func scanReplace(markup string, active []Binding, counts []int) string {
	order := make([]int, len(active))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return len(active[b].Value) - len(active[a].Value)
	})

	var sb strings.Builder
	sb.Grow(len(markup))
	for i := 0; i < len(markup); {
		matched := false
		for _, idx := range order {
			v := active[idx].Value
			if strings.HasPrefix(markup[i:], v) {
				sb.WriteString(Placeholder(active[idx].Key))
				counts[idx]++
				i += len(v)
				matched = true
				break
			}
		}
		if !matched {
			sb.WriteByte(markup[i])
			i++
		}
	}
	return sb.String()
}

func checkOverlap(active []Binding) error {
	for i, a := range active {
		for j, b := range active {
			if i != j && strings.Contains(b.Value, a.Value) {
				return errors.New(errors.ErrCodeOverlapping,
					"value of %q (%q) overlaps value of %q (%q)", a.Key, a.Value, b.Key, b.Value)
			}
		}
	}
	return nil
}

var placeholderRegex = regexp.MustCompile(`\{\{([A-Za-z][A-Za-z0-9_-]*)\}\}`)

// Placeholders returns the keys referenced by a template, in order of first
// appearance.
func Placeholders(template string) []string {
	var keys []string
	for _, m := range placeholderRegex.FindAllStringSubmatch(template, -1) {
		if !slices.Contains(keys, m[1]) {
			keys = append(keys, m[1])
		}
	}
	return keys
}

// Fill replaces placeholders with values. Placeholders without a value are
// left in place.
func Fill(template string, values map[string]string) string {
	return placeholderRegex.ReplaceAllStringFunc(template, func(tok string) string {
		key := tok[2 : len(tok)-2]
		if v, ok := values[key]; ok {
			return v
		}
		return tok
	})
}
