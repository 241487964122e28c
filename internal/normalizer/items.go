package normalizer

import (
	"encoding/json"
	"strings"

	"order-dashboard/internal/domain"
)

// ParseItems turns the loosely encoded items field into item names.
// It accepts "[A, B]" lists, JSON arrays and scalars, newline separated and
// comma separated text. It never fails; unusable input yields an empty list.
func ParseItems(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return []string{}
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, `\n`, "\n"))
	if s == "" {
		return []string{}
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if inner == "" || inner == domain.EmptySentinel {
			return []string{}
		}
		return unquote(splitClean(inner, ","))
	}

	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err == nil {
		switch v := decoded.(type) {
		case []any:
			return cleanList(v)
		case map[string]any:
			return []string{s}
		default:
			if falsy(v) {
				return []string{}
			}
			return []string{stringify(v)}
		}
	}

	switch {
	case strings.Contains(s, "\n"):
		return splitClean(s, "\n")
	case strings.Contains(s, ","):
		return splitClean(s, ",")
	case s == domain.EmptySentinel:
		return []string{}
	}
	return []string{s}
}

// itemsFromValue handles an items field that may already be a decoded list.
func itemsFromValue(v any) []string {
	switch x := v.(type) {
	case nil:
		return []string{}
	case []any:
		return cleanList(x)
	case []string:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return cleanList(out)
	}
	return ParseItems(stringify(v))
}

func splitClean(s, sep string) []string {
	out := []string{}
	for _, p := range strings.Split(s, sep) {
		p = strings.TrimSpace(p)
		if p == "" || p == domain.EmptySentinel {
			continue
		}
		out = append(out, p)
	}
	return out
}

// unquote strips JSON-style quotes left on bracket list pieces.
func unquote(items []string) []string {
	out := items[:0]
	for _, it := range items {
		it = strings.TrimSpace(strings.Trim(it, `"'`))
		if it == "" || it == domain.EmptySentinel {
			continue
		}
		out = append(out, it)
	}
	return out
}

func cleanList(list []any) []string {
	out := []string{}
	for _, v := range list {
		if falsy(v) {
			continue
		}
		s := stringify(v)
		if s == "" || s == domain.EmptySentinel {
			continue
		}
		out = append(out, s)
	}
	return out
}

func falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		t := strings.TrimSpace(x)
		return t == "" || t == domain.EmptySentinel
	case float64:
		return x == 0
	case bool:
		return !x
	}
	return false
}
