package utils

import (
	"fmt"
	"sort"
	"strings"
)

// SplitArguments splits a free-form compiler argument string on whitespace.
// Blank tokens are dropped.
func SplitArguments(s string) []string {
	args := make([]string, 0)

	for _, field := range strings.Fields(s) {
		if arg := strings.TrimSpace(field); arg != "" {
			args = append(args, arg)
		}
	}

	return args
}

// ParseProperties parses key=value pairs into a map. Later pairs win.
func ParseProperties(pairs []string) (map[string]string, error) {
	props := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		if strings.TrimSpace(pair) == "" {
			continue
		}

		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid property %q: expected key=value", pair)
		}

		props[key] = value
	}

	return props, nil
}

// SortedKeys returns the keys of m in lexical order
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
