// Package textfmt renders short key-value diagnostic strings, used by the
// signature model's String methods.
package textfmt

import "strings"

// KV is a single key-value pair with a default. Pairs whose value equals the
// default are omitted from the rendered list.
type KV struct {
	Key     string
	Value   string
	Default string
}

// KVList renders pairs as "k1=v1, k2=v2", dropping pairs at their default.
// A pair with an empty key renders its value bare, which lets callers lead
// with an identifier.
func KVList(pairs []KV) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.Value == p.Default {
			continue
		}
		if p.Key == "" {
			parts = append(parts, p.Value)
			continue
		}
		parts = append(parts, p.Key+"="+p.Value)
	}
	return strings.Join(parts, ", ")
}
