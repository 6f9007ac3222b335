package cloud

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaskSecret renders a secret value with every character replaced by '*'.
// A JSON object is shown key by key; anything else is masked as a whole.
func MaskSecret(value string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(value), &fields); err != nil || fields == nil {
		return mask(value)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, mask(rawText(fields[k]))))
	}
	return strings.Join(lines, "\n")
}

// rawText is the printed form of a JSON value: strings unquoted, everything else verbatim.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func mask(s string) string {
	return strings.Repeat("*", utf8.RuneCountInString(s))
}
