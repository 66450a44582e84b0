package editor

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var reservedKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
}

// ValidKey reports whether key may name an object member: non-empty, free of
// control characters, double quotes and backslashes, and not reserved.
func ValidKey(key string) bool {
	if key == "" || reservedKeys[key] {
		return false
	}
	for _, r := range key {
		if unicode.IsControl(r) || r == '"' || r == '\\' {
			return false
		}
	}
	return true
}

// objectKeys returns the key texts of an edit-object's lines.
func objectKeys(obj *html.Node) []string {
	var keys []string
	for _, line := range childrenWithClass(obj, classLine) {
		if k := firstChildWithClass(line, classKey); k != nil {
			keys = append(keys, textContent(k))
		}
	}
	return keys
}

// refreshKeys re-marks every key of obj. A key is invalid when it breaks
// ValidKey or collides with a sibling; both sides of a collision are marked
// and neither is renamed.
func refreshKeys(obj *html.Node) {
	if obj == nil {
		return
	}
	counts := make(map[string]int)
	for _, k := range objectKeys(obj) {
		counts[strings.TrimSpace(k)]++
	}
	for _, line := range childrenWithClass(obj, classLine) {
		k := firstChildWithClass(line, classKey)
		if k == nil {
			continue
		}
		key := textContent(k)
		valid := ValidKey(strings.TrimSpace(key)) && counts[strings.TrimSpace(key)] < 2
		toggleClass(k, classInvalid, !valid)
	}
}
