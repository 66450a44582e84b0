package validate

import "regexp"

var formats = map[string]*regexp.Regexp{
	"date":           regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	"time":           regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`),
	"datetime-local": regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}$`),
	"date-time":      regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:\d{2})?$`),
	"color":          regexp.MustCompile(`(?i)^#([0-9a-f]{6}|[0-9a-f]{3})$`),
	"email":          regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[a-z0-9]{2,10}$`),
}

// CheckFormat reports whether s is valid for the named format. Formats
// outside the table always pass.
func CheckFormat(format, s string) bool {
	re, ok := formats[format]
	if !ok {
		return true
	}
	return re.MatchString(s)
}

// KnownFormat reports whether the validator checks the named format.
func KnownFormat(format string) bool {
	_, ok := formats[format]
	return ok
}
