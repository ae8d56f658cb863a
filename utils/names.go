// utils/names.go
package utils

import (
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// CanonicalRegion normalizes a state or district name for storage and
// grouping: trimmed, collapsed whitespace, title case. "tamil  nadu" and
// "Tamil Nadu" land on the same directory bucket.
func CanonicalRegion(name string) string {
	return titleCaser.String(strings.Join(strings.Fields(name), " "))
}

// ObjectKeyPrefix returns a URL-safe folder prefix for a union's uploaded
// media, e.g. "odisha-state-union".
func ObjectKeyPrefix(unionName string) string {
	return slug.Make(unionName)
}
