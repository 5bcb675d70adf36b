package statusview

import (
	"regexp"
	"strings"

	"go.jetify.com/typeid"
)

func newID(prefix string) string {
	id, err := typeid.WithPrefix(prefix)
	if err != nil {
		panic(err)
	}
	return id.String()
}

// NewDiagramID returns a unique element ID for a rendered diagram.
func NewDiagramID() string {
	return newID("diag")
}

// NewSessionID returns a unique dashboard session ID.
func NewSessionID() string {
	return newID("sess")
}

var (
	filenameReserved             = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	filenameReservedWindowsNames = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])$`)
)

// ValidFilename replaces characters that are not allowed in file names,
// including spaces, with replacement.
func ValidFilename(value, replacement string) string {
	s := filenameReserved.ReplaceAllString(value, replacement)
	s = filenameReservedWindowsNames.ReplaceAllString(s, replacement)
	return strings.ReplaceAll(s, " ", replacement)
}
