// Package specfile reads the section-delimited build recipe shipped at the
// root of a Ceph source tree (ceph.spec.in) and synthesizes standalone
// build, install and post-install scripts from it.
package specfile

import (
	"fmt"
	"os"
	"strings"
)

// Document is an ordered sequence of recipe lines. Lines are opaque content
// except for top-level section markers; embedded macros are resolved by the
// packaging tool, never here.
type Document struct {
	lines []string
}

// sectionNames is the set of top-level markers that open or close a section.
// Macro invocations at column 0 (%cmake, %make_install, %fdupes, ...) are not
// in the set and pass through as section content.
var sectionNames = map[string]bool{
	"package":     true,
	"description": true,
	"prep":        true,
	"build":       true,
	"check":       true,
	"install":     true,
	"clean":       true,
	"pre":         true,
	"post":        true,
	"preun":       true,
	"postun":      true,
	"files":       true,
	"changelog":   true,
}

// New wraps a slice of lines as a Document.
func New(lines []string) *Document {
	return &Document{lines: lines}
}

// Parse splits raw recipe text into a Document.
func Parse(text string) *Document {
	return New(strings.Split(text, "\n"))
}

// Load reads a recipe file from disk. A missing or unreadable file is the
// only hard failure in this package.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// Lines returns the document's lines in order.
func (d *Document) Lines() []string {
	return d.lines
}

// String renders the document back to text.
func (d *Document) String() string {
	return strings.Join(d.lines, "\n")
}

// markerName returns the identifier of a top-level marker line, or "" when
// the line is not a marker. A marker is a '%' at column 0 followed by an
// identifier; the identifier ends at the first non-identifier character, so
// "%attr(644,-,-)" yields "attr" and "%pre -p /sbin/ldconfig" yields "pre".
func markerName(line string) string {
	if len(line) < 2 || line[0] != '%' {
		return ""
	}
	i := 1
	for i < len(line) && isIdentChar(line[i]) {
		i++
	}
	if i == 1 {
		return ""
	}
	return line[1:i]
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// isSectionBoundary reports whether the line opens or terminates a top-level
// section. Matching is exact-token: "%prep" is a boundary for the prep
// section and never for pre.
func isSectionBoundary(line string) (name string, ok bool) {
	name = markerName(line)
	if name == "" {
		return "", false
	}
	return name, sectionNames[name]
}
