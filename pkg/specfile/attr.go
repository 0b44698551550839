package specfile

import (
	"regexp"
	"strings"
)

// AttrDirective is one parsed %attr(mode,user,group) path line. A field of
// "-" means "leave unchanged".
type AttrDirective struct {
	Mode  string
	User  string
	Group string
	Path  string
}

var attrLineRe = regexp.MustCompile(`%attr\(\s*([^,)]+)\s*,\s*([^,)]+)\s*,\s*([^,)]+)\s*\)\s+(.+)$`)

// ParseAttrLine parses a single %attr directive. It returns false for lines
// that do not carry a well-formed directive; a malformed line never affects
// parsing of its neighbours.
func ParseAttrLine(line string) (AttrDirective, bool) {
	m := attrLineRe.FindStringSubmatch(line)
	if m == nil {
		return AttrDirective{}, false
	}
	fields := strings.Fields(m[4])
	if len(fields) == 0 {
		return AttrDirective{}, false
	}
	// The optional two-token form names a source path first; the final
	// token always wins as the target.
	path := fields[len(fields)-1]
	return AttrDirective{
		Mode:  strings.TrimSpace(m[1]),
		User:  strings.TrimSpace(m[2]),
		Group: strings.TrimSpace(m[3]),
		Path:  path,
	}, true
}

// AttrDirectives scans the whole document, order preserved, and returns
// every well-formed %attr directive.
func (d *Document) AttrDirectives() []AttrDirective {
	var out []AttrDirective
	for _, line := range d.lines {
		if dir, ok := ParseAttrLine(line); ok {
			out = append(out, dir)
		}
	}
	return out
}

// Commands renders the directive as shell commands. The mode change is
// always emitted when a mode is set; the ownership change only when both
// user and group are set.
func (a AttrDirective) Commands() []string {
	var cmds []string
	if a.Mode != "-" && a.Mode != "" {
		cmds = append(cmds, "chmod "+a.Mode+" "+a.Path)
	}
	if a.User != "-" && a.User != "" && a.Group != "-" && a.Group != "" {
		cmds = append(cmds, "chown "+a.User+":"+a.Group+" "+a.Path)
	}
	return cmds
}
