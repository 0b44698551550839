package specfile

// extractState is the line classifier's position relative to the section
// being extracted.
type extractState int

const (
	stateOutside extractState = iota
	stateInsideTarget
	stateInsideOther
)

// Section returns the content lines of the named section, excluding the
// markers themselves. Duplicate sections concatenate in document order. An
// absent section yields an empty slice; callers treat that as "nothing to
// do", never as a failure.
func (d *Document) Section(name string) []string {
	var body []string
	state := stateOutside

	for _, line := range d.lines {
		marker, boundary := isSectionBoundary(line)
		if boundary {
			if marker == name {
				state = stateInsideTarget
			} else {
				state = stateInsideOther
			}
			continue
		}
		if state == stateInsideTarget {
			body = append(body, line)
		}
	}
	return body
}

// HasSection reports whether the named section is present, even when empty.
func (d *Document) HasSection(name string) bool {
	for _, line := range d.lines {
		if marker, ok := isSectionBoundary(line); ok && marker == name {
			return true
		}
	}
	return false
}
