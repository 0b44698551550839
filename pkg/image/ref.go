// Package image models container image identity and the store operations
// the build pipeline needs from the underlying runtime.
package image

import (
	"fmt"
	"strings"
	"time"
)

// Ref identifies an image by repository and tag. The orchestrator never
// inspects image contents; identity is the exact "repository:tag" string.
type Ref struct {
	Repository string
	Tag        string
}

// NewRef builds a Ref from its parts.
func NewRef(repository, tag string) Ref {
	return Ref{Repository: repository, Tag: tag}
}

// ParseRef splits a "repository:tag" string. A missing tag defaults to
// "latest". The repository may carry slashes; only a colon after the last
// slash separates the tag.
func ParseRef(s string) (Ref, error) {
	if s == "" {
		return Ref{}, fmt.Errorf("empty image reference")
	}
	slash := strings.LastIndex(s, "/")
	colon := strings.LastIndex(s, ":")
	if colon <= slash {
		return Ref{Repository: s, Tag: "latest"}, nil
	}
	repo, tag := s[:colon], s[colon+1:]
	if repo == "" || tag == "" {
		return Ref{}, fmt.Errorf("malformed image reference %q", s)
	}
	return Ref{Repository: repo, Tag: tag}, nil
}

// String renders the canonical "repository:tag" form.
func (r Ref) String() string {
	return r.Repository + ":" + r.Tag
}

// IsZero reports whether the ref is unset.
func (r Ref) IsZero() bool {
	return r.Repository == ""
}

// Name returns the last path element of the repository, e.g. "nautilus" for
// "cab/base/release/nautilus".
func (r Ref) Name() string {
	if i := strings.LastIndex(r.Repository, "/"); i >= 0 {
		return r.Repository[i+1:]
	}
	return r.Repository
}

// Image is one image known to the store.
type Image struct {
	ID       string
	RepoTags []string
	Size     int64
	Created  time.Time
}

// HasTag reports whether any of the image's repo tags carries the given tag.
func (i Image) HasTag(tag string) bool {
	for _, rt := range i.RepoTags {
		ref, err := ParseRef(rt)
		if err != nil {
			continue
		}
		if ref.Tag == tag {
			return true
		}
	}
	return false
}

// ShortID returns the truncated image identifier, without a digest prefix.
func (i Image) ShortID() string {
	id := strings.TrimPrefix(i.ID, "sha256:")
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
