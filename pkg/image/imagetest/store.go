// Package imagetest provides an in-memory image.Store fake for tests.
package imagetest

import (
	"context"
	"fmt"
	"io"

	"github.com/jecluis/ceph-amazing-builder/pkg/image"
)

// Store is an in-memory image.Store. The zero value is usable.
type Store struct {
	// Existing maps "repository:tag" to presence.
	Existing map[string]bool

	// Error injection
	ExistsError error
	BuildError  error
	RunError    error
	CopyError   error
	StartError  error
	CommitError error

	// Call tracking
	Built      []image.BuildOptions
	Tagged     [][2]string
	Removed    []string
	Runs       []image.RunOptions
	Created    []image.CreateOptions
	Started    []string
	Copied     []CopyCall
	Committed  []CommitCall
	RemovedCtr []string

	nextID int
}

// CopyCall records one CopyToContainer invocation.
type CopyCall struct {
	ID      string
	DstPath string
	Archive []byte
}

// CommitCall records one CommitContainer invocation.
type CommitCall struct {
	ID  string
	Ref image.Ref
}

func (s *Store) exists(ref image.Ref) bool {
	return s.Existing[ref.String()]
}

func (s *Store) add(ref image.Ref) {
	if s.Existing == nil {
		s.Existing = make(map[string]bool)
	}
	s.Existing[ref.String()] = true
}

// ImageExists reports presence from the Existing map.
func (s *Store) ImageExists(ctx context.Context, ref image.Ref) (bool, error) {
	if s.ExistsError != nil {
		return false, s.ExistsError
	}
	return s.exists(ref), nil
}

// BuildImage records the build and marks the ref present.
func (s *Store) BuildImage(ctx context.Context, opts image.BuildOptions) (string, error) {
	if s.BuildError != nil {
		return "", s.BuildError
	}
	s.Built = append(s.Built, opts)
	s.add(opts.Ref)
	return fmt.Sprintf("sha256:fake%d", len(s.Built)), nil
}

// TagImage records the aliasing and marks the target present.
func (s *Store) TagImage(ctx context.Context, source, target image.Ref) error {
	s.Tagged = append(s.Tagged, [2]string{source.String(), target.String()})
	s.add(target)
	return nil
}

// RemoveImage drops the ref.
func (s *Store) RemoveImage(ctx context.Context, ref image.Ref) error {
	s.Removed = append(s.Removed, ref.String())
	delete(s.Existing, ref.String())
	return nil
}

// ListImages returns one entry per Existing ref matching the pattern by
// repository prefix.
func (s *Store) ListImages(ctx context.Context, pattern string) ([]image.Image, error) {
	var out []image.Image
	for refStr := range s.Existing {
		ref, err := image.ParseRef(refStr)
		if err != nil {
			continue
		}
		if pattern == "" || ref.Repository == pattern || refStr == pattern {
			out = append(out, image.Image{ID: "sha256:fake", RepoTags: []string{refStr}})
		}
	}
	return out, nil
}

// RunContainer records the run.
func (s *Store) RunContainer(ctx context.Context, opts image.RunOptions) error {
	if s.RunError != nil {
		return s.RunError
	}
	s.Runs = append(s.Runs, opts)
	return nil
}

// CreateContainer records the creation and returns a synthetic ID.
func (s *Store) CreateContainer(ctx context.Context, opts image.CreateOptions) (string, error) {
	s.Created = append(s.Created, opts)
	s.nextID++
	return fmt.Sprintf("ctr-%d", s.nextID), nil
}

// StartAndWait records the start.
func (s *Store) StartAndWait(ctx context.Context, id string) error {
	if s.StartError != nil {
		return s.StartError
	}
	s.Started = append(s.Started, id)
	return nil
}

// CopyToContainer records the copied archive.
func (s *Store) CopyToContainer(ctx context.Context, id, dstPath string, content io.Reader) error {
	if s.CopyError != nil {
		return s.CopyError
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	s.Copied = append(s.Copied, CopyCall{ID: id, DstPath: dstPath, Archive: data})
	return nil
}

// CommitContainer records the commit and marks the ref present.
func (s *Store) CommitContainer(ctx context.Context, id string, ref image.Ref) (string, error) {
	if s.CommitError != nil {
		return "", s.CommitError
	}
	s.Committed = append(s.Committed, CommitCall{ID: id, Ref: ref})
	s.add(ref)
	return "sha256:committed", nil
}

// RemoveContainer records the removal.
func (s *Store) RemoveContainer(ctx context.Context, id string) error {
	s.RemovedCtr = append(s.RemovedCtr, id)
	return nil
}
