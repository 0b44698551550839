package image

import (
	"context"
	"io"
)

// BuildOptions parameterizes one image build. Exactly one of ContextDir or
// Dockerfile must be set: ContextDir is archived and sent as the build
// context, Dockerfile is an inline recipe sent as a single-file context.
type BuildOptions struct {
	Ref        Ref
	ContextDir string
	Dockerfile []byte
	BuildArgs  map[string]string
	NoCache    bool
}

// RunOptions parameterizes one synchronous container run. The run fails on
// any nonzero exit.
type RunOptions struct {
	Image      string
	Name       string
	Cmd        []string
	Env        []string
	Binds      []string
	WorkingDir string
	User       string
}

// CreateOptions parameterizes creation of a working container that is
// populated and committed rather than run to completion.
type CreateOptions struct {
	Image string
	Name  string
	Cmd   []string
}

// Store is the image-side contract the stage cache, build driver and image
// composer program against. The docker subpackage implements it against the
// daemon; tests substitute a fake.
type Store interface {
	// ImageExists checks existence by exact repository:tag match.
	ImageExists(ctx context.Context, ref Ref) (bool, error)

	// BuildImage builds and tags an image, returning its identifier.
	BuildImage(ctx context.Context, opts BuildOptions) (string, error)

	// TagImage adds target as an alias of source.
	TagImage(ctx context.Context, source, target Ref) error

	// RemoveImage untags (and, when unreferenced, deletes) an image.
	RemoveImage(ctx context.Context, ref Ref) error

	// ListImages returns the images whose reference matches the pattern.
	ListImages(ctx context.Context, pattern string) ([]Image, error)

	// RunContainer creates, starts and waits for a container; nonzero
	// exit is an error. The container is removed on success.
	RunContainer(ctx context.Context, opts RunOptions) error

	// CreateContainer creates a stopped working container.
	CreateContainer(ctx context.Context, opts CreateOptions) (string, error)

	// StartAndWait starts a container and waits for it to exit; nonzero
	// exit is an error. The container is kept either way.
	StartAndWait(ctx context.Context, id string) error

	// CopyToContainer streams a tar archive into the container at dstPath,
	// overlaying existing content without deleting anything.
	CopyToContainer(ctx context.Context, id, dstPath string, content io.Reader) error

	// CommitContainer commits the container's filesystem as ref.
	CommitContainer(ctx context.Context, id string, ref Ref) (string, error)

	// RemoveContainer force-removes a container.
	RemoveContainer(ctx context.Context, id string) error
}
