// Package compose merges an install tree into a clean runtime image and
// commits the result as a new tagged final image.
package compose

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/docker/docker/pkg/archive"
	"github.com/google/uuid"

	"github.com/jecluis/ceph-amazing-builder/pkg/image"
	"github.com/jecluis/ceph-amazing-builder/pkg/stage"
)

// scriptPath is where the deferred post-install script lands inside the
// target root; it is removed again before commit.
const scriptPath = "/cab-postinst.sh"

// constrainedPath is the PATH the post-install script runs under.
const constrainedPath = "/usr/sbin:/usr/bin:/sbin:/bin"

// timestampFormat tags committed images.
const timestampFormat = "20060102-150405"

// Options describes one composition.
type Options struct {
	// Tree is the install tree directory; treated as read-only input.
	Tree string
	// Base is the runtime image the tree is merged into.
	Base image.Ref
	// Name is the build name final images are tagged under.
	Name string
	// Latest also moves the mutable "latest" alias to the new image.
	Latest bool
	// PostInstall is the path of the deferred post-install script.
	PostInstall string
}

// Composer assembles final images.
type Composer struct {
	store  image.Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Composer.
func New(store image.Store, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Composer{store: store, logger: logger, now: time.Now}
}

// Compose merges the install tree into a working instance of the base
// image, runs the post-install script inside it, and commits the result.
// The merge is update-preserving: base files absent from the tree survive,
// conflicts are overwritten with the tree's content, permissions, ownership
// and timestamps. Any failure before commit leaves no new tagged image; the
// working container remains for external cleanup.
func (c *Composer) Compose(ctx context.Context, opts Options) (image.Ref, error) {
	if opts.Name == "" {
		return image.Ref{}, fmt.Errorf("build name is required")
	}
	if info, err := os.Stat(opts.Tree); err != nil || !info.IsDir() {
		return image.Ref{}, fmt.Errorf("install tree %s is not a directory", opts.Tree)
	}
	script, err := os.ReadFile(opts.PostInstall)
	if err != nil {
		return image.Ref{}, fmt.Errorf("reading post-install script: %w", err)
	}

	id, err := c.store.CreateContainer(ctx, image.CreateOptions{
		Image: opts.Base.String(),
		Name:  "cab-compose-" + uuid.NewString()[:8],
		Cmd: []string{"/bin/sh", "-c",
			"PATH=" + constrainedPath + " /bin/sh " + scriptPath + " && rm -f " + scriptPath},
	})
	if err != nil {
		return image.Ref{}, fmt.Errorf("creating working container: %w", err)
	}
	c.logger.Debug("created working container", "id", id, "base", opts.Base.String())

	if err := c.syncTree(ctx, id, opts.Tree); err != nil {
		return image.Ref{}, err
	}
	if err := c.injectScript(ctx, id, script); err != nil {
		return image.Ref{}, err
	}
	if err := c.store.StartAndWait(ctx, id); err != nil {
		return image.Ref{}, fmt.Errorf("post-install failed: %w", err)
	}

	ref := stage.FinalRef(opts.Name, c.now().UTC().Format(timestampFormat))
	if _, err := c.store.CommitContainer(ctx, id, ref); err != nil {
		return image.Ref{}, err
	}
	if opts.Latest {
		if err := c.store.TagImage(ctx, ref, stage.LatestRef(opts.Name)); err != nil {
			return image.Ref{}, err
		}
	}

	if err := c.store.RemoveContainer(ctx, id); err != nil {
		// The image is committed; a stale working container is only a
		// cleanup concern.
		c.logger.Warn("leaving working container behind", "id", id, "error", err)
	}

	c.logger.Info("composed image", "ref", ref.String())
	return ref, nil
}

// syncTree streams the install tree into the container root as a tar
// archive. Tar extraction overlays: it never deletes files already present
// in the base, and carries each entry's mode, ownership and timestamps.
func (c *Composer) syncTree(ctx context.Context, id, tree string) error {
	tarStream, err := archive.TarWithOptions(tree, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("archiving install tree: %w", err)
	}
	defer tarStream.Close()

	if err := c.store.CopyToContainer(ctx, id, "/", tarStream); err != nil {
		return fmt.Errorf("merging install tree: %w", err)
	}
	return nil
}

// injectScript places the post-install script at the container root.
func (c *Composer) injectScript(ctx context.Context, id string, script []byte) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{
		Name: scriptPath[1:],
		Mode: 0o755,
		Size: int64(len(script)),
	}); err != nil {
		return fmt.Errorf("archiving post-install script: %w", err)
	}
	if _, err := tw.Write(script); err != nil {
		return fmt.Errorf("archiving post-install script: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("archiving post-install script: %w", err)
	}

	if err := c.store.CopyToContainer(ctx, id, "/", io.NopCloser(&buf)); err != nil {
		return fmt.Errorf("copying post-install script: %w", err)
	}
	return nil
}
