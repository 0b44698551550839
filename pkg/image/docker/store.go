// Package docker implements the image.Store contract against the Docker
// daemon.
package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	imagetypes "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/pkg/archive"

	"github.com/jecluis/ceph-amazing-builder/pkg/dockerclient"
	"github.com/jecluis/ceph-amazing-builder/pkg/image"
)

// Store talks to the Docker daemon through the narrow client interface.
type Store struct {
	cli    dockerclient.Client
	logger *slog.Logger
}

// New creates a Store over a fresh daemon connection.
func New(logger *slog.Logger) (*Store, error) {
	cli, err := dockerclient.New()
	if err != nil {
		return nil, err
	}
	return NewWithClient(cli, logger), nil
}

// NewWithClient creates a Store with an existing client (for testing).
func NewWithClient(cli dockerclient.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{cli: cli, logger: logger}
}

// ImageExists checks existence by exact repository:tag match.
func (s *Store) ImageExists(ctx context.Context, ref image.Ref) (bool, error) {
	images, err := s.ListImages(ctx, ref.String())
	if err != nil {
		return false, err
	}
	for _, img := range images {
		for _, rt := range img.RepoTags {
			if rt == ref.String() {
				return true, nil
			}
		}
	}
	return false, nil
}

// ListImages returns the images matching the reference pattern.
func (s *Store) ListImages(ctx context.Context, pattern string) ([]image.Image, error) {
	opts := imagetypes.ListOptions{}
	if pattern != "" {
		opts.Filters = filters.NewArgs(filters.Arg("reference", pattern))
	}
	summaries, err := s.cli.ImageList(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	out := make([]image.Image, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, image.Image{
			ID:       sum.ID,
			RepoTags: sum.RepoTags,
			Size:     sum.Size,
			Created:  time.Unix(sum.Created, 0),
		})
	}
	return out, nil
}

// BuildImage builds and tags an image from a context directory or an inline
// Dockerfile.
func (s *Store) BuildImage(ctx context.Context, opts image.BuildOptions) (string, error) {
	buildContext, err := buildContextFor(opts)
	if err != nil {
		return "", err
	}
	defer buildContext.Close()

	buildArgs := make(map[string]*string, len(opts.BuildArgs))
	for k, v := range opts.BuildArgs {
		val := v
		buildArgs[k] = &val
	}

	s.logger.Info("building image", "ref", opts.Ref.String())
	resp, err := s.cli.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Dockerfile: "Dockerfile",
		Tags:       []string{opts.Ref.String()},
		BuildArgs:  buildArgs,
		Remove:     true,
		NoCache:    opts.NoCache,
	})
	if err != nil {
		return "", fmt.Errorf("building image %s: %w", opts.Ref, err)
	}
	defer resp.Body.Close()

	id, err := streamBuildOutput(resp.Body, s.logger)
	if err != nil {
		return "", fmt.Errorf("building image %s: %w", opts.Ref, err)
	}
	s.logger.Info("built image", "ref", opts.Ref.String(), "id", id)
	return id, nil
}

// buildContextFor assembles the tar stream sent to the daemon.
func buildContextFor(opts image.BuildOptions) (io.ReadCloser, error) {
	switch {
	case opts.ContextDir != "" && opts.Dockerfile != nil:
		return nil, fmt.Errorf("both context directory and inline dockerfile given")
	case opts.ContextDir != "":
		tarStream, err := archive.TarWithOptions(opts.ContextDir, &archive.TarOptions{
			ExcludePatterns: []string{".git"},
		})
		if err != nil {
			return nil, fmt.Errorf("creating build context: %w", err)
		}
		return tarStream, nil
	case opts.Dockerfile != nil:
		return inlineContext(opts.Dockerfile)
	default:
		return nil, fmt.Errorf("no build context given")
	}
}

// inlineContext wraps a Dockerfile in a single-file tar context.
func inlineContext(dockerfile []byte) (io.ReadCloser, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{
		Name: "Dockerfile",
		Mode: 0644,
		Size: int64(len(dockerfile)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, fmt.Errorf("writing context header: %w", err)
	}
	if _, err := tw.Write(dockerfile); err != nil {
		return nil, fmt.Errorf("writing context: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing context: %w", err)
	}
	return io.NopCloser(&buf), nil
}

// TagImage adds target as an alias of source.
func (s *Store) TagImage(ctx context.Context, source, target image.Ref) error {
	if err := s.cli.ImageTag(ctx, source.String(), target.String()); err != nil {
		return fmt.Errorf("tagging %s as %s: %w", source, target, err)
	}
	return nil
}

// RemoveImage untags an image reference.
func (s *Store) RemoveImage(ctx context.Context, ref image.Ref) error {
	if _, err := s.cli.ImageRemove(ctx, ref.String(), imagetypes.RemoveOptions{}); err != nil {
		return fmt.Errorf("removing image %s: %w", ref, err)
	}
	return nil
}

// RunContainer creates, starts and waits for a container; nonzero exit is an
// error. The container is removed on success and kept on failure so its logs
// stay inspectable.
func (s *Store) RunContainer(ctx context.Context, opts image.RunOptions) error {
	resp, err := s.cli.ContainerCreate(ctx,
		&container.Config{
			Image:      opts.Image,
			Cmd:        opts.Cmd,
			Env:        opts.Env,
			WorkingDir: opts.WorkingDir,
			User:       opts.User,
		},
		&container.HostConfig{Binds: opts.Binds},
		nil, nil, opts.Name)
	if err != nil {
		return fmt.Errorf("creating container %s: %w", opts.Name, err)
	}

	if err := s.StartAndWait(ctx, resp.ID); err != nil {
		return err
	}
	return s.RemoveContainer(ctx, resp.ID)
}

// CreateContainer creates a stopped working container.
func (s *Store) CreateContainer(ctx context.Context, opts image.CreateOptions) (string, error) {
	resp, err := s.cli.ContainerCreate(ctx,
		&container.Config{Image: opts.Image, Cmd: opts.Cmd},
		nil, nil, nil, opts.Name)
	if err != nil {
		return "", fmt.Errorf("creating container %s: %w", opts.Name, err)
	}
	return resp.ID, nil
}

// StartAndWait starts a container and blocks until it exits.
func (s *Store) StartAndWait(ctx context.Context, id string) error {
	if err := s.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("starting container %s: %w", id, err)
	}

	statusCh, errCh := s.cli.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return fmt.Errorf("waiting for container %s: %w", id, err)
	case status := <-statusCh:
		if status.StatusCode != 0 {
			s.dumpLogs(ctx, id)
			return fmt.Errorf("container %s exited with status %d", id, status.StatusCode)
		}
	}
	return nil
}

// dumpLogs forwards the tail of a failed container's output to the logger.
func (s *Store) dumpLogs(ctx context.Context, id string) {
	rc, err := s.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       "50",
	})
	if err != nil {
		return
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return
	}
	s.logger.Error("container output", "id", id, "tail", string(data))
}

// CopyToContainer streams a tar archive into the container.
func (s *Store) CopyToContainer(ctx context.Context, id, dstPath string, content io.Reader) error {
	err := s.cli.CopyToContainer(ctx, id, dstPath, content, container.CopyToContainerOptions{})
	if err != nil {
		return fmt.Errorf("copying into container %s: %w", id, err)
	}
	return nil
}

// CommitContainer commits the container's filesystem as ref.
func (s *Store) CommitContainer(ctx context.Context, id string, ref image.Ref) (string, error) {
	resp, err := s.cli.ContainerCommit(ctx, id, container.CommitOptions{
		Reference: ref.String(),
	})
	if err != nil {
		return "", fmt.Errorf("committing container %s as %s: %w", id, ref, err)
	}
	return resp.ID, nil
}

// RemoveContainer force-removes a container.
func (s *Store) RemoveContainer(ctx context.Context, id string) error {
	if err := s.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("removing container %s: %w", id, err)
	}
	return nil
}
