package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	imagetypes "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// mockClient is a hand-written fake of the daemon client for testing.
type mockClient struct {
	// State
	Images []imagetypes.Summary

	// Error injection per method
	ImageListError       error
	ImageBuildError      error
	ImageTagError        error
	ImageRemoveError     error
	ContainerCreateError error
	ContainerStartError  error
	ContainerCommitError error
	CopyError            error

	// Exit status reported by ContainerWait
	WaitStatusCode int64

	// Call tracking
	BuiltTags        []string
	BuildArgs        map[string]*string
	BuildContexts    [][]byte
	Tagged           [][2]string
	RemovedImages    []string
	CreatedNames     []string
	CreatedConfigs   []container.Config
	CreatedHosts     []container.HostConfig
	StartedIDs       []string
	RemovedIDs       []string
	CommittedRefs    []string
	CopiedPaths      []string
	CopiedArchives   [][]byte
	LogsRequested    []string
	nextContainerSeq int
}

func (m *mockClient) Ping(ctx context.Context) (types.Ping, error) {
	return types.Ping{}, nil
}

func (m *mockClient) ImageList(ctx context.Context, options imagetypes.ListOptions) ([]imagetypes.Summary, error) {
	if m.ImageListError != nil {
		return nil, m.ImageListError
	}
	if options.Filters.Len() == 0 {
		return m.Images, nil
	}
	// The daemon filters by reference pattern; the fake only needs exact
	// and repository-level matches.
	patterns := options.Filters.Get("reference")
	var out []imagetypes.Summary
	for _, img := range m.Images {
		for _, rt := range img.RepoTags {
			if matchesAny(rt, patterns) {
				out = append(out, img)
				break
			}
		}
	}
	return out, nil
}

func matchesAny(repoTag string, patterns []string) bool {
	for _, p := range patterns {
		if repoTag == p || repoTag == p+":latest" {
			return true
		}
		// repository-only pattern matches any tag
		if idx := len(p); idx < len(repoTag) && repoTag[:idx] == p && repoTag[idx] == ':' {
			return true
		}
	}
	return false
}

func (m *mockClient) ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	if m.ImageBuildError != nil {
		return types.ImageBuildResponse{}, m.ImageBuildError
	}
	data, _ := io.ReadAll(buildContext)
	m.BuildContexts = append(m.BuildContexts, data)
	m.BuiltTags = append(m.BuiltTags, options.Tags...)
	m.BuildArgs = options.BuildArgs
	for _, tag := range options.Tags {
		m.Images = append(m.Images, imagetypes.Summary{
			ID:       fmt.Sprintf("sha256:built%d", len(m.BuiltTags)),
			RepoTags: []string{tag},
		})
	}
	body := `{"stream":"Step 1/1 : FROM scratch"}` + "\n" +
		`{"aux":{"ID":"sha256:deadbeef"}}` + "\n"
	return types.ImageBuildResponse{
		Body: io.NopCloser(bytes.NewReader([]byte(body))),
	}, nil
}

func (m *mockClient) ImageTag(ctx context.Context, source, target string) error {
	if m.ImageTagError != nil {
		return m.ImageTagError
	}
	m.Tagged = append(m.Tagged, [2]string{source, target})
	return nil
}

func (m *mockClient) ImageRemove(ctx context.Context, imageID string, options imagetypes.RemoveOptions) ([]imagetypes.DeleteResponse, error) {
	if m.ImageRemoveError != nil {
		return nil, m.ImageRemoveError
	}
	m.RemovedImages = append(m.RemovedImages, imageID)
	return nil, nil
}

func (m *mockClient) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
	networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error) {
	if m.ContainerCreateError != nil {
		return container.CreateResponse{}, m.ContainerCreateError
	}
	m.CreatedNames = append(m.CreatedNames, containerName)
	if config != nil {
		m.CreatedConfigs = append(m.CreatedConfigs, *config)
	}
	if hostConfig != nil {
		m.CreatedHosts = append(m.CreatedHosts, *hostConfig)
	}
	m.nextContainerSeq++
	return container.CreateResponse{ID: fmt.Sprintf("ctr-%d", m.nextContainerSeq)}, nil
}

func (m *mockClient) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	if m.ContainerStartError != nil {
		return m.ContainerStartError
	}
	m.StartedIDs = append(m.StartedIDs, containerID)
	return nil
}

func (m *mockClient) ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	statusCh := make(chan container.WaitResponse, 1)
	errCh := make(chan error, 1)
	statusCh <- container.WaitResponse{StatusCode: m.WaitStatusCode}
	return statusCh, errCh
}

func (m *mockClient) ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error) {
	m.LogsRequested = append(m.LogsRequested, containerID)
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (m *mockClient) ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error {
	m.RemovedIDs = append(m.RemovedIDs, containerID)
	return nil
}

func (m *mockClient) ContainerCommit(ctx context.Context, containerID string, options container.CommitOptions) (types.IDResponse, error) {
	if m.ContainerCommitError != nil {
		return types.IDResponse{}, m.ContainerCommitError
	}
	m.CommittedRefs = append(m.CommittedRefs, options.Reference)
	m.Images = append(m.Images, imagetypes.Summary{
		ID:       "sha256:committed",
		RepoTags: []string{options.Reference},
	})
	return types.IDResponse{ID: "sha256:committed"}, nil
}

func (m *mockClient) CopyToContainer(ctx context.Context, containerID, dstPath string, content io.Reader, options container.CopyToContainerOptions) error {
	if m.CopyError != nil {
		return m.CopyError
	}
	data, _ := io.ReadAll(content)
	m.CopiedPaths = append(m.CopiedPaths, dstPath)
	m.CopiedArchives = append(m.CopiedArchives, data)
	return nil
}
