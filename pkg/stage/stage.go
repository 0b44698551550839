// Package stage decides which images of the build pipeline must be
// (re)built. Each stage is a memoized artifact keyed by a small cache key;
// existing images are reused unless a rebuild is forced.
package stage

import (
	"embed"
	"fmt"

	"github.com/jecluis/ceph-amazing-builder/pkg/image"
)

// Stage is one cached step of the image dependency chain.
type Stage string

const (
	// StageBootstrap is the shared seed image all vendors start from.
	StageBootstrap Stage = "bootstrap"
	// StageReleaseBase carries the approximate runtime dependency
	// closure for a (vendor, release) pair.
	StageReleaseBase Stage = "release-base"
	// StageBuildEnv adds the build dependencies and the builder user on
	// top of the release base.
	StageBuildEnv Stage = "build-env"
)

// Order is the fixed dependency order stages are visited in. A later stage
// may only be built when its predecessor's image is present.
var Order = []Stage{StageBootstrap, StageReleaseBase, StageBuildEnv}

// CacheKey identifies one cached stage image. The bootstrap stage has a
// constant key: its vendor and release are ignored.
type CacheKey struct {
	Stage   Stage
	Vendor  string
	Release string
}

// Key builds the cache key for a stage.
func Key(s Stage, vendor, release string) CacheKey {
	if s == StageBootstrap {
		return CacheKey{Stage: s}
	}
	return CacheKey{Stage: s, Vendor: vendor, Release: release}
}

// Ref maps the key to its image reference.
func (k CacheKey) Ref() image.Ref {
	switch k.Stage {
	case StageBootstrap:
		return image.NewRef("cab/bootstrap", "latest")
	case StageReleaseBase:
		return image.NewRef("cab/base/release/"+k.Vendor, k.Release)
	case StageBuildEnv:
		return image.NewRef("cab/builder/"+k.Vendor, k.Release)
	}
	return image.Ref{}
}

// BuildRepository is the repository final images are committed under.
const BuildRepository = "cab-builds"

// FinalRef is the reference of a committed final image.
func FinalRef(buildName, tag string) image.Ref {
	return image.NewRef(BuildRepository+"/"+buildName, tag)
}

// LatestRef is the mutable "latest" alias for a build name.
func LatestRef(buildName string) image.Ref {
	return FinalRef(buildName, "latest")
}

//go:embed dockerfiles
var dockerfiles embed.FS

// Recipe returns the embedded Dockerfile for a stage.
func Recipe(s Stage) ([]byte, error) {
	data, err := dockerfiles.ReadFile(fmt.Sprintf("dockerfiles/%s.Dockerfile", s))
	if err != nil {
		return nil, fmt.Errorf("no recipe for stage %s: %w", s, err)
	}
	return data, nil
}
