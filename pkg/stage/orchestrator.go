package stage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jecluis/ceph-amazing-builder/pkg/image"
)

// Orchestrator walks the stage chain, building only what is absent.
//
// The existence-check-then-build sequence is a check-then-act race when two
// invocations run concurrently against the same cache key: both may observe
// "absent" and both build, with the second commit winning. No mutual
// exclusion is provided; concurrent invocations are outside the supported
// mode of operation.
type Orchestrator struct {
	store  image.Store
	logger *slog.Logger
}

// NewOrchestrator creates an Orchestrator over an image store.
func NewOrchestrator(store image.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{store: store, logger: logger}
}

// Ensure visits every stage in dependency order and builds the ones whose
// image is absent. With force set, every stage is rebuilt regardless of
// prior existence.
func (o *Orchestrator) Ensure(ctx context.Context, vendor, release string, force bool) error {
	for _, s := range Order {
		if err := o.ensureStage(ctx, Key(s, vendor, release), force); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) ensureStage(ctx context.Context, key CacheKey, force bool) error {
	ref := key.Ref()
	exists, err := o.store.ImageExists(ctx, ref)
	if err != nil {
		return fmt.Errorf("stage %s: %w", key.Stage, err)
	}
	if exists && !force {
		o.logger.Debug("stage image present, skipping", "stage", string(key.Stage), "ref", ref.String())
		return nil
	}

	recipe, err := Recipe(key.Stage)
	if err != nil {
		return err
	}

	o.logger.Info("building stage image", "stage", string(key.Stage), "ref", ref.String())
	_, err = o.store.BuildImage(ctx, image.BuildOptions{
		Ref:        ref,
		Dockerfile: recipe,
		BuildArgs: map[string]string{
			"VENDOR":  key.Vendor,
			"RELEASE": key.Release,
		},
		NoCache: force,
	})
	if err != nil {
		return fmt.Errorf("stage %s: %w", key.Stage, err)
	}
	return nil
}

// ResolveBase picks the image a build starts from. In incremental mode the
// most recent final image tagged "latest" for the build name replaces the
// ordinary build environment, enabling patch-style rebuilds; when that image
// cannot be found the ordinary build environment is used instead of failing.
func (o *Orchestrator) ResolveBase(ctx context.Context, buildName, vendor, release string, incremental bool) (image.Ref, error) {
	buildEnv := Key(StageBuildEnv, vendor, release).Ref()
	if !incremental || buildName == "" {
		return buildEnv, nil
	}

	latest := LatestRef(buildName)
	exists, err := o.store.ImageExists(ctx, latest)
	if err != nil {
		return image.Ref{}, fmt.Errorf("resolving incremental base: %w", err)
	}
	if !exists {
		o.logger.Warn("no previous image for incremental build, using base",
			"build", buildName, "base", buildEnv.String())
		return buildEnv, nil
	}
	return latest, nil
}
