// Package gitver derives the version descriptor for a source tree from its
// git metadata, reproducing describe-style output of the form
// "<tag>-<commits>-g<hash>" and splitting it into the numeric version and
// release qualifier the recipe substitution expects.
//
// The distance is the shortest ancestor-path length from HEAD to the tagged
// commit, not git describe's count of commits reachable from HEAD but not
// from the tag; the two diverge on merge-heavy history. The qualifier only
// has to identify and order builds, which the path length does.
package gitver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Descriptor is the split form of a describe string.
type Descriptor struct {
	// Version is the nearest tag without its leading "v", e.g. "15.2.1".
	Version string
	// Release qualifies the version with the distance from the tag, with
	// "-" replaced by ".", e.g. "433.g12ab34cd". "0" for an exactly
	// tagged tree.
	Release string
}

var describeRe = regexp.MustCompile(`^(.+)-(\d+)-g([0-9a-f]+)$`)

// Parse splits describe-style output. Input without a distance suffix is an
// exactly tagged tree.
func Parse(describe string) (Descriptor, error) {
	describe = strings.TrimSpace(describe)
	if describe == "" {
		return Descriptor{}, fmt.Errorf("empty describe output")
	}

	tag := describe
	release := "0"
	if m := describeRe.FindStringSubmatch(describe); m != nil {
		tag = m[1]
		release = m[2] + ".g" + m[3]
	}

	version := strings.TrimPrefix(tag, "v")
	if _, err := semver.NewVersion(version); err != nil {
		return Descriptor{}, fmt.Errorf("tag %q is not a version: %w", tag, err)
	}
	return Descriptor{Version: version, Release: release}, nil
}

// Describe computes describe-style output for the repository at path:
// the nearest tag reachable from HEAD, the commit distance to it, and the
// abbreviated HEAD hash.
func Describe(path string) (string, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return "", fmt.Errorf("opening repository %s: %w", path, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}

	tags, err := tagsByCommit(repo)
	if err != nil {
		return "", err
	}
	if len(tags) == 0 {
		return "", fmt.Errorf("no tags reachable in %s", path)
	}

	tag, distance, err := nearestTag(repo, head.Hash(), tags)
	if err != nil {
		return "", err
	}
	if distance == 0 {
		return tag, nil
	}
	return fmt.Sprintf("%s-%d-g%s", tag, distance, head.Hash().String()[:8]), nil
}

// DescribeTree is Describe followed by Parse.
func DescribeTree(path string) (Descriptor, error) {
	describe, err := Describe(path)
	if err != nil {
		return Descriptor{}, err
	}
	return Parse(describe)
}

// tagsByCommit maps commit hashes to tag names, resolving annotated tags to
// their target commits.
func tagsByCommit(repo *git.Repository) (map[plumbing.Hash]string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	tags := make(map[plumbing.Hash]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if tagObj, err := repo.TagObject(hash); err == nil {
			hash = tagObj.Target
		}
		tags[hash] = ref.Name().Short()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolving tags: %w", err)
	}
	return tags, nil
}

// nearestTag walks breadth-first from start and returns the closest tagged
// commit and its shortest-path distance (see the package doc for how that
// relates to git describe's count).
func nearestTag(repo *git.Repository, start plumbing.Hash, tags map[plumbing.Hash]string) (string, int, error) {
	type entry struct {
		hash     plumbing.Hash
		distance int
	}

	seen := map[plumbing.Hash]bool{start: true}
	queue := []entry{{hash: start}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if tag, ok := tags[cur.hash]; ok {
			return tag, cur.distance, nil
		}

		commit, err := repo.CommitObject(cur.hash)
		if err != nil {
			return "", 0, fmt.Errorf("loading commit %s: %w", cur.hash, err)
		}
		for _, parent := range commit.ParentHashes {
			if seen[parent] {
				continue
			}
			seen[parent] = true
			queue = append(queue, entry{hash: parent, distance: cur.distance + 1})
		}
	}
	return "", 0, fmt.Errorf("no tag reachable from %s", start)
}
