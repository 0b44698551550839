package gitver

import (
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestParseWithDistance(t *testing.T) {
	d, err := Parse("v15.2.1-433-g12ab34cd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Version != "15.2.1" {
		t.Errorf("version = %q, want 15.2.1", d.Version)
	}
	if d.Release != "433.g12ab34cd" {
		t.Errorf("release = %q, want 433.g12ab34cd", d.Release)
	}
}

func TestParseExactTag(t *testing.T) {
	d, err := Parse("v16.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Version != "16.0.0" {
		t.Errorf("version = %q, want 16.0.0", d.Version)
	}
	if d.Release != "0" {
		t.Errorf("release = %q, want 0", d.Release)
	}
}

func TestParseNonVersionTag(t *testing.T) {
	if _, err := Parse("nightly-build"); err == nil {
		t.Error("expected error for a non-version tag")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Error("expected error for empty input")
	}
}

// initTaggedRepo creates a repository with a tagged initial commit and
// `extra` commits on top of it.
func initTaggedRepo(t *testing.T, tag string, extra int) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("git init: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}

	commit := func(msg, content string) {
		path := filepath.Join(dir, "VERSION")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		if _, err := wt.Add("VERSION"); err != nil {
			t.Fatalf("git add: %v", err)
		}
		if _, err := wt.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{Name: "test", Email: "test@test.com"},
		}); err != nil {
			t.Fatalf("git commit: %v", err)
		}
	}

	commit("initial commit", "0")
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if _, err := repo.CreateTag(tag, head.Hash(), nil); err != nil {
		t.Fatalf("git tag: %v", err)
	}

	for i := 0; i < extra; i++ {
		commit("change", string(rune('1'+i)))
	}
	return dir
}

func TestDescribeExactTag(t *testing.T) {
	dir := initTaggedRepo(t, "v15.2.0", 0)

	describe, err := Describe(dir)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if describe != "v15.2.0" {
		t.Errorf("describe = %q, want v15.2.0", describe)
	}
}

func TestDescribeWithDistance(t *testing.T) {
	dir := initTaggedRepo(t, "v15.2.0", 3)

	d, err := DescribeTree(dir)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if d.Version != "15.2.0" {
		t.Errorf("version = %q, want 15.2.0", d.Version)
	}
	if d.Release == "0" {
		t.Error("expected a non-zero release qualifier")
	}
	if want := "3.g"; len(d.Release) < 4 || d.Release[:3] != want {
		t.Errorf("release = %q, want prefix %q", d.Release, want)
	}
}

func TestDescribeNoTags(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("git init: %v", err)
	}
	wt, _ := repo.Worktree()
	if err := os.WriteFile(filepath.Join(dir, "f"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := wt.Add("f"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := wt.Commit("c", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@test.com"},
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, err := Describe(dir); err == nil {
		t.Error("expected error for a repository without tags")
	}
}

func TestDescribeNotARepo(t *testing.T) {
	if _, err := Describe(t.TempDir()); err == nil {
		t.Error("expected error for a non-repository path")
	}
}
