// Package ghpages publishes a directory of rendered documentation to a
// GitHub Pages branch. The commit is assembled in a scratch repository so
// the project's own work tree and index are never touched.
package ghpages

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Options controls where and how the site is published.
type Options struct {
	// Remote is the git remote the pages branch is pushed to, "origin"
	// when empty.
	Remote string
	// Branch is the pages branch, "gh-pages" when empty.
	Branch string
	// Message is the commit message.
	Message string
	// Force overwrites a diverged remote branch instead of failing.
	Force bool
}

// Deploy commits the contents of siteDir onto the pages branch and pushes
// it to the remote configured in repoDir. Existing branch history is kept:
// the previous head becomes the parent of the new commit, so a plain push
// stays a fast-forward.
func Deploy(ctx context.Context, repoDir, siteDir string, opts Options) error {
	remote := opts.Remote
	if remote == "" {
		remote = "origin"
	}
	branch := opts.Branch
	if branch == "" {
		branch = "gh-pages"
	}
	message := opts.Message
	if message == "" {
		message = "Update documentation"
	}

	url, err := remoteURL(ctx, repoDir, remote)
	if err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "snakedoc-pages-*")
	if err != nil {
		return fmt.Errorf("creating scratch repository: %w", err)
	}
	defer os.RemoveAll(scratch)

	if _, err := runGit(ctx, scratch, "init", "-q", "-b", branch); err != nil {
		return err
	}
	if err := copyTree(siteDir, scratch); err != nil {
		return fmt.Errorf("copying site: %w", err)
	}
	// GitHub serves the branch through Jekyll unless told not to, and
	// Jekyll drops files with leading underscores.
	if err := os.WriteFile(filepath.Join(scratch, ".nojekyll"), nil, 0644); err != nil {
		return fmt.Errorf("writing .nojekyll: %w", err)
	}
	if _, err := runGit(ctx, scratch, "add", "-A"); err != nil {
		return err
	}

	// A missing remote branch is fine, this is then the first deploy.
	if _, err := runGit(ctx, scratch, "fetch", url, branch); err == nil {
		if _, err := runGit(ctx, scratch, "reset", "--soft", "FETCH_HEAD"); err != nil {
			return err
		}
	}

	// Redeploying an unchanged site still records a commit, so repeat
	// deploys never fail on "nothing to commit".
	if _, err := runGit(ctx, scratch, "commit", "-q", "--allow-empty", "-m", message); err != nil {
		return err
	}

	args := []string{"push", url, "HEAD:" + branch}
	if opts.Force {
		args = append(args, "--force")
	}
	if _, err := runGit(ctx, scratch, args...); err != nil {
		return err
	}

	log.Printf("ghpages: pushed %s to %s on %s", siteDir, branch, remote)
	return nil
}

func remoteURL(ctx context.Context, repoDir, remote string) (string, error) {
	out, err := runGit(ctx, repoDir, "remote", "get-url", remote)
	if err != nil {
		return "", fmt.Errorf("reading URL of remote %s: %w", remote, err)
	}
	return strings.TrimSpace(out), nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// copyTree copies every file under src into dst, creating directories as
// needed.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}
