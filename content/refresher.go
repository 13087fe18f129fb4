// Package content keeps the static site checkout in sync with its git
// repository. The served files live under <dir>/public.
package content

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"
)

// Refresher owns the local checkout of the site content repository.
type Refresher struct {
	url string
	dir string
}

func NewRefresher(url, dir string) *Refresher {
	return &Refresher{url: url, dir: dir}
}

// PublicDir is the directory of servable files inside the checkout.
func (r *Refresher) PublicDir() string {
	return filepath.Join(r.dir, "public")
}

// Refresh brings the checkout up to date: open the existing repository and
// pull, or clone it fresh if the directory holds no repository yet.
func (r *Refresher) Refresh(ctx context.Context) error {
	repo, err := git.PlainOpen(r.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		logrus.WithField("url", r.url).Info("Cloning site content repository")
		_, err = git.PlainCloneContext(ctx, r.dir, false, &git.CloneOptions{URL: r.url})
		if err != nil {
			return fmt.Errorf("failed to clone content repository: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open content repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get content worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		logrus.Debug("Site content already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to pull content repository: %w", err)
	}

	logrus.Info("Site content refreshed")
	return nil
}
