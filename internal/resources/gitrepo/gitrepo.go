// Package gitreporesource manages a local clone of a git repository.
package gitreporesource

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/conformkit/conform/internal/resources"
	conformerrors "github.com/conformkit/conform/pkg/errors"
	"github.com/conformkit/conform/pkg/resource"
)

// GitRepo describes a clone at Path tracking URL. Commit is reported by the
// probe but never enforced.
type GitRepo struct {
	resource.Base `yaml:"-"`

	Path    string            `yaml:"path" prop:"key" validate:"required"`
	URL     *string           `yaml:"url" prop:"mandatory" validate:"omitempty,min=1"`
	Branch  *string           `yaml:"branch" prop:"optional"`
	Depth   *int              `yaml:"depth" prop:"optional" validate:"omitempty,min=0"`
	Ensure  resource.Ensure   `yaml:"ensure" prop:"optional" validate:"omitempty,oneof=present absent"`
	Commit  string            `yaml:"commit,omitempty" prop:"readonly"`
	Reasons []resource.Reason `yaml:"reasons,omitempty" prop:"readonly"`
}

// New creates a gitrepo resource instance.
func New() resource.Resource {
	return &GitRepo{}
}

func init() {
	if err := resources.Register("gitrepo", New); err != nil {
		panic(err)
	}
}

// AssertProperties rejects property combinations no clone could satisfy.
func (g *GitRepo) AssertProperties(desired resource.DesiredState) error {
	if _, ok := desired["URL"]; !ok && g.Ensure != resource.EnsureAbsent {
		return conformerrors.NewValidationError("URL", "required unless ensure is absent", nil)
	}
	if g.Depth != nil && *g.Depth < 0 {
		return conformerrors.NewValidationError("Depth", "must not be negative", nil)
	}
	return nil
}

func (g *GitRepo) GetCurrentState(ctx context.Context, keys map[string]any) (resource.ActualState, error) {
	path, _ := keys["Path"].(string)
	actual := resource.ActualState{}

	repo, err := git.PlainOpen(path)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return actual, nil
		}
		return nil, err
	}

	actual["Ensure"] = resource.EnsurePresent

	if remote, err := repo.Remote(git.DefaultRemoteName); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			actual["URL"] = urls[0]
		}
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			actual["Branch"] = head.Name().Short()
		}
		actual["Commit"] = head.Hash().String()
	}

	return actual, nil
}

func (g *GitRepo) Modify(ctx context.Context, changes map[string]any) error {
	if ensure, ok := changes["Ensure"]; ok && ensure == resource.EnsureAbsent {
		return os.RemoveAll(g.Path)
	}

	url := ""
	if v, ok := changes["URL"].(string); ok {
		url = v
	} else if g.URL != nil {
		url = *g.URL
	}

	repo, err := git.PlainOpen(g.Path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return g.clone(ctx, url)
	}
	if err != nil {
		return err
	}

	if _, ok := changes["URL"]; ok {
		if err := repo.DeleteRemote(git.DefaultRemoteName); err != nil && !errors.Is(err, git.ErrRemoteNotFound) {
			return err
		}
		if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
			Name: git.DefaultRemoteName,
			URLs: []string{url},
		}); err != nil {
			return err
		}
	}

	if branch, ok := changes["Branch"].(string); ok {
		worktree, err := repo.Worktree()
		if err != nil {
			return err
		}
		return worktree.Checkout(&git.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName(branch),
		})
	}

	return nil
}

func (g *GitRepo) clone(ctx context.Context, url string) error {
	if err := os.MkdirAll(filepath.Dir(g.Path), 0o755); err != nil {
		return err
	}

	opts := &git.CloneOptions{URL: url}
	if g.Depth != nil && *g.Depth > 0 {
		opts.Depth = *g.Depth
	}
	if g.Branch != nil && *g.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(*g.Branch)
		opts.SingleBranch = true
	}

	_, err := git.PlainCloneContext(ctx, g.Path, false, opts)
	return err
}
