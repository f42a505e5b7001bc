// Package symlinkresource manages filesystem symbolic links.
package symlinkresource

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/conformkit/conform/internal/resources"
	"github.com/conformkit/conform/pkg/resource"
)

// Symlink describes a symbolic link at Path pointing at Target.
type Symlink struct {
	resource.Base `yaml:"-"`

	Path    string            `yaml:"path" prop:"key" validate:"required"`
	Target  *string           `yaml:"target" prop:"mandatory" validate:"omitempty,min=1"`
	Ensure  resource.Ensure   `yaml:"ensure" prop:"optional" validate:"omitempty,oneof=present absent"`
	Reasons []resource.Reason `yaml:"reasons,omitempty" prop:"readonly"`
}

// New creates a symlink resource instance.
func New() resource.Resource {
	return &Symlink{}
}

func init() {
	if err := resources.Register("symlink", New); err != nil {
		panic(err)
	}
}

// NormalizeProperties cleans paths and expands a leading "~" so equivalent
// spellings compare equal.
func (s *Symlink) NormalizeProperties(desired resource.DesiredState) {
	s.Path = canonicalPath(s.Path)
	if _, ok := desired["Path"]; ok {
		desired["Path"] = s.Path
	}
	if target, ok := desired["Target"].(string); ok {
		canonical := canonicalPath(target)
		desired["Target"] = canonical
		s.Target = &canonical
	}
}

func (s *Symlink) GetCurrentState(ctx context.Context, keys map[string]any) (resource.ActualState, error) {
	path, _ := keys["Path"].(string)
	actual := resource.ActualState{}

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return actual, nil
		}
		return nil, err
	}

	actual["Ensure"] = resource.EnsurePresent
	if info.Mode()&os.ModeSymlink == 0 {
		// Something occupies the path but it is not a link.
		return actual, nil
	}

	target, err := os.Readlink(path)
	if err != nil {
		return nil, err
	}
	actual["Target"] = target
	return actual, nil
}

func (s *Symlink) Modify(ctx context.Context, changes map[string]any) error {
	if ensure, ok := changes["Ensure"]; ok && ensure == resource.EnsureAbsent {
		if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	target := ""
	if v, ok := changes["Target"].(string); ok {
		target = v
	} else if s.Target != nil {
		target = *s.Target
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	if _, err := os.Lstat(s.Path); err == nil {
		if err := os.Remove(s.Path); err != nil {
			return err
		}
	}
	return os.Symlink(target, s.Path)
}

func canonicalPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return filepath.Clean(path)
}
