// Package lineinfileresource manages a single line inside a text file,
// located either by exact content or by a match pattern.
package lineinfileresource

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/conformkit/conform/internal/resources"
	conformerrors "github.com/conformkit/conform/pkg/errors"
	"github.com/conformkit/conform/pkg/resource"
)

// LineInFile describes one managed line inside the file at Path. When Match
// is set it is a regular expression locating the line to manage; otherwise
// the line is located by exact content.
type LineInFile struct {
	resource.Base `yaml:"-"`

	Path    string            `yaml:"path" prop:"key" validate:"required"`
	Line    *string           `yaml:"line" prop:"mandatory"`
	Match   *string           `yaml:"match" prop:"optional"`
	Ensure  resource.Ensure   `yaml:"ensure" prop:"optional" validate:"omitempty,oneof=present absent"`
	Reasons []resource.Reason `yaml:"reasons,omitempty" prop:"readonly"`
}

// New creates a lineinfile resource instance.
func New() resource.Resource {
	return &LineInFile{}
}

func init() {
	if err := resources.Register("lineinfile", New); err != nil {
		panic(err)
	}
}

// AssertProperties rejects property combinations no probe could satisfy.
func (l *LineInFile) AssertProperties(desired resource.DesiredState) error {
	if l.Match != nil {
		if _, err := regexp.Compile(*l.Match); err != nil {
			return conformerrors.NewValidationError("Match", "not a valid regular expression", err)
		}
	}
	if _, ok := desired["Line"]; !ok && l.Ensure != resource.EnsureAbsent {
		return conformerrors.NewValidationError("Line", "required unless ensure is absent", nil)
	}
	return nil
}

// NormalizeProperties strips a trailing newline from the managed line, so
// documents written with a block scalar compare equal to the file content.
func (l *LineInFile) NormalizeProperties(desired resource.DesiredState) {
	if line, ok := desired["Line"].(string); ok {
		trimmed := strings.TrimRight(line, "\n")
		desired["Line"] = trimmed
		l.Line = &trimmed
	}
}

func (l *LineInFile) GetCurrentState(ctx context.Context, keys map[string]any) (resource.ActualState, error) {
	path, _ := keys["Path"].(string)
	actual := resource.ActualState{}

	lines, _, err := readLines(path)
	if err != nil {
		if os.IsNotExist(err) {
			return actual, nil
		}
		return nil, err
	}

	idx, found, err := l.locate(lines)
	if err != nil {
		return nil, err
	}
	if !found {
		actual["Ensure"] = resource.EnsureAbsent
		return actual, nil
	}

	actual["Ensure"] = resource.EnsurePresent
	actual["Line"] = lines[idx]
	return actual, nil
}

func (l *LineInFile) Modify(ctx context.Context, changes map[string]any) error {
	lines, trailing, err := readLines(l.Path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	idx, found, err := l.locate(lines)
	if err != nil {
		return err
	}

	if ensure, ok := changes["Ensure"]; ok && ensure == resource.EnsureAbsent {
		if found {
			lines = append(lines[:idx], lines[idx+1:]...)
		}
		return writeLines(l.Path, lines, trailing)
	}

	line := ""
	if v, ok := changes["Line"].(string); ok {
		line = v
	} else if l.Line != nil {
		line = *l.Line
	}

	if found {
		lines[idx] = line
	} else {
		lines = append(lines, line)
		trailing = true
	}
	return writeLines(l.Path, lines, trailing)
}

// locate returns the index of the managed line. With a Match pattern the
// first matching line wins; otherwise the line is found by exact content.
func (l *LineInFile) locate(lines []string) (int, bool, error) {
	if l.Match != nil {
		re, err := regexp.Compile(*l.Match)
		if err != nil {
			return 0, false, err
		}
		for i, candidate := range lines {
			if re.MatchString(candidate) {
				return i, true, nil
			}
		}
		return 0, false, nil
	}

	if l.Line == nil {
		return 0, false, nil
	}
	for i, candidate := range lines {
		if candidate == *l.Line {
			return i, true, nil
		}
	}
	return 0, false, nil
}
