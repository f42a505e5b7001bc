package lineinfileresource

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultFileMode os.FileMode = 0o644

// readLines loads the file content as a line slice plus whether the content
// ended in a newline.
func readLines(path string) ([]string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}

	content := string(data)
	if content == "" {
		return []string{}, false, nil
	}

	trailing := strings.HasSuffix(content, "\n")
	if trailing {
		content = strings.TrimSuffix(content, "\n")
	}
	if content == "" {
		return []string{}, trailing, nil
	}
	return strings.Split(content, "\n"), trailing, nil
}

// writeLines replaces the file content atomically via a temp file in the
// same directory, preserving existing permissions.
func writeLines(path string, lines []string, trailing bool) error {
	content := strings.Join(lines, "\n")
	if trailing && content != "" {
		content += "\n"
	}

	perm := defaultFileMode
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".lineinfile-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
