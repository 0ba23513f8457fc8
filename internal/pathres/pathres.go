package pathres

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound      = errors.New("target does not exist")
	ErrNotADirectory = errors.New("target is not a directory")
)

// Resolve converts input to an absolute, cleaned path and verifies it names
// a directory. The final component is inspected with Lstat, so a symlink
// pointing at a directory is rejected rather than followed; deleting through
// such a link would escape the intended subtree.
//
// Resolve performs metadata queries only and never modifies the filesystem.
func Resolve(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("empty path: %w", ErrNotFound)
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("%s: %w", input, ErrNotFound)
	}
	abs = filepath.Clean(abs)

	info, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", abs, ErrNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("%s is a symbolic link: %w", abs, ErrNotADirectory)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, ErrNotADirectory)
	}

	return abs, nil
}
