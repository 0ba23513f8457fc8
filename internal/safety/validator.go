package safety

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var ErrProtectedPath = errors.New("protected path")

// Validator refuses deletion targets that would take out system-critical
// trees. It is checked once per run, after path resolution and before any
// removal is attempted.
type Validator struct {
	ProtectedPaths []string
}

// NewValidator creates a validator with the base protected set plus any
// extra prefixes from configuration.
func NewValidator(extraProtected []string) *Validator {
	return &Validator{
		ProtectedPaths: defaultProtected(extraProtected),
	}
}

// ValidateDeleteTarget is the single-source-of-truth for delete
// authorization. The path must already be absolute and cleaned.
func (v *Validator) ValidateDeleteTarget(path string) error {
	if IsProtectedPath(path, v.ProtectedPaths) {
		return ErrProtectedPath
	}
	return nil
}

// IsProtectedPath checks if path is, or sits inside, a protected prefix.
func IsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)

	// Hard block: "/" exact
	if p == string(os.PathSeparator) {
		return true
	}

	for _, prot := range protected {
		prot = filepath.Clean(prot)
		if p == prot || hasPathPrefix(p, prot) {
			return true
		}
	}
	return false
}

func hasPathPrefix(path, prefix string) bool {
	if prefix == string(os.PathSeparator) {
		return path == prefix
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

// defaultProtected returns the base set of protected prefixes plus extras.
// The base covers trees no deletion tool should ever be pointed at.
func defaultProtected(extra []string) []string {
	base := []string{
		"/bin",
		"/boot",
		"/dev",
		"/etc",
		"/lib",
		"/lib64",
		"/proc",
		"/sbin",
		"/sys",
		"/usr",
	}
	return append(base, extra...)
}
