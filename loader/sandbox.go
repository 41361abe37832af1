package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePath resolves name against root and checks the result cannot
// escape it, the same sandboxing discipline as the teacher's
// vm.VM.ValidatePath: reject empty paths and ".." components, strip a
// leading "/" so an absolute-looking BASIC filename is still treated as
// relative to root, resolve symlinks where possible, and confirm the
// canonical result is still inside the canonical root. It returns the
// absolute path LOAD/SAVE should actually open.
func ValidatePath(root, name string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("filesystem root not configured")
	}
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("file name contains '..' component")
	}
	name = strings.TrimPrefix(name, "/")

	fullPath := filepath.Clean(filepath.Join(root, name))

	resolved, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("symlink resolution failed: %w", err)
		}
		parent, perr := filepath.EvalSymlinks(filepath.Dir(fullPath))
		switch {
		case perr == nil:
			resolved = filepath.Join(parent, filepath.Base(fullPath))
		case os.IsNotExist(perr):
			resolved = fullPath
		default:
			return "", fmt.Errorf("parent directory symlink resolution failed: %w", perr)
		}
	}

	canonicalRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve filesystem root: %w", err)
	}
	canonicalRoot = filepath.Clean(canonicalRoot)
	resolved = filepath.Clean(resolved)

	rel, err := filepath.Rel(canonicalRoot, resolved)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("file '%s' is outside allowed filesystem root '%s'", name, root)
	}

	return fullPath, nil
}
