package shm

import (
	"fmt"
	"strings"
)

// maxNameLen is NAME_MAX for the file the name is stored under.
const maxNameLen = 255

// CanonicalName returns the portable form of a segment name: exactly one
// leading slash followed by the bare name.
func CanonicalName(name string) string {
	return "/" + strings.TrimPrefix(name, "/")
}

// posixName validates name for the POSIX and System V namespaces and returns
// its canonical form.
func posixName(name string) (string, error) {
	base := strings.TrimPrefix(name, "/")
	switch {
	case base == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	case len(base) > maxNameLen:
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, maxNameLen)
	case strings.ContainsAny(base, "/\x00"):
		return "", fmt.Errorf("%w: %q contains '/' or NUL", ErrInvalidName, name)
	case base == "." || base == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return "/" + base, nil
}

// windowsName validates name for the kernel object namespace. A leading slash is
// dropped so that portable names work unchanged; "Global\" and "Local\" prefixes
// are passed through.
func windowsName(name string) (string, error) {
	base := strings.TrimPrefix(name, "/")
	bare := base
	if i := strings.IndexByte(base, '\\'); i >= 0 {
		if prefix := base[:i]; prefix != "Global" && prefix != "Local" {
			return "", fmt.Errorf("%w: %q has unknown namespace %q", ErrInvalidName, name, prefix)
		}
		bare = base[i+1:]
	}
	switch {
	case bare == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.ContainsRune(bare, '\\'):
		return "", fmt.Errorf("%w: %q contains '\\'", ErrInvalidName, name)
	case len(base) > 260:
		return "", fmt.Errorf("%w: longer than 260 bytes", ErrInvalidName)
	case strings.ContainsRune(base, 0):
		return "", fmt.Errorf("%w: %q contains NUL", ErrInvalidName, name)
	}
	return base, nil
}

// viewSize resolves the mapped length of an attach against an object of total bytes.
func viewSize(requested, total int) (int, error) {
	switch {
	case total <= 0:
		return 0, fmt.Errorf("%w: %w", ErrInvalidSize, ErrNotSized)
	case requested < 0 || requested > total:
		return 0, fmt.Errorf("%w: requested %d bytes of a %d byte object", ErrInvalidSize, requested, total)
	case requested == 0:
		return total, nil
	}
	return requested, nil
}
