package shm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "/seg1", CanonicalName("seg1"))
	assert.Equal(t, "/seg1", CanonicalName("/seg1"))
}

func TestPOSIXName(t *testing.T) {
	name, err := posixName("seg1")
	require.NoError(t, err)
	assert.Equal(t, "/seg1", name)

	name, err = posixName("/seg1")
	require.NoError(t, err)
	assert.Equal(t, "/seg1", name)

	for _, bad := range []string{"", "/", "/a/b", "a\x00b", "..", strings.Repeat("x", maxNameLen+1)} {
		_, err := posixName(bad)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", bad)
	}
}

func TestWindowsName(t *testing.T) {
	name, err := windowsName("/seg1")
	require.NoError(t, err)
	assert.Equal(t, "seg1", name)

	name, err = windowsName(`Local\seg1`)
	require.NoError(t, err)
	assert.Equal(t, `Local\seg1`, name)

	for _, bad := range []string{"", "/", `Other\seg1`, `Global\a\b`, `Global\`} {
		_, err := windowsName(bad)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", bad)
	}
}

func TestViewSize(t *testing.T) {
	n, err := viewSize(0, 4096)
	require.NoError(t, err)
	assert.Equal(t, 4096, n)

	n, err = viewSize(64, 4096)
	require.NoError(t, err)
	assert.Equal(t, 64, n)

	_, err = viewSize(4097, 4096)
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = viewSize(0, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)
	assert.ErrorIs(t, err, ErrNotSized)
	_, err = viewSize(4097, 4096)
	assert.NotErrorIs(t, err, ErrNotSized)
}
