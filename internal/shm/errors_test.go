package shm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformError(t *testing.T) {
	inner := errors.New("permission denied")
	err := error(&PlatformError{Op: "shm_open", Name: "/seg", Err: inner})

	assert.ErrorIs(t, err, ErrPlatform)
	assert.ErrorIs(t, err, inner)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "shm: shm_open /seg: permission denied", err.Error())

	err = &PlatformError{Op: "statfs", Err: ErrUnsupported}
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, "shm: statfs: "+ErrUnsupported.Error(), err.Error())
}

func TestWrapErrPassesUnknownAsPlatform(t *testing.T) {
	assert.NoError(t, wrapErr("op", "/seg", nil))

	err := wrapErr("op", "/seg", errors.New("boom"))
	var perr *PlatformError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, "op", perr.Op)
}

func TestLookup(t *testing.T) {
	b, err := Lookup("")
	assert.NoError(t, err)
	assert.Equal(t, Default().Kind(), b.Kind())

	_, err = Lookup("no-such-backend")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, err, ErrPlatform)
}
