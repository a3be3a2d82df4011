//go:build linux

package shm

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The creator opens the object before sizing it; a reader arriving in between
// sees an empty object and has to wait for the ftruncate.
func TestAttachWithRetryWaitsForSize(t *testing.T) {
	if _, err := os.Stat("/dev/shm"); err != nil {
		t.Skipf("/dev/shm unavailable: %v", err)
	}
	name := testName()
	path := filepath.Join("/dev/shm", name[1:])
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	require.NoError(t, err)
	defer os.Remove(path)
	defer f.Close()

	ctx := context.Background()
	_, err = Attach(ctx, name, WithBackend(BackendPOSIX))
	require.ErrorIs(t, err, ErrNotSized)
	require.ErrorIs(t, err, ErrInvalidSize)

	go func() {
		time.Sleep(50 * time.Millisecond)
		assert.NoError(t, f.Truncate(64))
	}()

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(10*time.Millisecond), 100)
	seg, err := AttachWithRetry(ctx, name, policy, WithBackend(BackendPOSIX))
	require.NoError(t, err)
	defer seg.Close()
	assert.Equal(t, 64, seg.Size())
	assert.False(t, seg.IsCreator())
}

func TestAttachWithRetryStopsOnOversizedView(t *testing.T) {
	ctx := context.Background()
	creator, err := Create(ctx, testName(), 64, WithBackend(BackendPOSIX))
	if err != nil {
		t.Skipf("POSIX shared memory unavailable: %v", err)
	}
	defer creator.Close()

	start := time.Now()
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), 3)
	_, err = AttachWithRetry(ctx, creator.Name(), policy, WithBackend(BackendPOSIX), WithViewSize(128))
	require.ErrorIs(t, err, ErrInvalidSize)
	require.NotErrorIs(t, err, ErrNotSized)
	require.Less(t, time.Since(start), time.Second)
}
