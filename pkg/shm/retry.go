package shm

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
)

// AttachWithRetry attaches to name, retrying while the segment does not exist yet
// or exists but has not been sized by its creator. It is meant for readers racing
// the process that creates the segment; any other error stops the retries. A nil policy uses an exponential backoff. Retries end
// when ctx is done.
func AttachWithRetry(ctx context.Context, name string, policy backoff.BackOff, opts ...Option) (*Segment, error) {
	if policy == nil {
		policy = backoff.NewExponentialBackOff()
	}
	var seg *Segment
	op := func() error {
		s, err := Attach(ctx, name, opts...)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotSized) {
				internalLogger.tracef("attach %s: %v, retrying", name, err)
				return err
			}
			return backoff.Permanent(err)
		}
		seg = s
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return seg, nil
}
