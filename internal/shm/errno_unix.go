//go:build unix

package shm

import (
	"errors"

	"golang.org/x/sys/unix"
)

func classify(err error) error {
	switch {
	case errors.Is(err, unix.ENOENT):
		return ErrNotFound
	case errors.Is(err, unix.EEXIST):
		return ErrAlreadyExists
	}
	return nil
}
