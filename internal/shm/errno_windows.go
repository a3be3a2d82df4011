//go:build windows

package shm

import (
	"errors"

	"golang.org/x/sys/windows"
)

func classify(err error) error {
	switch {
	case errors.Is(err, windows.ERROR_FILE_NOT_FOUND):
		return ErrNotFound
	case errors.Is(err, windows.ERROR_ALREADY_EXISTS):
		return ErrAlreadyExists
	}
	return nil
}
