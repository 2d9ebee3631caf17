package protocols

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("info", "/x", nil))

	err := Classify("info", "/x", &os.PathError{Op: "stat", Path: "/x", Err: os.ErrNotExist})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	// A regular file in the middle of the path.
	err = Classify("info", "/f/child", &os.PathError{Op: "stat", Path: "/f/child", Err: syscall.ENOTDIR})
	assert.ErrorIs(t, err, ErrNotFound)

	err = Classify("mkdir", "/x", fs.ErrExist)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// Clients that only report text.
	err = Classify("open", "/x", errors.New("java.io.FileNotFoundException: File /x does not exist."))
	assert.True(t, IsNotFound(err))

	plain := errors.New("connection reset")
	assert.Same(t, plain, Classify("ls", "/x", plain))

	wrapped := fmt.Errorf("wrapped: %w", InvalidArgument("rm", "/d", "cannot delete directory without recursive"))
	assert.Same(t, wrapped, Classify("rm", "/d", wrapped))
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("info", "/missing", os.ErrNotExist)
	assert.Equal(t, "info /missing: not found: file does not exist", err.Error())

	err = InvalidArgument("open", "", `unsupported mode "x"`)
	assert.Equal(t, `open unsupported mode "x"`, err.Error())
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.NotErrorIs(t, err, ErrNotFound)
}
