package protocols

import (
	"errors"
	"io"
	"net/textproto"
	"testing"

	"github.com/jlaffaye/ftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFTPError(t *testing.T) {
	unavailable := &textproto.Error{Code: ftp.StatusFileUnavailable, Msg: "No such file"}
	err := ftpError("info", "/x", unavailable)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, unavailable)

	notLoggedIn := &textproto.Error{Code: ftp.StatusNotLoggedIn, Msg: "Not logged in"}
	assert.Same(t, notLoggedIn, ftpError("info", "/x", notLoggedIn))

	assert.NoError(t, ftpError("info", "/x", nil))
}

func TestFTPWriterWaitsForUpload(t *testing.T) {
	var stored []byte
	w := newFTPWriter("/up/a.txt", func(p string, r io.Reader) error {
		assert.Equal(t, "/up/a.txt", p)
		var err error
		stored, err = io.ReadAll(r)
		return err
	})

	_, err := w.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = w.Write([]byte("world"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "hello world", string(stored))
}

func TestFTPWriterReportsRejectedUpload(t *testing.T) {
	rejected := &textproto.Error{Code: 552, Msg: "Quota exceeded"}
	w := newFTPWriter("/up/b.txt", func(string, io.Reader) error {
		return rejected
	})

	// Writes fail once the server has refused the transfer.
	_, err := w.Write([]byte("data"))
	assert.ErrorIs(t, err, rejected)
	assert.ErrorIs(t, w.Close(), rejected)
}

func TestFTPWriterStoreError(t *testing.T) {
	w := newFTPWriter("/up/c.txt", func(_ string, r io.Reader) error {
		buf := make([]byte, 2)
		_, _ = io.ReadFull(r, buf)
		return errors.New("426 connection closed")
	})

	_, _ = w.Write([]byte("ab"))
	assert.EqualError(t, w.Close(), "426 connection closed")
}
