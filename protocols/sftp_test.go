package protocols_test

import (
	"net"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/require"

	"hdfsbridge/protocols"
	"hdfsbridge/protocols/fstest"
)

// newSFTPFileSystem serves the local disk through an in-process SFTP server.
func newSFTPFileSystem(t *testing.T) (protocols.FileSystem, string) {
	serverConn, clientConn := net.Pipe()

	server, err := sftp.NewServer(serverConn)
	require.NoError(t, err)
	go func() { _ = server.Serve() }()
	t.Cleanup(func() { _ = server.Close() })

	client, err := sftp.NewClientPipe(clientConn, clientConn)
	require.NoError(t, err)

	return protocols.NewSFTPWithClient(client, t.TempDir()), "/"
}

func TestSFTPFileSystem(t *testing.T) {
	suite := &fstest.Suite{NewFileSystem: newSFTPFileSystem}
	suite.Run(t)
}
