package hdfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdfsbridge/protocols"
)

func TestConfigFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Config
	}{
		{
			name: "full",
			url:  "hdfs://etl@namenode:9000/data?replication=2",
			want: Config{Host: "namenode", Port: 9000, User: "etl", Replication: 2},
		},
		{
			name: "no host uses default namenode",
			url:  "hdfs:///data",
			want: Config{Host: DefaultHost},
		},
		{
			name: "host only",
			url:  "hdfs://namenode/data",
			want: Config{Host: "namenode"},
		},
		{
			name: "block size",
			url:  "hdfs://namenode/data?block_size=128MiB",
			want: Config{Host: "namenode", BlockSize: 128 << 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ConfigFromURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestConfigFromURLRejectsBadReplication(t *testing.T) {
	for _, v := range []string{"0", "-1", "two"} {
		_, err := ConfigFromURL("hdfs://namenode/data?replication=" + v)
		assert.ErrorIs(t, err, protocols.ErrInvalidArgument, v)
	}
}

func TestConfigAddress(t *testing.T) {
	assert.Equal(t, "namenode:8020", Config{Host: "namenode"}.Address())
	assert.Equal(t, "namenode:9000", Config{Host: "namenode", Port: 9000}.Address())
}

func TestResolveUser(t *testing.T) {
	u, err := Config{User: "alice"}.ResolveUser()
	require.NoError(t, err)
	assert.Equal(t, "alice", u)

	t.Setenv("HADOOP_USER_NAME", "hadoop")
	u, err = Config{}.ResolveUser()
	require.NoError(t, err)
	assert.Equal(t, "hadoop", u)
}
