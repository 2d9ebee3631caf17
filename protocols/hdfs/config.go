package hdfs

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"strconv"

	"github.com/dustin/go-humanize"

	"hdfsbridge/protocols"
)

const (
	// DefaultPort is the namenode RPC port used when a host is given without one.
	DefaultPort = 8020

	// LocalHost selects the local filesystem instead of a namenode.
	LocalHost = ""
	// DefaultHost selects the namenode from the Hadoop configuration files.
	DefaultHost = "default"
)

// Config describes one HDFS session.
type Config struct {
	Host string
	// Port 0 means DefaultPort for explicit hosts.
	Port int
	// User defaults to HADOOP_USER_NAME, then the current OS user.
	User string
	// Replication and BlockSize apply to files this session creates.
	// Zero leaves the choice to the namenode.
	Replication int
	BlockSize   int64
}

// Address is the namenode host:port.
func (c Config) Address() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// ResolveUser returns the user this session acts as.
func (c Config) ResolveUser() (string, error) {
	if c.User != "" {
		return c.User, nil
	}
	if u := os.Getenv("HADOOP_USER_NAME"); u != "" {
		return u, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("resolve hdfs user: %w", err)
	}
	return u.Username, nil
}

// ConfigFromOptions derives a Config from parsed URL options. A URL without
// a host, such as hdfs:///data, uses the configured default namenode.
// Recognised query parameters are replication (an integer >= 1) and
// block_size (bytes, "128MiB" style suffixes allowed).
func ConfigFromOptions(opts protocols.StorageOptions) (Config, error) {
	cfg := Config{
		Host: DefaultHost,
		Port: opts.Port,
		User: opts.Username,
	}
	if opts.Host != "" {
		cfg.Host = opts.Host
	}

	if v := opts.Query.Get("replication"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, protocols.InvalidArgument("parse", "replication",
				fmt.Sprintf("replication must be an integer >= 1, got %q", v))
		}
		cfg.Replication = n
	}
	if v := opts.Query.Get("block_size"); v != "" {
		n, err := humanize.ParseBytes(v)
		if err != nil || n == 0 {
			return Config{}, protocols.InvalidArgument("parse", "block_size",
				fmt.Sprintf("invalid block size %q", v))
		}
		cfg.BlockSize = int64(n)
	}
	return cfg, nil
}

// ConfigFromURL parses an hdfs:// URL into a Config.
func ConfigFromURL(rawURL string) (Config, error) {
	opts, err := protocols.InferStorageOptions(rawURL)
	if err != nil {
		return Config{}, err
	}
	return ConfigFromOptions(opts)
}
