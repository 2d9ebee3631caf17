package protocols

import (
	"net/url"
	"path"
	"strconv"
	"strings"
)

// StorageOptions is everything a URL says about the filesystem it points into.
type StorageOptions struct {
	Protocol string
	Host     string
	Port     int
	Username string
	Password string
	Path     string
	Query    url.Values
}

// InferStorageOptions splits a URL such as hdfs://user@nn:8020/a/b?replication=2.
// Strings without a scheme are local paths.
func InferStorageOptions(rawURL string) (StorageOptions, error) {
	if !strings.Contains(rawURL, "://") {
		return StorageOptions{Protocol: "file", Path: rawURL, Query: url.Values{}}, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return StorageOptions{}, InvalidArgument("parse", rawURL, err.Error())
	}

	opts := StorageOptions{
		Protocol: strings.ToLower(u.Scheme),
		Host:     u.Hostname(),
		Path:     u.Path,
		Query:    u.Query(),
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return StorageOptions{}, InvalidArgument("parse", rawURL, "invalid port "+p)
		}
		opts.Port = port
	}
	if u.User != nil {
		opts.Username = u.User.Username()
		opts.Password, _ = u.User.Password()
	}
	return opts, nil
}

// StripProtocol removes any scheme://host:port prefix and returns the bare
// path. "//" at the start collapses to "/" and an empty path means root.
func StripProtocol(p string) string {
	if strings.Contains(p, "://") {
		if opts, err := InferStorageOptions(p); err == nil {
			p = opts.Path
		}
	}
	if strings.HasPrefix(p, "//") {
		p = p[1:]
	}
	if p == "" {
		return "/"
	}
	return p
}

// TrimSlash drops trailing slashes from everything but the root.
func TrimSlash(p string) string {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" && strings.HasPrefix(p, "/") {
		return "/"
	}
	return trimmed
}

// Parent returns the directory that contains p.
func Parent(p string) string {
	return path.Dir(TrimSlash(p))
}

// Rel returns target relative to base for slash-separated absolute paths.
func Rel(base, target string) string {
	base = TrimSlash(base)
	target = TrimSlash(target)
	if base == target {
		return ""
	}
	if base == "/" {
		return strings.TrimPrefix(target, "/")
	}
	return strings.TrimPrefix(target, base+"/")
}
