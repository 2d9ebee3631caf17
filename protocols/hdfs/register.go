package hdfs

import (
	"hdfsbridge/protocols"
)

func init() {
	protocols.Register(Protocol, func(opts protocols.StorageOptions) (protocols.FileSystem, error) {
		cfg, err := ConfigFromOptions(opts)
		if err != nil {
			return nil, err
		}
		fsys, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return fsys, nil
	})
}
