// Package hdfs exposes the Hadoop Distributed File System as a
// protocols.FileSystem registered under the "hdfs" scheme.
//
// The adapter never talks RPC itself. It drives a Client, a small set of
// primitive calls (list, stat, open, mkdir, delete, rename) that is
// implemented natively on github.com/colinmarc/hdfs/v2 and, for local mode and
// tests, on an afero filesystem. Errors coming back from a Client are mapped
// onto the protocols error kinds at this boundary.
//
// Connecting:
//
//	fsys, err := hdfs.New(hdfs.Config{Host: "namenode", Port: 8020, User: "etl"})
//	if err != nil {
//		return err
//	}
//	defer fsys.Close()
//
// Host "" selects the local filesystem and Host "default" selects the
// namenode named by the Hadoop configuration in HADOOP_CONF_DIR.
package hdfs
