package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hdfsbridge/protocols"
)

func newLsCmd() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "ls URL",
		Short: "List a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, p, err := openURL(args[0])
			if err != nil {
				return err
			}
			defer fsys.Close()

			entries, err := fsys.Ls(p)
			if err != nil {
				return err
			}
			if !long {
				for _, e := range entries {
					fmt.Fprintln(cmd.OutOrStdout(), e.Name)
				}
				return nil
			}
			return printLong(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, "Show owner, size and modification time")
	return cmd
}

func printLong(out io.Writer, entries []protocols.FileEntry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		kind := "-"
		if e.IsDir() {
			kind = "d"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			kind, e.Owner, e.Group,
			humanize.IBytes(uint64(e.Size)),
			e.ModTime.Format(time.DateTime),
			e.Name)
	}
	return w.Flush()
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info URL",
		Short: "Show details of a path as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, p, err := openURL(args[0])
			if err != nil {
				return err
			}
			defer fsys.Close()

			info, err := fsys.Info(p)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}

func newCatCmd() *cobra.Command {
	var offset, length int64
	cmd := &cobra.Command{
		Use:   "cat URL",
		Short: "Print a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, p, err := openURL(args[0])
			if err != nil {
				return err
			}
			defer fsys.Close()

			var end int64
			if length > 0 {
				end = offset + length
			}
			data, err := protocols.CatFile(fsys, p, offset, end)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().Int64Var(&offset, "offset", 0, "Start reading at this byte; negative counts from the end")
	cmd.Flags().Int64Var(&length, "length", 0, "Read at most this many bytes (0 reads to the end)")
	return cmd
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put LOCAL URL",
		Short: "Upload a local file or directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, p, err := openURL(args[1])
			if err != nil {
				return err
			}
			defer fsys.Close()
			return protocols.Put(fsys, args[0], p)
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get URL LOCAL",
		Short: "Download a file or directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, p, err := openURL(args[0])
			if err != nil {
				return err
			}
			defer fsys.Close()
			return protocols.Get(fsys, p, args[1])
		},
	}
}

func newCpCmd() *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "cp SRC DST",
		Short: "Copy a file, or a directory with -r, possibly across filesystems",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, srcPath, err := openURL(args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			dst, dstPath, err := openURL(args[1])
			if err != nil {
				return err
			}
			defer dst.Close()

			if src.Protocol() == dst.Protocol() && src.FSID() == dst.FSID() {
				return protocols.Copy(src, srcPath, dstPath, recursive)
			}
			if !recursive && protocols.IsDir(src, srcPath) {
				return protocols.InvalidArgument("copy", srcPath, "cannot copy directory without recursive")
			}
			return protocols.CopyTree(src, srcPath, dst, dstPath)
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Copy directories recursively")
	return cmd
}

func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv URL DST",
		Short: "Rename a path; DST is a path on the same filesystem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, p, err := openURL(args[0])
			if err != nil {
				return err
			}
			defer fsys.Close()
			return fsys.Mv(p, protocols.StripProtocol(args[1]))
		},
	}
}

func newRmCmd() *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "rm URL...",
		Short: "Remove files, or directories with -r",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				fsys, p, err := openURL(arg)
				if err != nil {
					return err
				}
				err = fsys.Rm(p, recursive)
				fsys.Close()
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Remove directories and their contents")
	return cmd
}

func newMkdirCmd() *cobra.Command {
	var parents bool
	cmd := &cobra.Command{
		Use:   "mkdir URL",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, p, err := openURL(args[0])
			if err != nil {
				return err
			}
			defer fsys.Close()
			if parents {
				return fsys.Makedirs(p, true)
			}
			return fsys.Mkdir(p, false)
		},
	}
	cmd.Flags().BoolVarP(&parents, "parents", "p", false, "Create missing parents; no error if it exists")
	return cmd
}

func newDuCmd() *cobra.Command {
	var human bool
	cmd := &cobra.Command{
		Use:   "du URL",
		Short: "Total size of the files below a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, p, err := openURL(args[0])
			if err != nil {
				return err
			}
			defer fsys.Close()

			total, err := protocols.Du(fsys, p)
			if err != nil {
				return err
			}
			if human {
				fmt.Fprintln(cmd.OutOrStdout(), humanize.IBytes(uint64(total)))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&human, "human", "H", false, "Print sizes like 1.5 MiB")
	return cmd
}

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find URL",
		Short: "List every file below a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, p, err := openURL(args[0])
			if err != nil {
				return err
			}
			defer fsys.Close()

			files, err := protocols.Find(fsys, p)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f.Name)
			}
			return nil
		},
	}
}
