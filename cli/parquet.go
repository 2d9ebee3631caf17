package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hdfsbridge/parquetfile"
)

func newParquetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parquet URL",
		Short: "Show the row count and schema of a Parquet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, p, err := openURL(args[0])
			if err != nil {
				return err
			}
			defer fsys.Close()

			summary, err := parquetfile.Describe(fsys, p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows: %d\n", summary.Rows)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, c := range summary.Columns {
				fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Type)
			}
			return w.Flush()
		},
	}
}
