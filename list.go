package main

import (
	"github.com/spf13/cobra"

	"github.com/SEEDtk/kernel-sub003/pkg/report"
)

func listCommand() *cobra.Command {
	var (
		dir    string
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the representatives in a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := loadRepDir(repDir(dir), false)
			if err != nil {
				return err
			}
			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer out.Close()
			return report.WriteRepList(out, db)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Rep-genome directory (default $REPDB_DATA or ./data)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output table (default stdout)")
	return cmd
}
