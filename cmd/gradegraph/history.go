package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded uploads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			history, err := c.openHistory(ctx)
			if err != nil {
				return err
			}
			defer history.Close()

			uploads, err := history.ListUploads(ctx, limit)
			if err != nil {
				return err
			}
			if len(uploads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no uploads recorded")
				return nil
			}

			now := c.now()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILE\tSTUDENTS\tSUBJECTS\tUPLOADED")
			for _, u := range uploads {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", u.ID, u.FileName, u.TotalStudents,
					strings.Join(u.Subjects, ","), humanize.RelTime(u.UploadedAt, now, "ago", "from now"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum uploads to list")
	return cmd
}
