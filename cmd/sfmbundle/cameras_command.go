package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newCamerasCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cameras [filter]",
		Short: "List known camera sensor widths",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := ctx.cameraTable()
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			entries := table.Search(query)
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No cameras match %q\n", query)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{entry.Camera, strconv.FormatFloat(entry.WidthMM, 'f', -1, 64)})
			}
			fmt.Fprintln(out, renderTable([]string{"Camera", "CCD width (mm)"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(out, "%d of %d cameras\n", len(entries), table.Len())
			return nil
		},
	}
}
