package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sfmbundle/internal/keyfile"
)

func newKeysCommand() *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Key file utilities",
	}
	keysCmd.AddCommand(&cobra.Command{
		Use:         "inspect <file.key.gz>",
		Short:       "Validate a compacted key file and summarize its features",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			features, err := keyfile.ReadFile(args[0])
			if err != nil {
				return err
			}
			stats, err := keyfile.Describe(features)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			writeField(out, "File", args[0])
			writeField(out, "Features", fmt.Sprintf("%d x %d", stats.Features, keyfile.DescriptorLength))
			if stats.Features == 0 {
				return nil
			}
			writeField(out, "Scale", fmt.Sprintf("mean %.2f, max %.2f", stats.MeanScale, stats.MaxScale))
			writeField(out, "Extent", fmt.Sprintf("%.2f-%.2f x %.2f-%.2f", stats.MinA, stats.MaxA, stats.MinB, stats.MaxB))
			return nil
		},
	})
	return keysCmd
}
