package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"geomdata/pkg/geometry"
)

func newUIDCommand() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:         "uid",
		Short:       "Print new frame of reference UIDs",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("%w: count %d", geometry.ErrInvalidArgument, count)
			}
			for i := 0; i < count; i++ {
				fmt.Fprintln(cmd.OutOrStdout(), geometry.NewFrameOfReferenceUID())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of UIDs to print")
	return cmd
}
