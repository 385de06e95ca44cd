package main

import (
	"fmt"

	"github.com/notargets/relax/config"
	"github.com/spf13/cobra"
)

func newGridCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Describe the grid of a problem file",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.Load(path)
			if err != nil {
				return err
			}
			g, err := p.Domain()
			if err != nil {
				return err
			}
			conds, err := p.Conditions()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			lo, hi := g.BoundingBox()
			fmt.Fprintf(out, "grid    %s\n", g)
			fmt.Fprintf(out, "lo      %v\n", lo)
			fmt.Fprintf(out, "hi      %v\n", hi)
			for d, c := range conds {
				fmt.Fprintf(out, "axis %d  %s\n", d, c)
			}
			if g.NDim() == 2 {
				ext, err := g.ImageExtent(-1)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "extent  %v\n", ext)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "Problem file (YAML)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
