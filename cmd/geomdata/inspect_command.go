package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"geomdata/pkg/geometry"
	"geomdata/pkg/geomio"
	"geomdata/pkg/timegeometry"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the time geometries stored in a geometry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			reader, err := geomio.NewReader(cfg, logger)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("strict") {
				reader.Strict = strict
			}

			objects, diags, err := reader.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d object(s), %d diagnostic(s)\n", args[0], len(objects), len(diags))
			for i, obj := range objects {
				tg := obj.TimeGeometry()
				box := tg.BoundingBox()
				fmt.Fprintf(out, "\nObject %d: %d time step(s), time [%s, %s), world box %s..%s\n",
					i, tg.CountTimeSteps(),
					formatTime(tg.MinimumTimePoint()), formatTime(tg.MaximumTimePoint()),
					formatTriple(box.Min), formatTriple(box.Max))
				fmt.Fprintln(out, renderTable(out, stepHeaders, stepRows(tg), stepAligns))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when the file needed any recovery (overrides codec.strict)")
	return cmd
}

var (
	stepHeaders = []string{"Step", "Start", "Origin", "Spacing", "Extent", "Frame", "Image"}
	stepAligns  = []columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
)

func stepRows(tg *timegeometry.Proportional) [][]string {
	rows := make([][]string, 0, tg.CountTimeSteps())
	for step := 0; step < tg.CountTimeSteps(); step++ {
		g := tg.GeometryForTimeStep(step)
		start := "-"
		if t, err := tg.TimeStepToTimePoint(step); err == nil {
			start = formatTime(t)
		}
		extent := [3]float64{g.Extent(0), g.Extent(1), g.Extent(2)}
		rows = append(rows, []string{
			strconv.Itoa(step),
			start,
			formatTriple(g.Origin()),
			formatTriple(g.Spacing()),
			formatTriple(extent),
			formatFrame(g.FrameOfReferenceID()),
			strconv.FormatBool(g.ImageGeometry()),
		})
	}
	return rows
}

func formatFrame(id uint) string {
	if uid, ok := geometry.DefaultFrameOfReferenceRegistry().Lookup(id); ok && uid != "" {
		return fmt.Sprintf("%d (%s)", id, uid)
	}
	return strconv.FormatUint(uint64(id), 10)
}

func formatTime(t float64) string {
	// an unbounded geometry reports ±MaxFloat64
	switch {
	case t >= math.MaxFloat64:
		return "inf"
	case t <= -math.MaxFloat64:
		return "-inf"
	}
	return strconv.FormatFloat(t, 'g', 6, 64)
}

func formatTriple[T ~[3]float64](v T) string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}
