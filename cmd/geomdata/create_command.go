package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"geomdata/pkg/basedata"
	"geomdata/pkg/geometry"
	"geomdata/pkg/geomio"
)

type createOptions struct {
	size           []int
	spacing        []float64
	origin         []float64
	steps          int
	image          bool
	firstTimePoint float64
	stepDuration   float64
	frameUID       string
	newFrame       bool
}

func newCreateCommand(ctx *commandContext) *cobra.Command {
	opts := createOptions{}

	cmd := &cobra.Command{
		Use:   "create <output>",
		Short: "Write an evenly timed image geometry",
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

			vol, frame, err := buildVolume(opts)
			if err != nil {
				return err
			}
			if err := geomio.NewWriter(cfg, logger).WriteFile(cmd.Context(), args[0], vol); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d time step(s) to %s\n", opts.steps, args[0])
			if frame.uid != "" {
				fmt.Fprintf(out, "Frame of reference %d = %s (the file stores only the id)\n", frame.id, frame.uid)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntSliceVar(&opts.size, "size", []int{1, 1, 1}, "Voxel grid size x,y,z")
	flags.Float64SliceVar(&opts.spacing, "spacing", []float64{1, 1, 1}, "Voxel spacing in mm x,y,z")
	flags.Float64SliceVar(&opts.origin, "origin", []float64{0, 0, 0}, "World position of voxel 0,0,0")
	flags.IntVar(&opts.steps, "steps", 1, "Number of time steps")
	flags.BoolVar(&opts.image, "image", true, "Mark the geometry as a voxel-centred image geometry")
	flags.Float64Var(&opts.firstTimePoint, "first-time-point", 0, "Start of the first time step in ms")
	flags.Float64Var(&opts.stepDuration, "step-duration", 1, "Duration of each time step in ms")
	flags.StringVar(&opts.frameUID, "frame-uid", "", "Frame of reference UID shared by all steps; the file stores only its numeric id")
	flags.BoolVar(&opts.newFrame, "new-frame", false, "Generate a fresh frame of reference UID; the file stores only its numeric id")
	return cmd
}

// frameAssignment is the registry entry used for a created volume.
type frameAssignment struct {
	id  uint
	uid string
}

func buildVolume(opts createOptions) (*basedata.Volume, frameAssignment, error) {
	var frame frameAssignment
	if len(opts.size) != 3 || len(opts.spacing) != 3 || len(opts.origin) != 3 {
		return nil, frame, fmt.Errorf("%w: size, spacing and origin need three values each", geometry.ErrInvalidArgument)
	}
	vol, err := basedata.NewVolume(opts.size[0], opts.size[1], opts.size[2], opts.steps,
		geometry.Vector3D{opts.spacing[0], opts.spacing[1], opts.spacing[2]})
	if err != nil {
		return nil, frame, err
	}

	tg := vol.TimeGeometry()
	tg.SetFirstTimePoint(opts.firstTimePoint)
	if err := tg.SetStepDuration(opts.stepDuration); err != nil {
		return nil, frame, err
	}

	frame.uid = opts.frameUID
	if frame.uid == "" && opts.newFrame {
		frame.uid = geometry.NewFrameOfReferenceUID()
	}
	if frame.uid != "" {
		frame.id = geometry.DefaultFrameOfReferenceRegistry().AddOrLookup(frame.uid)
	}

	for step := 0; step < tg.CountTimeSteps(); step++ {
		g := tg.GeometryForTimeStep(step)
		g.Translate(geometry.Vector3D{opts.origin[0], opts.origin[1], opts.origin[2]})
		g.SetImageGeometry(opts.image)
		g.SetFrameOfReferenceID(frame.id)
	}
	tg.UpdateBoundingBox()
	return vol, frame, nil
}
