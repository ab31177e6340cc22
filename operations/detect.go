package operations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spikework/mft/filter"
	"github.com/spikework/mft/spiketrain"
	"github.com/spikework/mft/units"
	"github.com/urfave/cli"
)

// Detect returns the command that runs the multi-scale change point
// detector over a request file and renders the result.
func Detect() cli.Command {
	return cli.Command{
		Name:   "detect",
		Usage:  "detect change points in an event sequence described by a request file",
		Flags:  mergeFlags(addPathFlag(), addOutputPath()),
		Before: requireFileExists(pathFlagName),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			req := units.DetectionRequest{}
			if err := readPayload(c.String(pathFlagName), &req); err != nil {
				return errors.Wrap(err, "problem reading detection request")
			}

			unit := spiketrain.Unit(req.Unit)
			if err := unit.Validate(); err != nil {
				return errors.Wrapf(err, "problem validating unit '%s'", req.Unit)
			}

			train, err := spiketrain.New(req.Timestamps, unit, 0, req.Stop)
			if err != nil {
				return errors.Wrap(err, "problem building event sequence")
			}

			widths := make([]spiketrain.Quantity, 0, len(req.Widths))
			for _, w := range req.Widths {
				widths = append(widths, spiketrain.Q(w, unit))
			}

			opts := filter.DetectorOptions{
				Alpha:      req.Alpha,
				Surrogates: req.Surrogates,
				Step:       spiketrain.Q(req.Step, unit),
				Seed:       req.Seed,
				Workers:    req.Workers,
			}
			if req.Bootstrap {
				opts.Calibrator = filter.NewBootstrapCalibrator()
			}

			detector := filter.NewDetector(opts)
			result, err := detector.Detect(ctx, widths, train, spiketrain.Q(req.Stop, unit))
			if err != nil {
				return errors.Wrap(err, "problem running detection")
			}

			return errors.Wrap(writePayload(c.String(outputFlagName), result),
				"problem writing detection result")
		},
	}
}
