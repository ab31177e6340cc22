package operations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spikework/mft/filter"
	"github.com/urfave/cli"
)

// Calibrate returns the command that estimates rejection thresholds
// for a detection configuration without running a detection.
func Calibrate() cli.Command {
	return cli.Command{
		Name:  "calibrate",
		Usage: "estimate the rejection threshold for a detection configuration",
		Flags: mergeFlags(baseFlags(), calibrationFlags(), addOutputPath()),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			widths, err := parseFloatSlice(c.StringSlice(widthsFlagName))
			if err != nil {
				return errors.Wrap(err, "problem parsing window widths")
			}

			opts := filter.CalibrationOptions{
				Widths:     widths,
				Duration:   c.Float64(durationFlagName),
				Alpha:      c.Float64(alphaFlagName),
				Surrogates: c.Int(surrogatesFlagName),
				Step:       c.Float64(stepFlagName),
				Count:      c.Int(countFlagName),
				Seed:       c.Int64(seedFlagName),
				Workers:    c.Int(numWorkersFlag),
			}

			calibrator := filter.NewLimitProcessCalibrator()
			if c.Bool(bootstrapFlagName) {
				calibrator = filter.NewBootstrapCalibrator()
			}

			threshold, err := calibrator.Calibrate(ctx, opts)
			if err != nil {
				return errors.Wrap(err, "problem calibrating threshold")
			}

			return errors.Wrap(writePayload(c.String(outputFlagName), threshold),
				"problem writing threshold")
		},
	}
}
