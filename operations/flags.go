package operations

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

////////////////////////////////////////////////////////////////////////
//
// Flag Name Constants

const (
	pathFlagName   = "path"
	outputFlagName = "output"

	numWorkersFlag = "workers"

	dbURIFlag  = "dbUri"
	dbNameFlag = "dbName"

	servicePortFlag = "port"

	widthsFlagName     = "width"
	durationFlagName   = "duration"
	alphaFlagName      = "alpha"
	surrogatesFlagName = "surrogates"
	stepFlagName       = "dt"
	seedFlagName       = "seed"
	countFlagName      = "count"
	bootstrapFlagName  = "bootstrap"
)

////////////////////////////////////////////////////////////////////////
//
// Utility Functions

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func parseFloatSlice(in []string) ([]float64, error) {
	out := make([]float64, len(in))

	for idx, val := range in {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "'%s' is not a number", val)
		}
		out[idx] = parsed
	}

	return out, nil
}

func mergeFlags(in ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{}

	for idx := range in {
		out = append(out, in[idx]...)
	}

	return out
}

////////////////////////////////////////////////////////////////////////
//
// Flag Groups

func baseFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.IntFlag{
			Name:   joinFlagNames(numWorkersFlag, "jobs", "j"),
			Usage:  "specify the number of worker jobs this process will have",
			Value:  2,
			EnvVar: "MFT_NUM_WORKERS",
		})
}

func dbFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   dbURIFlag,
			Usage:  "specify a mongodb connection string",
			Value:  "mongodb://localhost:27017",
			EnvVar: "MFT_MONGODB_URL",
		},
		cli.StringFlag{
			Name:  dbNameFlag,
			Usage: "specify a database name to use",
			Value: "mft",
		})
}

func addPathFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(pathFlagName, "filename", "file", "f"),
		Usage: "path to a detection request file (json or yaml)",
	})
}

func addOutputPath(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(outputFlagName, "o"),
		Usage: "path to the output file; writes json to standard output by default",
	})
}

func calibrationFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringSliceFlag{
			Name:  joinFlagNames(widthsFlagName, "w"),
			Usage: "window width to test; repeat for a multi-scale run",
		},
		cli.Float64Flag{
			Name:  joinFlagNames(durationFlagName, "T"),
			Usage: "length of the observation interval",
		},
		cli.Float64Flag{
			Name:  alphaFlagName,
			Usage: "significance level, as a percentage",
			Value: 5,
		},
		cli.IntFlag{
			Name:  joinFlagNames(surrogatesFlagName, "n"),
			Usage: "number of Monte Carlo surrogates",
			Value: 1000,
		},
		cli.Float64Flag{
			Name:  stepFlagName,
			Usage: "candidate grid spacing",
		},
		cli.Int64Flag{
			Name:  seedFlagName,
			Usage: "random seed for the surrogate streams",
			Value: 1,
		},
		cli.IntFlag{
			Name:  countFlagName,
			Usage: "observed event count (bootstrap null only)",
		},
		cli.BoolFlag{
			Name:  bootstrapFlagName,
			Usage: "calibrate against resampled event sequences instead of the limit process",
		})
}
