package operations

import (
	"context"
	"time"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/spikework/mft"
	"github.com/spikework/mft/rest"
	"github.com/urfave/cli"
)

// Service returns the command that runs the detection API and its
// local work queue.
func Service() cli.Command {
	return cli.Command{
		Name:  "service",
		Usage: "run the change point detection service",
		Flags: mergeFlags(baseFlags(), dbFlags(
			cli.IntFlag{
				Name:  servicePortFlag,
				Usage: "specify a port to run the service on",
				Value: 3000,
			})),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			conf := mft.Configuration{
				MongoDBURI:         c.String(dbURIFlag),
				DatabaseName:       c.String(dbNameFlag),
				NumWorkers:         c.Int(numWorkersFlag),
				MongoDBDialTimeout: 2 * time.Second,
				SocketTimeout:      time.Minute,
			}

			env := mft.GetEnvironment()
			if err := env.Configure(ctx, &conf); err != nil {
				return errors.Wrap(err, "problem configuring application environment")
			}

			service := &rest.Service{
				Port:        c.Int(servicePortFlag),
				Environment: env,
			}
			if err := service.Validate(); err != nil {
				return errors.Wrap(err, "problem validating service")
			}

			grip.Infof("starting mft service on port %d", service.Port)

			if err := service.Start(ctx); err != nil {
				return errors.Wrap(err, "problem running rest service")
			}

			return errors.Wrap(env.Close(ctx), "problem closing environment")
		},
	}
}
