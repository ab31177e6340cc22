package mft

import (
	"context"
	"sync"

	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var globalEnv *envState

func init()                       { resetEnv() }
func GetEnvironment() Environment { return globalEnv }

func resetEnv() { globalEnv = &envState{name: "global", conf: &Configuration{}} }

// Environment objects provide access to shared configuration and state, in
// a way that you can isolate and test for in units and operations.
type Environment interface {
	Configure(context.Context, *Configuration) error

	// GetQueue retrieves the application's shared queue, which is
	// cached for easy access from within units or inside of requests
	// or command line operations.
	GetQueue() (amboy.Queue, error)
	// SetQueue configures the global application cache's shared queue.
	SetQueue(amboy.Queue) error

	GetConf() (*Configuration, error)

	GetClient() (*mongo.Client, error)
	GetDB() (*mongo.Database, error)

	Close(context.Context) error
}

type envState struct {
	name   string
	queue  amboy.Queue
	client *mongo.Client
	conf   *Configuration
	mutex  sync.RWMutex
}

func (c *envState) Configure(ctx context.Context, conf *Configuration) error {
	if err := conf.Validate(); err != nil {
		return errors.WithStack(err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.conf = conf

	dialCtx, cancel := context.WithTimeout(ctx, conf.MongoDBDialTimeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().
		ApplyURI(conf.MongoDBURI).
		SetSocketTimeout(conf.SocketTimeout))
	if err != nil {
		return errors.Wrapf(err, "could not connect to db %s", conf.MongoDBURI)
	}
	c.client = client

	if !conf.DisableQueue {
		c.queue = queue.NewLocalLimitedSize(conf.NumWorkers, conf.QueueSize)
		grip.Infof("configured local queue with %d workers", conf.NumWorkers)
	}

	return nil
}

func (c *envState) GetQueue() (amboy.Queue, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.queue == nil {
		return nil, errors.New("no queue defined in the environment")
	}

	return c.queue, nil
}

func (c *envState) SetQueue(q amboy.Queue) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.queue != nil {
		return errors.New("queue exists, cannot overwrite")
	}

	if q == nil {
		return errors.New("cannot set queue to nil")
	}

	c.queue = q
	grip.Noticef("caching a '%T' queue in the '%s' service cache for use in tasks", q, c.name)
	return nil
}

func (c *envState) GetConf() (*Configuration, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.conf == nil {
		return nil, errors.New("configuration is not set")
	}

	// copy the struct so that callers cannot change the environment's
	// configuration out from under it
	conf := *c.conf
	return &conf, nil
}

func (c *envState) GetClient() (*mongo.Client, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.client == nil {
		return nil, errors.New("environment has no configured db connection")
	}

	return c.client, nil
}

func (c *envState) GetDB() (*mongo.Database, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.client == nil {
		return nil, errors.New("environment has no configured db connection")
	}

	return c.client.Database(c.conf.DatabaseName), nil
}

func (c *envState) Close(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.queue != nil {
		c.queue.Close(ctx)
	}

	if c.client == nil {
		return nil
	}

	return errors.Wrap(c.client.Disconnect(ctx), "problem disconnecting from db")
}
