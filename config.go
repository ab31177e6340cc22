package mft

import (
	"errors"
	"time"

	"github.com/mongodb/grip"
)

// Configuration defines the application's resource dependencies: the
// database that analyses are stored in and the queue that detection
// jobs run on.
type Configuration struct {
	DatabaseName       string
	MongoDBURI         string
	MongoDBDialTimeout time.Duration
	SocketTimeout      time.Duration
	DisableQueue       bool
	NumWorkers         int
	QueueSize          int
}

func (c *Configuration) Validate() error {
	catcher := grip.NewBasicCatcher()

	if c.MongoDBURI == "" {
		catcher.Add(errors.New("must specify a mongodb url"))
	}
	if c.NumWorkers < 1 {
		catcher.Add(errors.New("must specify a valid number of amboy workers"))
	}
	if c.DatabaseName == "" {
		c.DatabaseName = DefaultDatabaseName
	}
	if c.MongoDBDialTimeout <= 0 {
		c.MongoDBDialTimeout = 2 * time.Second
	}
	if c.SocketTimeout <= 0 {
		c.SocketTimeout = DefaultSocketTimeout
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}

	return catcher.Resolve()
}
