package mft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationValidate(t *testing.T) {
	t.Run("RequiresURIAndWorkers", func(t *testing.T) {
		conf := &Configuration{}
		assert.Error(t, conf.Validate())

		conf = &Configuration{MongoDBURI: "mongodb://localhost:27017"}
		assert.Error(t, conf.Validate())

		conf = &Configuration{MongoDBURI: "mongodb://localhost:27017", NumWorkers: 2}
		assert.NoError(t, conf.Validate())
	})
	t.Run("PopulatesDefaults", func(t *testing.T) {
		conf := &Configuration{MongoDBURI: "mongodb://localhost:27017", NumWorkers: 2}
		require.NoError(t, conf.Validate())

		assert.Equal(t, DefaultDatabaseName, conf.DatabaseName)
		assert.Equal(t, 2*time.Second, conf.MongoDBDialTimeout)
		assert.Equal(t, DefaultSocketTimeout, conf.SocketTimeout)
		assert.Equal(t, 1024, conf.QueueSize)
	})
	t.Run("KeepsExplicitValues", func(t *testing.T) {
		conf := &Configuration{
			MongoDBURI:    "mongodb://localhost:27017",
			NumWorkers:    4,
			DatabaseName:  "custom",
			SocketTimeout: time.Second,
			QueueSize:     16,
		}
		require.NoError(t, conf.Validate())

		assert.Equal(t, "custom", conf.DatabaseName)
		assert.Equal(t, time.Second, conf.SocketTimeout)
		assert.Equal(t, 16, conf.QueueSize)
	})
}

func TestEnvironment(t *testing.T) {
	t.Run("GlobalIsInitialized", func(t *testing.T) {
		assert.NotNil(t, GetEnvironment())
	})
	t.Run("UnconfiguredAccessors", func(t *testing.T) {
		resetEnv()
		defer resetEnv()

		env := GetEnvironment()

		_, err := env.GetQueue()
		assert.Error(t, err)
		_, err = env.GetClient()
		assert.Error(t, err)
		_, err = env.GetDB()
		assert.Error(t, err)

		conf, err := env.GetConf()
		require.NoError(t, err)
		assert.NotNil(t, conf)
	})
	t.Run("ConfValueIsCopied", func(t *testing.T) {
		resetEnv()
		defer resetEnv()

		env := GetEnvironment()
		conf, err := env.GetConf()
		require.NoError(t, err)

		conf.DatabaseName = "mutated"
		again, err := env.GetConf()
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.DatabaseName)
	})
	t.Run("SetQueueRejectsNil", func(t *testing.T) {
		resetEnv()
		defer resetEnv()

		assert.Error(t, GetEnvironment().SetQueue(nil))
	})
	t.Run("ConfigureRejectsInvalid", func(t *testing.T) {
		resetEnv()
		defer resetEnv()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		err := GetEnvironment().Configure(ctx, &Configuration{})
		assert.Error(t, err)
	})
}
