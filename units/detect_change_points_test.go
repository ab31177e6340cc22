package units

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spikework/mft"
	"github.com/spikework/mft/model"
)

func requestFixture() DetectionRequest {
	return DetectionRequest{
		AnalysisID: "test-analysis",
		Timestamps: []float64{1.1, 1.2, 1.4, 1.6, 1.7, 1.75, 1.8, 1.85, 1.9, 1.95},
		Unit:       "s",
		Stop:       2.1,
		Widths:     []float64{0.5},
		Alpha:      5,
		Surrogates: 100,
		Step:       0.1,
		Seed:       42,
	}
}

func testEnv(ctx context.Context, t *testing.T) mft.Environment {
	env := mft.GetEnvironment()
	require.NoError(t, env.Configure(ctx, &mft.Configuration{
		MongoDBURI:   "mongodb://localhost:27017",
		DatabaseName: "mft_test_units",
		NumWorkers:   2,
		DisableQueue: true,
	}))

	client, err := env.GetClient()
	require.NoError(t, err)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		t.Skipf("no local mongodb: %s", err)
	}

	return env
}

func TestDetectChangePointsJobConstruction(t *testing.T) {
	j := NewDetectChangePointsJob(nil, requestFixture())

	assert.True(t, strings.HasPrefix(j.ID(), "detect-change-points.test-analysis."))
	assert.Equal(t, detectChangePointsJobName, j.Type().Name)
	assert.False(t, j.Status().Completed)
}

func TestDetectChangePointsJobRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("InvalidUnit", func(t *testing.T) {
		req := requestFixture()
		req.Unit = "parsecs"

		j := NewDetectChangePointsJob(nil, req)
		j.Run(ctx)
		assert.Error(t, j.Error())
	})
	t.Run("OutOfBoundsTimestamps", func(t *testing.T) {
		req := requestFixture()
		req.Stop = 1.5

		j := NewDetectChangePointsJob(nil, req)
		j.Run(ctx)
		assert.Error(t, j.Error())
	})
	t.Run("InvalidDetectorParameters", func(t *testing.T) {
		req := requestFixture()
		req.Surrogates = 0

		j := NewDetectChangePointsJob(nil, req)
		j.Run(ctx)
		assert.Error(t, j.Error())
	})
	t.Run("SavesAnalysis", func(t *testing.T) {
		env := testEnv(ctx, t)

		j := NewDetectChangePointsJob(env, requestFixture())
		j.Run(ctx)
		require.NoError(t, j.Error())
		assert.True(t, j.Status().Completed)

		a := &model.Analysis{ID: "test-analysis"}
		a.Setup(env)
		require.NoError(t, a.Find(ctx))
		defer func() { assert.NoError(t, a.Remove(ctx)) }()

		assert.Equal(t, "limit_process", a.Info.NullModel)
		require.Len(t, a.Results, 1)
		require.Len(t, a.Results[0].Points, 1)
		assert.InDelta(t, 1.5, a.Results[0].Points[0].Time, 1e-9)
	})
}
