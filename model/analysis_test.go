package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spikework/mft"
	"github.com/spikework/mft/filter"
)

func detectionResultFixture() *filter.Result {
	return &filter.Result{
		Unit: "s",
		Threshold: &filter.Threshold{
			Quantile: 1.8,
			Moments:  []filter.NullMoments{{Width: 0.5, Mean: 1.7, Variance: 0.3}},
		},
		Widths: []filter.WidthResult{
			{
				Width:         0.5,
				CrossingLevel: 2.7,
				Points: []filter.ChangePoint{
					{Time: 1.5, Statistic: 3.5},
				},
			},
		},
	}
}

func analysisInfoFixture() AnalysisInfo {
	return AnalysisInfo{
		Count:      10,
		Stop:       2.1,
		Widths:     []float64{0.5},
		Alpha:      5,
		Surrogates: 100,
		Step:       0.1,
		Seed:       42,
		NullModel:  "limit-process",
	}
}

// testEnv configures the global environment against a local database,
// skipping the test when no server is reachable.
func testEnv(ctx context.Context, t *testing.T) mft.Environment {
	env := mft.GetEnvironment()
	require.NoError(t, env.Configure(ctx, &mft.Configuration{
		MongoDBURI:   "mongodb://localhost:27017",
		DatabaseName: "mft_test_model",
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

func TestNewAnalysis(t *testing.T) {
	a := NewAnalysis(analysisInfoFixture(), detectionResultFixture())

	assert.NotEmpty(t, a.ID)
	assert.False(t, a.IsNil())
	assert.Equal(t, "s", a.Info.Unit)
	assert.Equal(t, 1.8, a.Threshold.Quantile)

	require.Len(t, a.Results, 1)
	assert.Equal(t, 0.5, a.Results[0].Width)
	assert.Equal(t, 2.7, a.Results[0].CrossingLevel)

	require.Len(t, a.Results[0].Points, 1)
	assert.Equal(t, 1.5, a.Results[0].Points[0].Time)
	assert.Equal(t, TriageStatusUntriaged, a.Results[0].Points[0].Triage.Status)
	assert.True(t, a.Results[0].Points[0].Triage.TriagedOn.IsZero())
}

func TestAnalysisOperations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := testEnv(ctx, t)

	cleanup := func(a *Analysis) {
		a.Setup(env)
		assert.NoError(t, a.Remove(ctx))
	}

	t.Run("SaveRequiresPopulated", func(t *testing.T) {
		a := &Analysis{ID: "empty"}
		a.Setup(env)
		assert.Error(t, a.Save(ctx))
	})
	t.Run("FindErrorsWithNoResults", func(t *testing.T) {
		a := &Analysis{ID: "DNE"}
		a.Setup(env)
		err := a.Find(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not find")
	})
	t.Run("RoundTrip", func(t *testing.T) {
		a := NewAnalysis(analysisInfoFixture(), detectionResultFixture())
		a.Setup(env)
		require.NoError(t, a.Save(ctx))
		defer cleanup(a)

		found := &Analysis{ID: a.ID}
		found.Setup(env)
		require.NoError(t, found.Find(ctx))
		assert.False(t, found.IsNil())
		assert.Equal(t, a.Info.Widths, found.Info.Widths)
		assert.Equal(t, a.Threshold.Quantile, found.Threshold.Quantile)
		require.Len(t, found.Results, 1)
		assert.Equal(t, a.Results[0].Points[0].Time, found.Results[0].Points[0].Time)
	})
	t.Run("SaveIsAnUpsert", func(t *testing.T) {
		a := NewAnalysis(analysisInfoFixture(), detectionResultFixture())
		a.Setup(env)
		require.NoError(t, a.Save(ctx))
		defer cleanup(a)

		a.Info.Alpha = 1
		require.NoError(t, a.Save(ctx))

		found := &Analysis{ID: a.ID}
		found.Setup(env)
		require.NoError(t, found.Find(ctx))
		assert.Equal(t, 1.0, found.Info.Alpha)
	})
}

func TestTriageDetection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := testEnv(ctx, t)

	a := NewAnalysis(analysisInfoFixture(), detectionResultFixture())
	a.Setup(env)
	require.NoError(t, a.Save(ctx))
	defer func() { assert.NoError(t, a.Remove(ctx)) }()

	t.Run("InvalidStatus", func(t *testing.T) {
		assert.Error(t, TriageDetection(ctx, env, a.ID, 0.5, 1.5, TriageStatus("nope")))
	})
	t.Run("MissingAnalysis", func(t *testing.T) {
		err := TriageDetection(ctx, env, "DNE", 0.5, 1.5, TriageStatusTruePositive)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no analysis")
	})
	t.Run("MissingPoint", func(t *testing.T) {
		err := TriageDetection(ctx, env, a.ID, 0.5, 9.9, TriageStatusTruePositive)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no detection")
	})
	t.Run("SetsStatusAndTimestamp", func(t *testing.T) {
		require.NoError(t, TriageDetection(ctx, env, a.ID, 0.5, 1.5, TriageStatusTruePositive))

		found := &Analysis{ID: a.ID}
		found.Setup(env)
		require.NoError(t, found.Find(ctx))
		assert.Equal(t, TriageStatusTruePositive, found.Results[0].Points[0].Triage.Status)
		assert.False(t, found.Results[0].Points[0].Triage.TriagedOn.IsZero())
	})
}

func TestTriageStatus(t *testing.T) {
	for _, status := range TriageStatuses() {
		assert.NoError(t, status.Validate())
	}
	assert.Error(t, TriageStatus("").Validate())
	assert.Error(t, TriageStatus("bogus").Validate())
}
