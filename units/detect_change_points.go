package units

import (
	"context"
	"fmt"

	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"

	"github.com/spikework/mft"
	"github.com/spikework/mft/filter"
	"github.com/spikework/mft/model"
	"github.com/spikework/mft/spiketrain"
	"github.com/spikework/mft/util"
)

const detectChangePointsJobName = "detect-change-points"

// DetectionRequest is the full payload for one background detection run:
// the raw timestamps with their unit and bounds, and the test
// parameters. Widths, Stop, and Step are expressed in Unit.
type DetectionRequest struct {
	AnalysisID string    `bson:"analysis_id" json:"analysis_id" yaml:"analysis_id"`
	Timestamps []float64 `bson:"timestamps" json:"timestamps" yaml:"timestamps"`
	Unit       string    `bson:"unit" json:"unit" yaml:"unit"`
	Stop       float64   `bson:"stop" json:"stop" yaml:"stop"`
	Widths     []float64 `bson:"widths" json:"widths" yaml:"widths"`
	Alpha      float64   `bson:"alpha" json:"alpha" yaml:"alpha"`
	Surrogates int       `bson:"surrogates" json:"surrogates" yaml:"surrogates"`
	Step       float64   `bson:"step" json:"step" yaml:"step"`
	Seed       int64     `bson:"seed" json:"seed" yaml:"seed"`
	Bootstrap  bool      `bson:"bootstrap" json:"bootstrap" yaml:"bootstrap"`
	Workers    int       `bson:"workers" json:"workers" yaml:"workers"`
}

type detectChangePointsJob struct {
	*job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`
	Request   DetectionRequest `bson:"request" json:"request" yaml:"request"`

	env mft.Environment
}

func init() {
	registry.AddJobType(detectChangePointsJobName, func() amboy.Job { return makeDetectChangePointsJob() })
}

func makeDetectChangePointsJob() *detectChangePointsJob {
	j := &detectChangePointsJob{
		Base: &job.Base{
			JobType: amboy.JobType{
				Name:    detectChangePointsJobName,
				Version: 1,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

// NewDetectChangePointsJob queues one detection run; the result is saved
// as the analysis named by req.AnalysisID.
func NewDetectChangePointsJob(env mft.Environment, req DetectionRequest) amboy.Job {
	j := makeDetectChangePointsJob()
	j.env = env
	j.Request = req
	j.SetID(fmt.Sprintf("%s.%s.%s", detectChangePointsJobName, req.AnalysisID, util.RoundPartOfHour(10).Format(mft.ShortDateFormat)))
	return j
}

func (j *detectChangePointsJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.env == nil {
		j.env = mft.GetEnvironment()
	}

	req := j.Request
	unit := spiketrain.Unit(req.Unit)

	train, err := spiketrain.New(req.Timestamps, unit, 0, req.Stop)
	if err != nil {
		j.AddError(err)
		grip.Error(message.WrapError(err, j.makeMessage("invalid event sequence")))
		return
	}

	widths := make([]spiketrain.Quantity, len(req.Widths))
	for i, h := range req.Widths {
		widths[i] = spiketrain.Q(h, unit)
	}

	opts := filter.DetectorOptions{
		Alpha:      req.Alpha,
		Surrogates: req.Surrogates,
		Step:       spiketrain.Q(req.Step, unit),
		Seed:       req.Seed,
		Workers:    req.Workers,
	}
	nullModel := "limit_process"
	if req.Bootstrap {
		opts.Calibrator = filter.NewBootstrapCalibrator()
		nullModel = "bootstrap"
	}

	result, err := filter.NewDetector(opts).Detect(ctx, widths, train, spiketrain.Q(req.Stop, unit))
	if err != nil {
		j.AddError(err)
		grip.Error(message.WrapError(err, j.makeMessage("unable to detect change points")))
		return
	}

	analysis := model.NewAnalysis(model.AnalysisInfo{
		Unit:       req.Unit,
		Count:      train.Len(),
		Start:      train.Start(),
		Stop:       train.Stop(),
		Widths:     req.Widths,
		Alpha:      req.Alpha,
		Surrogates: req.Surrogates,
		Step:       req.Step,
		Seed:       req.Seed,
		NullModel:  nullModel,
	}, result)
	if req.AnalysisID != "" {
		analysis.ID = req.AnalysisID
	}
	analysis.Setup(j.env)

	if err := analysis.Save(ctx); err != nil {
		j.AddError(err)
		grip.Error(message.WrapError(err, j.makeMessage("unable to save analysis")))
		return
	}

	grip.Info(j.makeMessage("analysis complete"))
}

func (j *detectChangePointsJob) makeMessage(msg string) message.Fields {
	return message.Fields{
		"message":  msg,
		"job_id":   j.ID(),
		"analysis": j.Request.AnalysisID,
		"count":    len(j.Request.Timestamps),
		"widths":   len(j.Request.Widths),
	}
}
