package model

import (
	"context"
	"time"

	"github.com/evergreen-ci/utility"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spikework/mft"
	"github.com/spikework/mft/filter"
)

// Analysis is the stored record of one detection run: the input
// descriptor and parameters, the calibrated threshold, and the detected
// change points per window width.
type Analysis struct {
	ID        string            `bson:"_id" json:"id" yaml:"id"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at" yaml:"created_at"`
	Info      AnalysisInfo      `bson:"info" json:"info" yaml:"info"`
	Threshold filter.Threshold  `bson:"threshold" json:"threshold" yaml:"threshold"`
	Results   []WidthDetections `bson:"results" json:"results" yaml:"results"`

	populated bool
	env       mft.Environment
}

var (
	analysisIDKey        = bsonutil.MustHaveTag(Analysis{}, "ID")
	analysisCreatedAtKey = bsonutil.MustHaveTag(Analysis{}, "CreatedAt")
	analysisInfoKey      = bsonutil.MustHaveTag(Analysis{}, "Info")
	analysisThresholdKey = bsonutil.MustHaveTag(Analysis{}, "Threshold")
	analysisResultsKey   = bsonutil.MustHaveTag(Analysis{}, "Results")
)

// AnalysisInfo describes the input sequence and the parameters of the
// run. Times, widths, and the grid step are in Unit.
type AnalysisInfo struct {
	Unit       string    `bson:"unit" json:"unit" yaml:"unit"`
	Count      int       `bson:"count" json:"count" yaml:"count"`
	Start      float64   `bson:"start" json:"start" yaml:"start"`
	Stop       float64   `bson:"stop" json:"stop" yaml:"stop"`
	Widths     []float64 `bson:"widths" json:"widths" yaml:"widths"`
	Alpha      float64   `bson:"alpha" json:"alpha" yaml:"alpha"`
	Surrogates int       `bson:"surrogates" json:"surrogates" yaml:"surrogates"`
	Step       float64   `bson:"step" json:"step" yaml:"step"`
	Seed       int64     `bson:"seed" json:"seed" yaml:"seed"`
	NullModel  string    `bson:"null_model" json:"null_model" yaml:"null_model"`
}

var (
	analysisInfoUnitKey  = bsonutil.MustHaveTag(AnalysisInfo{}, "Unit")
	analysisInfoCountKey = bsonutil.MustHaveTag(AnalysisInfo{}, "Count")
)

// WidthDetections holds the detections for one window width.
type WidthDetections struct {
	Width         float64         `bson:"width" json:"width" yaml:"width"`
	CrossingLevel float64         `bson:"crossing_level" json:"crossing_level" yaml:"crossing_level"`
	Points        []DetectedPoint `bson:"points" json:"points" yaml:"points"`
}

var (
	widthDetectionsWidthKey  = bsonutil.MustHaveTag(WidthDetections{}, "Width")
	widthDetectionsPointsKey = bsonutil.MustHaveTag(WidthDetections{}, "Points")
)

// DetectedPoint is one stored change point together with its human
// triage state.
type DetectedPoint struct {
	Time      float64    `bson:"time" json:"time" yaml:"time"`
	Statistic float64    `bson:"statistic" json:"statistic" yaml:"statistic"`
	Triage    TriageInfo `bson:"triage" json:"triage" yaml:"triage"`
}

var (
	detectedPointTimeKey   = bsonutil.MustHaveTag(DetectedPoint{}, "Time")
	detectedPointTriageKey = bsonutil.MustHaveTag(DetectedPoint{}, "Triage")
)

// NewAnalysis builds a storable Analysis from a detection result. Every
// point starts untriaged.
func NewAnalysis(info AnalysisInfo, result *filter.Result) *Analysis {
	a := &Analysis{
		ID:        utility.RandomString(),
		CreatedAt: time.Now(),
		Info:      info,
		Threshold: *result.Threshold,
		Results:   make([]WidthDetections, len(result.Widths)),
		populated: true,
	}
	a.Info.Unit = string(result.Unit)

	for i, wr := range result.Widths {
		points := make([]DetectedPoint, len(wr.Points))
		for j, p := range wr.Points {
			points[j] = DetectedPoint{
				Time:      p.Time,
				Statistic: p.Statistic,
				Triage:    TriageInfo{Status: TriageStatusUntriaged},
			}
		}
		a.Results[i] = WidthDetections{
			Width:         wr.Width,
			CrossingLevel: wr.CrossingLevel,
			Points:        points,
		}
	}

	return a
}

func (a *Analysis) Setup(e mft.Environment) { a.env = e }
func (a *Analysis) IsNil() bool             { return !a.populated }

// Find populates the analysis from the database by its ID.
func (a *Analysis) Find(ctx context.Context) error {
	db, err := a.env.GetDB()
	if err != nil {
		return errors.WithStack(err)
	}

	a.populated = false
	err = db.Collection(mft.AnalysisCollection).FindOne(ctx, bson.M{analysisIDKey: a.ID}).Decode(a)
	if err == mongo.ErrNoDocuments {
		return errors.Wrapf(err, "could not find analysis '%s'", a.ID)
	} else if err != nil {
		return errors.Wrapf(err, "problem finding analysis '%s'", a.ID)
	}

	a.populated = true
	return nil
}

// Save upserts the analysis.
func (a *Analysis) Save(ctx context.Context) error {
	if !a.populated {
		return errors.New("cannot save a non-populated analysis")
	}
	if a.ID == "" {
		a.ID = utility.RandomString()
	}

	db, err := a.env.GetDB()
	if err != nil {
		return errors.WithStack(err)
	}

	res, err := db.Collection(mft.AnalysisCollection).ReplaceOne(ctx, bson.M{analysisIDKey: a.ID}, a, options.Replace().SetUpsert(true))
	grip.DebugWhen(err == nil, message.Fields{
		"collection": mft.AnalysisCollection,
		"id":         a.ID,
		"operation":  "save analysis",
		"widths":     len(a.Results),
		"upserted":   res != nil && res.UpsertedCount > 0,
	})
	return errors.Wrapf(err, "problem saving analysis '%s'", a.ID)
}

// Remove deletes the analysis from the database.
func (a *Analysis) Remove(ctx context.Context) error {
	db, err := a.env.GetDB()
	if err != nil {
		return errors.WithStack(err)
	}

	_, err = db.Collection(mft.AnalysisCollection).DeleteOne(ctx, bson.M{analysisIDKey: a.ID})
	return errors.Wrapf(err, "problem removing analysis '%s'", a.ID)
}
