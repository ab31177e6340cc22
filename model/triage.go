package model

import (
	"context"
	"time"

	"github.com/mongodb/anser/bsonutil"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spikework/mft"
)

// TriageInfo records the human review state of a detected point.
type TriageInfo struct {
	TriagedOn time.Time    `bson:"triaged_on" json:"triaged_on" yaml:"triaged_on"`
	Status    TriageStatus `bson:"triage_status" json:"triage_status" yaml:"triage_status"`
}

var (
	triageInfoTriagedOnKey = bsonutil.MustHaveTag(TriageInfo{}, "TriagedOn")
	triageInfoStatusKey    = bsonutil.MustHaveTag(TriageInfo{}, "Status")
)

type TriageStatus string

const (
	TriageStatusUntriaged          TriageStatus = "untriaged"
	TriageStatusTruePositive       TriageStatus = "true_positive"
	TriageStatusFalsePositive      TriageStatus = "false_positive"
	TriageStatusUnderInvestigation TriageStatus = "under_investigation"
)

func (ts TriageStatus) Validate() error {
	switch ts {
	case TriageStatusUntriaged, TriageStatusTruePositive, TriageStatusFalsePositive, TriageStatusUnderInvestigation:
		return nil
	default:
		return errors.Errorf("invalid triage status '%s'", string(ts))
	}
}

func TriageStatuses() []TriageStatus {
	return []TriageStatus{TriageStatusUntriaged, TriageStatusTruePositive, TriageStatusFalsePositive, TriageStatusUnderInvestigation}
}

// TriageDetection sets the triage status of the detected point at the
// given width and time within one stored analysis.
func TriageDetection(ctx context.Context, env mft.Environment, analysisID string, width, at float64, status TriageStatus) error {
	if err := status.Validate(); err != nil {
		return errors.WithStack(err)
	}

	db, err := env.GetDB()
	if err != nil {
		return errors.WithStack(err)
	}

	update := bson.M{
		"$set": bson.M{
			bsonutil.GetDottedKeyName(analysisResultsKey, "$[w]", widthDetectionsPointsKey, "$[p]", detectedPointTriageKey, triageInfoStatusKey):    status,
			bsonutil.GetDottedKeyName(analysisResultsKey, "$[w]", widthDetectionsPointsKey, "$[p]", detectedPointTriageKey, triageInfoTriagedOnKey): time.Now(),
		},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{bsonutil.GetDottedKeyName("w", widthDetectionsWidthKey): width},
			bson.M{bsonutil.GetDottedKeyName("p", detectedPointTimeKey): at},
		},
	})

	res, err := db.Collection(mft.AnalysisCollection).UpdateOne(ctx, bson.M{analysisIDKey: analysisID}, update, opts)
	if err != nil {
		return errors.Wrapf(err, "unable to triage point %g/%g of analysis '%s'", width, at, analysisID)
	}
	if res.MatchedCount != 1 {
		return errors.Errorf("no analysis '%s'", analysisID)
	}
	if res.ModifiedCount != 1 {
		return errors.Errorf("no detection at width %g and time %g in analysis '%s'", width, at, analysisID)
	}
	return nil
}
