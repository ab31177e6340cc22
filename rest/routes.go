package rest

import (
	"net/http"

	"github.com/evergreen-ci/gimlet"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"

	"github.com/spikework/mft"
	"github.com/spikework/mft/filter"
	"github.com/spikework/mft/model"
	"github.com/spikework/mft/spiketrain"
	"github.com/spikework/mft/units"
)

////////////////////////////////////////////////////////////////////////
//
// GET /status

type StatusResponse struct {
	Revision  string `json:"revision"`
	QueueName string `json:"queue"`
	Pending   int    `json:"pending"`
}

func (s *Service) statusHandler(w http.ResponseWriter, r *http.Request) {
	resp := &StatusResponse{
		Revision:  mft.BuildRevision,
		QueueName: mft.QueueName,
	}

	if s.queue != nil {
		resp.Pending = s.queue.Stats(r.Context()).Pending
	}

	gimlet.WriteJSON(w, resp)
}

////////////////////////////////////////////////////////////////////////
//
// POST /detect
//
// Runs the multiple filter test synchronously on the request payload and
// returns the full result without persisting anything.

type DetectResponse struct {
	Result *filter.Result `json:"result,omitempty"`
	Err    string         `json:"error,omitempty"`
}

func (s *Service) detectChangePoints(w http.ResponseWriter, r *http.Request) {
	req := units.DetectionRequest{}
	resp := &DetectResponse{}

	if err := gimlet.GetJSON(r.Body, &req); err != nil {
		resp.Err = err.Error()
		gimlet.WriteJSONError(w, resp)
		return
	}

	result, err := runDetection(r, req)
	if err != nil {
		resp.Err = err.Error()
		switch errors.Cause(err) {
		case spiketrain.ErrInvalidInput, spiketrain.ErrInvalidUnit:
			gimlet.WriteJSONError(w, resp)
		default:
			gimlet.WriteJSONInternalError(w, resp)
		}
		return
	}

	resp.Result = result
	gimlet.WriteJSON(w, resp)
}

func runDetection(r *http.Request, req units.DetectionRequest) (*filter.Result, error) {
	unit := spiketrain.Unit(req.Unit)

	train, err := spiketrain.New(req.Timestamps, unit, 0, req.Stop)
	if err != nil {
		return nil, errors.WithStack(err)
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
	if req.Bootstrap {
		opts.Calibrator = filter.NewBootstrapCalibrator()
	}

	return filter.NewDetector(opts).Detect(r.Context(), widths, train, spiketrain.Q(req.Stop, unit))
}

////////////////////////////////////////////////////////////////////////
//
// POST /analysis
//
// Enqueues a detection job and returns the ID the stored analysis will
// have once the job completes.

type SubmitAnalysisResponse struct {
	ID  string `json:"id,omitempty"`
	Err string `json:"error,omitempty"`
}

func (s *Service) submitAnalysis(w http.ResponseWriter, r *http.Request) {
	req := units.DetectionRequest{}
	resp := &SubmitAnalysisResponse{}

	if err := gimlet.GetJSON(r.Body, &req); err != nil {
		resp.Err = err.Error()
		gimlet.WriteJSONError(w, resp)
		return
	}

	req.AnalysisID = utility.RandomString()

	if err := s.queue.Put(r.Context(), units.NewDetectChangePointsJob(s.Environment, req)); err != nil {
		err = errors.Wrap(err, "problem queueing detection job")
		grip.Error(message.WrapError(err, message.Fields{
			"method":   "POST",
			"route":    "/analysis",
			"analysis": req.AnalysisID,
		}))
		resp.Err = err.Error()
		gimlet.WriteJSONInternalError(w, resp)
		return
	}

	resp.ID = req.AnalysisID
	gimlet.WriteJSON(w, resp)
}

////////////////////////////////////////////////////////////////////////
//
// GET /analysis/{id}

type AnalysisResponse struct {
	Analysis *model.Analysis `json:"analysis,omitempty"`
	Err      string          `json:"error,omitempty"`
}

func (s *Service) getAnalysis(w http.ResponseWriter, r *http.Request) {
	id := gimlet.GetVars(r)["id"]
	resp := &AnalysisResponse{}

	analysis := &model.Analysis{ID: id}
	analysis.Setup(s.Environment)
	if err := analysis.Find(r.Context()); err != nil {
		resp.Err = err.Error()
		gimlet.WriteJSONError(w, resp)
		return
	}

	resp.Analysis = analysis
	gimlet.WriteJSON(w, resp)
}

////////////////////////////////////////////////////////////////////////
//
// PATCH /analysis/{id}/triage

type TriageRequest struct {
	Width  float64            `json:"width"`
	Time   float64            `json:"time"`
	Status model.TriageStatus `json:"status"`
}

type TriageResponse struct {
	Err string `json:"error,omitempty"`
}

func (s *Service) triageDetection(w http.ResponseWriter, r *http.Request) {
	id := gimlet.GetVars(r)["id"]
	req := TriageRequest{}
	resp := &TriageResponse{}

	if err := gimlet.GetJSON(r.Body, &req); err != nil {
		resp.Err = err.Error()
		gimlet.WriteJSONError(w, resp)
		return
	}

	if err := model.TriageDetection(r.Context(), s.Environment, id, req.Width, req.Time, req.Status); err != nil {
		resp.Err = err.Error()
		gimlet.WriteJSONError(w, resp)
		return
	}

	gimlet.WriteJSON(w, resp)
}
