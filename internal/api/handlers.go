package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dedupe/internal/dedupe"
	"github.com/sells-group/dedupe/internal/model"
	"github.com/sells-group/dedupe/internal/resilience"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

type checkRequest struct {
	Record model.Record `json:"record"`
	Scope  string       `json:"scope"`
}

type scanRequest struct {
	Scope       string `json:"scope"`
	Blocking    string `json:"blocking"`
	Concurrency int    `json:"concurrency"`
	// IncludePairs returns every scored pair, not only the groups.
	IncludePairs bool `json:"include_pairs"`
}

type mergeRequest struct {
	KeepID   string   `json:"keep_id"`
	MergeIDs []string `json:"merge_ids"`
}

type configResponse struct {
	Config  dedupe.Config `json:"config"`
	Ignored []string      `json:"ignored"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if req.Record.IsEmpty() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "record has no contact fields"})
		return
	}
	if err := dedupe.ValidateCandidate(req.Record); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "record name is required"})
		return
	}

	res, err := s.engine.CheckDuplicate(r.Context(), req.Record, s.scope(req.Scope))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	opts := s.opts.Scan
	if req.Blocking != "" {
		b, err := dedupe.ParseBlockingStrategy(req.Blocking)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		opts.Blocking = b
	}
	if req.Concurrency > 0 {
		opts.Concurrency = req.Concurrency
	}

	report, err := s.engine.ScanCollection(r.Context(), s.scope(req.Scope), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if !req.IncludePairs {
		report.Pairs = nil
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if len(req.MergeIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "merge_ids is required"})
		return
	}

	res, err := s.engine.Merge(r.Context(), req.KeepID, req.MergeIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, configResponse{Config: s.engine.Config(), Ignored: []string{}})
}

func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	var partial map[string]any
	if err := decodeBody(r, &partial, false); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	cfg, ignored, err := s.engine.UpdateConfig(partial)
	if err != nil {
		writeError(w, err)
		return
	}
	if ignored == nil {
		ignored = []string{}
	}
	writeJSON(w, http.StatusOK, configResponse{Config: cfg, Ignored: ignored})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.stats.Collect(r.Context(), s.scope(r.URL.Query().Get("scope")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) scope(requested string) string {
	if requested != "" {
		return requested
	}
	return s.opts.Scope
}

// decodeBody decodes a JSON request body into v. An empty body is an
// error unless optional is set.
func decodeBody(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			if optional {
				return nil
			}
			return eris.New("request body is required")
		}
		return eris.New("invalid request body")
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusServiceUnavailable {
		zap.L().Warn("api: store unavailable", zap.Error(err))
		writeJSON(w, status, errorBody{Error: "store unavailable"})
		return
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.Error(err))
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dedupe.ErrInvalidConfig), errors.Is(err, dedupe.ErrMissingID),
		errors.Is(err, dedupe.ErrMissingName):
		return http.StatusBadRequest
	case errors.Is(err, dedupe.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return statusClientClosed
	default:
		return http.StatusInternalServerError
	}
}

// statusClientClosed is logged when the client goes away mid-request.
const statusClientClosed = 499

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}
