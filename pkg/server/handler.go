package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mercator-hq/janus/pkg/accounting"
	"mercator-hq/janus/pkg/pcl/ast"
	"mercator-hq/janus/pkg/radius/dict"
	"mercator-hq/janus/pkg/radius/request"
	"mercator-hq/janus/pkg/radius/value"
)

// EvaluateRequest is the body of POST /v1/evaluate. Attribute maps accept a
// single value or a list of values per attribute; every attribute must be
// declared in the dictionary.
type EvaluateRequest struct {
	// Policy names a single policy to evaluate. Empty evaluates all loaded
	// policies in order; the first match decides the verdict.
	Policy string `json:"policy,omitempty"`

	// Prior is the previous module's return code, matched by rcode
	// conditions. Defaults to "ok".
	Prior string `json:"prior,omitempty"`

	Request map[string]any `json:"request,omitempty"`
	Reply   map[string]any `json:"reply,omitempty"`
	Control map[string]any `json:"control,omitempty"`
}

// PolicyResult is the outcome of evaluating one policy.
type PolicyResult struct {
	Policy  string `json:"policy"`
	Matched bool   `json:"matched"`
	Error   string `json:"error,omitempty"`
}

// EvaluateResponse is the body returned by POST /v1/evaluate.
type EvaluateResponse struct {
	RequestID     string         `json:"request_id"`
	Verdict       string         `json:"verdict"`
	MatchedPolicy string         `json:"matched_policy,omitempty"`
	Results       []PolicyResult `json:"results"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body EvaluateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	prior := ast.CodeOK
	if body.Prior != "" {
		var ok bool
		prior, ok = ast.ParseReturnCode(body.Prior)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown return code %q", body.Prior))
			return
		}
	}

	req, err := s.buildRequest(&body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	policies := s.policies.All()
	if body.Policy != "" {
		p := s.policies.Find(body.Policy)
		if p == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown policy %q", body.Policy))
			return
		}
		policies = []*ast.Policy{p}
	}

	start := time.Now()
	resp := EvaluateResponse{
		RequestID: req.ID,
		Verdict:   string(accounting.VerdictReject),
	}

	var evalErr error
	for _, p := range policies {
		matched, err := s.engine.Evaluate(r.Context(), req, p.When, prior)
		result := PolicyResult{Policy: p.Name, Matched: matched}
		if err != nil {
			result.Error = err.Error()
			evalErr = err
		}
		resp.Results = append(resp.Results, result)
		if err != nil {
			break
		}
		if matched {
			resp.Verdict = string(accounting.VerdictAccept)
			resp.MatchedPolicy = p.Name
			break
		}
	}
	if evalErr != nil {
		resp.Verdict = string(accounting.VerdictError)
	}

	s.recordEvaluation(req, &resp, evalErr, time.Since(start))

	status := http.StatusOK
	if evalErr != nil {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, &resp)
}

// buildRequest turns the JSON attribute maps into a request with typed pair
// lists.
func (s *Server) buildRequest(body *EvaluateRequest) (*request.Request, error) {
	req := request.New()

	for _, part := range []struct {
		name  string
		attrs map[string]any
		list  *request.List
	}{
		{"request", body.Request, &req.Request},
		{"reply", body.Reply, &req.Reply},
		{"control", body.Control, &req.Control},
	} {
		for name, raw := range part.attrs {
			attr := s.dict.Lookup(name)
			if attr == nil {
				return nil, fmt.Errorf("%s: unknown attribute %q", part.name, name)
			}

			values, ok := raw.([]any)
			if !ok {
				values = []any{raw}
			}
			for _, v := range values {
				box, err := jsonValue(v, attr.Type)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", part.name, name, err)
				}
				part.list.Add(attr, box)
			}
		}
	}

	return req, nil
}

// jsonValue converts a decoded JSON value to the attribute's declared type.
func jsonValue(v any, to value.Type) (value.Box, error) {
	var box value.Box
	switch v := v.(type) {
	case string:
		box = value.NewString(v)
	case bool:
		box = value.NewBool(v)
	case float64:
		box = value.NewFloat64(v)
	default:
		return value.Box{}, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
	return value.Cast(box, to)
}

// recordEvaluation sends one accounting record for the whole request. Drops
// under backpressure are the recorder's concern.
func (s *Server) recordEvaluation(req *request.Request, resp *EvaluateResponse, evalErr error, dur time.Duration) {
	if s.recorder == nil {
		return
	}

	rec := accounting.NewRecord()
	rec.RequestID = req.ID
	rec.UserName = firstString(req.Request, s.dict, "User-Name")
	rec.NASIdentifier = firstString(req.Request, s.dict, "NAS-Identifier")
	rec.PolicyName = resp.MatchedPolicy
	rec.Verdict = accounting.Verdict(resp.Verdict)
	rec.Duration = dur
	if evalErr != nil {
		rec.Error = evalErr.Error()
	}

	if err := s.recorder.Record(rec); err != nil {
		s.logger.Warn("failed to record evaluation", "error", err)
	}
}

func firstString(l request.List, d *dict.Dictionary, attrName string) string {
	attr := d.Lookup(attrName)
	if attr == nil {
		return ""
	}
	p := l.First(attr)
	if p == nil {
		return ""
	}
	return p.Value.String()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"policies": s.policies.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
