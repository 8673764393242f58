package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/soochol/sharemenu/internal/extension"
	"github.com/soochol/sharemenu/internal/share"
)

// outcomeResponse reports how an extension request finished.
type outcomeResponse struct {
	Status string   `json:"status" cbor:"status"`
	Error  string   `json:"error,omitempty" cbor:"error,omitempty"`
	Opened []string `json:"opened,omitempty" cbor:"opened,omitempty"`
}

func newOutcomeResponse(o extension.Outcome) outcomeResponse {
	resp := outcomeResponse{Status: o.Status.String(), Opened: o.Opened}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	return resp
}

// pendingRequest returns the current request, writing an error when there is
// none or it already finished.
func (s *Server) pendingRequest(w http.ResponseWriter) *extension.Request {
	req := s.currentRequest()
	if req == nil {
		http.Error(w, "no share request", http.StatusNotFound)
		return nil
	}
	if req.Outcome().Status != extension.StatusPending {
		http.Error(w, "share request already finished", http.StatusConflict)
		return nil
	}
	return req
}

// extensionData previews the current share without completing it.
// GET /api/extension/data
func (s *Server) extensionData(w http.ResponseWriter, r *http.Request) {
	req := s.currentRequest()
	if req == nil {
		http.Error(w, "no share request", http.StatusNotFound)
		return
	}
	rec, err := s.shares.Preview(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respondShare(w, r, share.Response{Items: rec.Items})
}

// continueInApp stores the share with optional extra data and opens the app.
// POST /api/extension/continue
func (s *Server) continueInApp(w http.ResponseWriter, r *http.Request) {
	req := s.pendingRequest(w)
	if req == nil {
		return
	}

	var body struct {
		ExtraData map[string]any `json:"extraData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.shares.Post(r.Context(), req, body.ExtraData); err != nil {
		writeError(w, err)
		return
	}
	respond(w, r, http.StatusOK, newOutcomeResponse(req.Outcome()))
}

// openApp opens the host app without storing anything.
// POST /api/extension/open
func (s *Server) openApp(w http.ResponseWriter, r *http.Request) {
	req := s.pendingRequest(w)
	if req == nil {
		return
	}
	if err := s.shares.OpenApp(req); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond(w, r, http.StatusOK, newOutcomeResponse(req.Outcome()))
}

// dismissExtension closes the extension, cancelling it when an error is given.
// POST /api/extension/dismiss
func (s *Server) dismissExtension(w http.ResponseWriter, r *http.Request) {
	req := s.pendingRequest(w)
	if req == nil {
		return
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.shares.Dismiss(req, body.Error)
	respond(w, r, http.StatusOK, newOutcomeResponse(req.Outcome()))
}
