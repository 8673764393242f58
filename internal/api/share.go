package api

import (
	"errors"
	"net/http"

	"github.com/soochol/sharemenu/internal/handoff"
	"github.com/soochol/sharemenu/internal/share"
)

const maxManifestSize = 1 << 20 // 1MB

// extract runs the pipeline over a posted manifest.
// POST /api/extract
func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxManifestSize)
	targets, err := s.decoder.Decode(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.shares.ExtractInContainer(r.Context(), targets)
	if err != nil {
		writeError(w, err)
		return
	}
	respondShare(w, r, share.Response{Items: rec.Items})
}

// getShare returns the stored share, or 204 when there is none.
// GET /api/share
func (s *Server) getShare(w http.ResponseWriter, r *http.Request) {
	resp, err := s.handoff.Load(r.Context())
	if errors.Is(err, handoff.ErrNotFound) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondShare(w, r, resp)
}

// clearShare forgets the stored share.
// DELETE /api/share
func (s *Server) clearShare(w http.ResponseWriter, r *http.Request) {
	if err := s.handoff.Clear(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
