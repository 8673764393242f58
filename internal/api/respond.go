package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/soochol/sharemenu/internal/manifest"
	"github.com/soochol/sharemenu/internal/services"
	"github.com/soochol/sharemenu/internal/share"
)

const contentTypeCBOR = "application/cbor"

// wantsCBOR reports whether the client asked for a CBOR body.
func wantsCBOR(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), contentTypeCBOR)
}

// respond writes v as CBOR when the client accepts it, JSON otherwise.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if wantsCBOR(r) {
		data, err := cbor.Marshal(v)
		if err != nil {
			http.Error(w, "encode response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentTypeCBOR)
		w.WriteHeader(status)
		w.Write(data)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondShare validates resp against the share schema before writing it.
func respondShare(w http.ResponseWriter, r *http.Request, resp share.Response) {
	if resp.Items == nil {
		resp.Items = []share.Item{}
	}
	if err := share.ValidateResponse(resp); err != nil {
		slog.Error("api: share response failed validation", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond(w, r, http.StatusOK, resp)
}

// writeError maps pipeline errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, manifest.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, share.ErrNoProvidersRecognized),
		errors.Is(err, share.ErrUnrecognizedPayload),
		errors.Is(err, services.ErrActivationRejected):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, share.ErrContainerUnavailable):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}
