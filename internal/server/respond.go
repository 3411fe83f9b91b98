package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stakegraph/pkg/errors"
	graphio "github.com/matzehuels/stakegraph/pkg/io"
	"github.com/matzehuels/stakegraph/pkg/observability"
	"github.com/matzehuels/stakegraph/pkg/store"
)

// maxBody bounds request bodies.
const maxBody = 8 << 20

type errorResponse struct {
	Error  string              `json:"error"`
	Code   errors.Code         `json:"code"`
	Fields []errors.FieldError `json:"fields,omitempty"`
}

type outcomeResponse struct {
	Outcome store.Outcome `json:"outcome"`
	ID      string        `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)}
	var v *errors.ValidationError
	if stderrors.As(err, &v) {
		resp.Error = "payload rejected"
		resp.Fields = v.Fields
	}
	if resp.Code == "" {
		resp.Code = errors.ErrCodeInternal
	}
	status := statusFor(resp.Code)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, resp)
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidPayload, errors.ErrCodeInvalidID, errors.ErrCodeOwnershipCycle:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeDuplicateID:
		return http.StatusConflict
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound, errors.ErrCodeEdgeNotFound,
		errors.ErrCodeSnapshotNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// writeOutcome answers 404 for NotFound and 200 otherwise.
func (s *Server) writeOutcome(w http.ResponseWriter, r *http.Request, o store.Outcome, id string, notFound errors.Code) {
	if o == store.NotFound {
		s.writeError(w, r, errors.New(notFound, "%q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse{Outcome: o, ID: id})
}

// decodeJSON reads a typed request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body")
	}
	return nil
}

// decodePayload reads an untyped graph payload, JSON or YAML by
// Content-Type.
func decodePayload(r *http.Request) (any, error) {
	format := graphio.FormatJSON
	if ct := r.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = graphio.FormatYAML
	}
	return graphio.Decode(io.LimitReader(r.Body, maxBody), format)
}

// observe reports every request to the HTTP hooks and logs it at debug
// level.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		observability.HTTP().OnRequest(ctx, r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(ctx, r.Method, r.URL.Path, status, elapsed)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status,
			"duration", elapsed, "request_id", middleware.GetReqID(ctx))
	})
}
