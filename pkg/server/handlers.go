package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/matzehuels/molgrid/pkg/buildinfo"
	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/options"
	"github.com/matzehuels/molgrid/pkg/pipeline"
)

// Response headers describing a render.
const (
	HeaderCache      = "X-Molgrid-Cache"
	HeaderStructures = "X-Molgrid-Structures"
	HeaderStopped    = "X-Molgrid-Stopped"
)

// splitResponse is the body of a split render.
type splitResponse struct {
	ContentType string   `json:"content_type"`
	Images      [][]byte `json:"images"`
	Structures  int      `json:"structures"`
	CacheHit    bool     `json:"cache_hit"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	reqOpts, err := options.Parse(q["opt"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	split, err := parseBool(q.Get("split"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	refresh, err := parseBool(q.Get("refresh"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := q.Get("format")
	if format == "" {
		format = s.format
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: errorDetail{
				Code:      errors.ErrCodeInvalidInput,
				Message:   "request body too large",
				RequestID: RequestID(r.Context()),
			}})
			return
		}
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	result, err := s.runner.Execute(r.Context(), body, pipeline.Options{
		Options: s.defaults.Merge(reqOpts),
		Format:  format,
		Split:   split,
		Refresh: refresh,
		Logger:  s.logger.With("request_id", RequestID(r.Context())),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cache := "miss"
	if result.CacheHit {
		cache = "hit"
	}
	w.Header().Set(HeaderCache, cache)
	w.Header().Set(HeaderStructures, strconv.Itoa(result.Stats.Written))
	w.Header().Set(HeaderStopped, strconv.FormatBool(result.Stats.Stopped))

	if split {
		writeJSON(w, http.StatusOK, splitResponse{
			ContentType: result.ContentType,
			Images:      result.Images,
			Structures:  result.Stats.Written,
			CacheHit:    result.CacheHit,
		})
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.WriteHeader(http.StatusOK)
	if len(result.Images) > 0 {
		_, _ = w.Write(result.Images[0])
	}
}

func parseBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInvalidOption, err, "invalid boolean %q", v)
	}
	return b, nil
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidOption, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidInput, errors.ErrCodeRender:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	msg := errors.UserMessage(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err, "request_id", RequestID(r.Context()))
		if code == errors.ErrCodeInternal {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:      code,
		Message:   msg,
		RequestID: RequestID(r.Context()),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
