package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"spendlens/internal/core"
	"spendlens/internal/insights"
	"spendlens/internal/log"
	"spendlens/internal/store"
)

type (
	apiError struct {
		Error string `json:"error"`
	}

	transactionsResponse struct {
		Transactions []core.Transaction `json:"transactions"`
		Count        int                `json:"count"`
		Categories   []string           `json:"categories"`
	}

	ingestResponse struct {
		Entry   string            `json:"entry"`
		Merge   store.MergeResult `json:"merge"`
		Summary insights.Report   `json:"summary"`
	}
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.statements.Summary(r.Context())
	if err != nil {
		s.apiFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary.Report(time.Now()))
}

func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txs, err := s.statements.Transactions(ctx, queryFromValues(r.URL.Query().Get))
	if err != nil {
		s.apiFailure(w, r, err)
		return
	}
	cats, err := s.statements.Categories(ctx)
	if err != nil {
		s.apiFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: txs, Count: len(txs), Categories: cats})
}

// handleAPIUploadStatement accepts the archive either as the multipart
// "statement" field or as a raw application/zip body named by the filename
// query parameter.
func (s *Server) handleAPIUploadStatement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		name string
		blob []byte
		err  error
	)
	if isRawArchive(r) {
		name, blob, err = s.readRawUpload(w, r)
	} else {
		name, blob, err = s.readUpload(w, r)
	}
	if err == nil {
		res, ingestErr := s.statements.Ingest(ctx, name, blob)
		if ingestErr == nil {
			writeJSON(w, http.StatusCreated, ingestResponse{
				Entry:   res.Entry,
				Merge:   res.Merge,
				Summary: res.Summary.Report(time.Now()),
			})
			return
		}
		err = ingestErr
	}

	status, msg := ingestStatus(err)
	if status >= http.StatusInternalServerError {
		s.structured.LogError(ctx, "Statement upload failed", err, log.ComponentHTTP, log.OpIngest,
			log.NewFields().WithUpload(name, int64(len(blob))))
	}
	writeJSON(w, status, apiError{Error: msg})
}

func isRawArchive(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	switch mt {
	case "application/zip", "application/x-zip-compressed", "application/octet-stream":
		return true
	}
	return false
}

func (s *Server) readRawUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	name := sanitizeInput(r.URL.Query().Get("filename"))
	if name == "" {
		name = "statement.zip"
	}
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return name, nil, &uploadError{status: http.StatusRequestEntityTooLarge, message: "The file exceeds the upload limit."}
		}
		return name, nil, &uploadError{status: http.StatusBadRequest, message: "The upload could not be read. Please try again."}
	}
	return name, blob, nil
}

// handleAPIReset empties the collection.
func (s *Server) handleAPIReset(w http.ResponseWriter, r *http.Request) {
	if err := s.statements.Reset(r.Context()); err != nil {
		s.apiFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.structured.LogError(r.Context(), "API request failed", err, log.ComponentHTTP, log.OpSummary,
		log.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent(), r.Referer()).
			WithClientIP(s.securityDetector.ExtractClientIP(r)))
	writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
}
