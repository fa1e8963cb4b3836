package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"spendlens/internal/ingest"
	"spendlens/internal/log"
	"spendlens/internal/services"
)

// UploadField is the multipart field carrying the statement archive.
const UploadField = "statement"

type notificationView struct {
	Kind    NotificationType
	Message string
}

// uploadError is a failure to read the request itself, before ingestion.
type uploadError struct {
	status  int
	message string
}

func (e *uploadError) Error() string { return e.message }

// readUpload returns the uploaded file name and contents, bounded by the
// configured upload limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, &uploadError{
				status:  http.StatusRequestEntityTooLarge,
				message: fmt.Sprintf("The file is larger than the %d MB upload limit.", s.maxUpload>>20),
			}
		}
		return "", nil, &uploadError{status: http.StatusBadRequest, message: "Please choose a ZIP file to upload."}
	}

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		return "", nil, &uploadError{status: http.StatusBadRequest, message: "Please choose a ZIP file to upload."}
	}
	defer file.Close()

	blob, err := io.ReadAll(file)
	if err != nil {
		return "", nil, &uploadError{status: http.StatusBadRequest, message: "The upload could not be read. Please try again."}
	}
	return header.Filename, blob, nil
}

// ingestStatus maps an ingestion error to a status code and the message
// shown to the user.
func ingestStatus(err error) (int, string) {
	var ue *uploadError
	switch {
	case errors.As(err, &ue):
		return ue.status, ue.message
	case ingest.IsInputRejected(err):
		return http.StatusUnprocessableEntity, ingest.UserMessage(err)
	case errors.Is(err, ingest.ErrArchiveCorrupt):
		return http.StatusInternalServerError, ingest.UserMessage(err)
	default:
		return http.StatusInternalServerError, "Could not save the transactions. Please try again."
	}
}

// handleUploadStatement ingests a statement archive from the dashboard form.
func (s *Server) handleUploadStatement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name, blob, err := s.readUpload(w, r)
	if err == nil {
		var res services.IngestResult
		res, err = s.statements.Ingest(ctx, name, blob)
		if err == nil {
			s.notifyChanged(w, r, res, fmt.Sprintf("Imported %d transactions from %s.", res.Merge.Added, res.Entry))
			return
		}
	}

	status, msg := ingestStatus(err)
	if status >= http.StatusInternalServerError {
		s.structured.LogError(ctx, "Statement upload failed", err, log.ComponentHTTP, log.OpIngest,
			log.NewFields().WithUpload(name, int64(len(blob))))
	}
	ErrorNotice(status, msg).Write(w)
}

func (s *Server) handleLoadSample(w http.ResponseWriter, r *http.Request) {
	res, err := s.statements.LoadSample(r.Context())
	if err != nil {
		s.structured.LogError(r.Context(), "Sample load failed", err, log.ComponentHTTP, log.OpIngest, log.NewFields())
		InternalServerError("Could not load the sample data.").Write(w)
		return
	}
	s.notifyChanged(w, r, res, fmt.Sprintf("Loaded %d sample transactions.", res.Merge.Added))
}

// notifyChanged answers a successful ingestion and tells the dashboard to
// reload its fragments.
func (s *Server) notifyChanged(w http.ResponseWriter, r *http.Request, res services.IngestResult, msg string) {
	if res.Merge.Dropped > 0 {
		msg += fmt.Sprintf(" %d duplicates skipped.", res.Merge.Dropped)
	}
	b := NewHTMXResponse().
		TriggerTransactionsChanged(res.Merge.Version, res.Merge.Total).
		NotifySuccess(msg)
	s.render(w, r, b, "notification", notificationView{Kind: NotificationSuccess, Message: msg})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ref, err := s.statements.Export(r.Context())
	switch {
	case errors.Is(err, services.ErrExportDisabled):
		NotFoundError("Export to Google Sheets is not configured.").Write(w)
		return
	case err != nil:
		msg := "Export to Google Sheets failed. Please try again later."
		ErrorNotice(http.StatusBadGateway, msg).Write(w)
		return
	}

	msg := "Summary exported to " + ref + "."
	s.logger.InfoContext(r.Context(), "Summary exported", log.FieldRef, ref)
	b := NewHTMXResponse().NotifySuccess(msg)
	s.render(w, r, b, "notification", notificationView{Kind: NotificationSuccess, Message: msg})
}
