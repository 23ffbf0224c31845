package httpadapter

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

const (
	stageProcess = "process"
	stageImport  = "import"
)

func (rt *Router) uploadSpreadsheet(w http.ResponseWriter, r *http.Request) {
	file, header, ok := rt.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	upload, err := rt.services.Uploads.Upload(r.Context(), actorFromContext(r.Context()), header.Filename, file)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, upload)
}

func (rt *Router) listUploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := rt.services.Uploads.ListUploads(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": uploads})
}

func (rt *Router) processUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	start := time.Now()
	result, err := rt.services.Uploads.ProcessUpload(r.Context(), actorFromContext(r.Context()), req.Key)
	rt.writeProcessResult(w, r, start, result, err)
}

func (rt *Router) processSpreadsheet(w http.ResponseWriter, r *http.Request) {
	file, header, ok := rt.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	start := time.Now()
	result, err := rt.services.Processor.ProcessSpreadsheet(r.Context(), actorFromContext(r.Context()), header.Filename, file)
	rt.writeProcessResult(w, r, start, result, err)
}

// writeProcessResult answers 200 for a staged file and 422 for a structured failure.
func (rt *Router) writeProcessResult(w http.ResponseWriter, r *http.Request, start time.Time, result *domain.ProcessResult, err error) {
	if err != nil {
		rt.observer.ObserveRun(stageProcess, time.Since(start), false)
		writeDomainError(w, r, err)
		return
	}
	rt.observer.ObserveRun(stageProcess, time.Since(start), result.Success)
	if !result.Success {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	rt.observer.AddRows(stageProcess, "extracted", result.RowCount)
	rt.observer.AddRows(stageProcess, "warned", len(result.Warnings))
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) getStaged(w http.ResponseWriter, r *http.Request) {
	payload, err := rt.services.Staged.ReadStaged(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "filename"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (rt *Router) importCases(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StagedFile string `json:"staged_file"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.StagedFile) == "" {
		writeError(w, http.StatusBadRequest, "staged_file is required")
		return
	}

	start := time.Now()
	result, err := rt.services.Importer.Import(r.Context(), actorFromContext(r.Context()), req.StagedFile)
	if err != nil {
		rt.observer.ObserveRun(stageImport, time.Since(start), false)
		writeDomainError(w, r, err)
		return
	}
	rt.observer.ObserveRun(stageImport, time.Since(start), result.Success)
	rt.observer.AddRows(stageImport, "inserted", result.Inserted)
	rt.observer.AddRows(stageImport, "updated", result.Updated)
	rt.observer.AddRows(stageImport, "skipped", len(result.Skipped))

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (rt *Router) listCases(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	if !actor.HasCourt() {
		writeError(w, http.StatusForbidden, "no court assigned to your account")
		return
	}
	cases, err := rt.services.Cases.ListByCourt(r.Context(), actor.CourtID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cases": cases})
}

func (rt *Router) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
			return nil, nil, false
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return nil, nil, false
	}
	return file, header, true
}
