package server

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/promohive/proofcheck"
	"github.com/promohive/proofcheck/internal/events"
)

// Verdict is the cacheable part of a verification response: everything
// derived from the image bytes alone.
type Verdict struct {
	Platform           string                      `json:"platform"`
	ViewCount          int64                       `json:"viewCount"`
	Validation         proofcheck.ValidationResult `json:"validation"`
	DuplicateSuspected bool                        `json:"duplicateSuspected"`
}

// VerificationResponse is the API payload for one verification.
type VerificationResponse struct {
	ID     string `json:"id"`
	Cached bool   `json:"cached"`
	Verdict
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

// verify accepts a multipart upload (file field "image", form field
// "platform") and returns the merged extraction + validation verdict.
// A zero viewCount means "could not extract" and pre-fills an editable
// form field client-side; flags render as a non-blocking warning banner.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "cannot parse multipart form")
		return
	}

	platform, err := proofcheck.ParsePlatform(r.FormValue("platform"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "missing image file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "cannot read image")
		return
	}

	ctx := r.Context()
	fileHash := proofcheck.FileHash(data)

	resp := VerificationResponse{ID: uuid.NewString()}
	if h.cache.Get(ctx, fileHash, &resp.Verdict) && resp.Verdict.Platform == string(platform) {
		resp.Cached = true
		writeJSON(w, http.StatusOK, resp)
		return
	}

	result := h.verifier.VerifySubmission(ctx, data, platform)
	resp.Verdict = Verdict{
		Platform:           string(platform),
		ViewCount:          result.ViewCount,
		Validation:         result.Validation,
		DuplicateSuspected: h.duplicates.SeenBytes(data),
	}
	h.cache.Set(ctx, fileHash, resp.Verdict)

	if h.events != nil {
		ev := events.SubmissionVerified{
			VerificationID: resp.ID,
			Platform:       string(platform),
			FileHash:       fileHash,
			ViewCount:      result.ViewCount,
			IsFlagged:      result.Validation.IsFlagged,
			Flags:          result.Validation.Flags,
			OccurredAt:     h.nowFn(),
		}
		if err := h.events.Publish(ctx, ev); err != nil {
			h.log.Warn("publish verification event", "id", resp.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
