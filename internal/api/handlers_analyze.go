package api

import (
	"io"
	"net/http"
	"time"

	respond "github.com/mycelian/mycelian-journal/internal/api/respond"
	"github.com/mycelian/mycelian-journal/internal/api/validate"
	"github.com/mycelian/mycelian-journal/internal/emotion"
	"github.com/mycelian/mycelian-journal/internal/services"
)

// maxFrameBytes bounds uploaded frames.
const maxFrameBytes = 4 << 20

type AnalyzeHandler struct {
	svc *services.JournalService
}

func NewAnalyzeHandler(svc *services.JournalService) *AnalyzeHandler {
	return &AnalyzeHandler{svc: svc}
}

// Text POST /v0/analyze/text
func (h *AnalyzeHandler) Text(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.AnalyzeText(req.Text)
	if err != nil {
		writeServiceError(w, r, err, "analysis failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Transcript POST /v0/analyze/transcript
func (h *AnalyzeHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transcript string `json:"transcript"`
	}
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.AnalyzeTranscript(req.Transcript)
	if err != nil {
		writeServiceError(w, r, err, "analysis failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Frame POST /v0/analyze/frame?width=&height= with the raw frame as body.
func (h *AnalyzeHandler) Frame(w http.ResponseWriter, r *http.Request) {
	width, height, err := validate.Dimensions(r.URL.Query().Get("width"), r.URL.Query().Get("height"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameBytes))
	if err != nil {
		respond.WriteError(w, http.StatusRequestEntityTooLarge, "frame too large")
		return
	}
	out, err := h.svc.AnalyzeFrame(r.Context(), emotion.Frame{Data: data, Width: width, Height: height, CapturedAt: time.Now().UTC()})
	if err != nil {
		writeServiceError(w, r, err, "analysis failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
