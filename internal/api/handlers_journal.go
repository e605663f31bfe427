package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/mycelian/mycelian-journal/internal/api/respond"
	"github.com/mycelian/mycelian-journal/internal/api/validate"
	"github.com/mycelian/mycelian-journal/internal/model"
	"github.com/mycelian/mycelian-journal/internal/services"
)

type JournalHandler struct {
	svc *services.JournalService
}

func NewJournalHandler(svc *services.JournalService) *JournalHandler {
	return &JournalHandler{svc: svc}
}

func userFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return "", false
	}
	return userID, true
}

func entryFromPath(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID, ok := userFromPath(w, r)
	if !ok {
		return "", "", false
	}
	entryID := mux.Vars(r)["entryId"]
	if err := validate.EntryID(entryID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return "", "", false
	}
	return userID, entryID, true
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		respond.WriteBadRequest(w, "Invalid JSON")
		return false
	}
	return true
}

// SubmitEntry POST /v0/users/{userId}/entries
func (h *JournalHandler) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromPath(w, r)
	if !ok {
		return
	}
	var req struct {
		Content        string              `json:"content"`
		MoodScore      *int                `json:"moodScore,omitempty"`
		FacialAnalysis *model.FacialResult `json:"facialAnalysis,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}
	out, err := h.svc.Submit(r.Context(), services.SubmitRequest{
		UserID:         userID,
		Content:        req.Content,
		MoodScore:      req.MoodScore,
		FacialAnalysis: req.FacialAnalysis,
	})
	if err != nil {
		writeServiceError(w, r, err, "could not save entry, try again")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListEntries GET /v0/users/{userId}/entries?limit=&before=&after=
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromPath(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit, err := validate.Limit(q.Get("limit"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	before, err := validate.Timestamp("before", q.Get("before"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	after, err := validate.Timestamp("after", q.Get("after"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	out, err := h.svc.ListEntries(r.Context(), model.ListEntriesRequest{UserID: userID, Limit: limit, Before: before, After: after})
	if err != nil {
		writeServiceError(w, r, err, "could not list entries, try again")
		return
	}
	if out == nil {
		out = []*model.JournalEntry{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": out, "count": len(out)})
}

// GetEntry GET /v0/users/{userId}/entries/{entryId}
func (h *JournalHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	userID, entryID, ok := entryFromPath(w, r)
	if !ok {
		return
	}
	out, err := h.svc.GetEntry(r.Context(), userID, entryID)
	if err != nil {
		writeServiceError(w, r, err, "could not load entry, try again")
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteEntry DELETE /v0/users/{userId}/entries/{entryId}
func (h *JournalHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	userID, entryID, ok := entryFromPath(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteEntry(r.Context(), userID, entryID); err != nil {
		writeServiceError(w, r, err, "could not delete entry, try again")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History GET /v0/users/{userId}/history
func (h *JournalHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromPath(w, r)
	if !ok {
		return
	}
	out, err := h.svc.History(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "could not load history")
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Similar POST /v0/users/{userId}/similar
func (h *JournalHandler) Similar(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromPath(w, r)
	if !ok {
		return
	}
	var req struct {
		Query     string  `json:"query"`
		Limit     int     `json:"limit"`
		Threshold *float64 `json:"threshold"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := validate.NonEmpty("query", req.Query); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if req.Threshold != nil {
		if err := validate.Threshold(*req.Threshold); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	hits, err := h.svc.SimilarEntries(r.Context(), userID, req.Query, req.Limit, req.Threshold)
	if err != nil {
		writeServiceError(w, r, err, "search failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": hits, "count": len(hits)})
}

type moodRequest struct {
	MoodScore *int   `json:"moodScore"`
	Content   string `json:"content,omitempty"`
}

func decodeMood(w http.ResponseWriter, r *http.Request) (moodRequest, bool) {
	var req moodRequest
	if !decode(w, r, &req) {
		return req, false
	}
	if err := validate.MoodScore(req.MoodScore); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return req, false
	}
	return req, true
}

// CopingStrategies POST /v0/users/{userId}/coping-strategies
func (h *JournalHandler) CopingStrategies(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromPath(w, r)
	if !ok {
		return
	}
	req, ok := decodeMood(w, r)
	if !ok {
		return
	}
	out, err := h.svc.CopingStrategies(r.Context(), userID, *req.MoodScore, req.Content)
	if err != nil {
		writeServiceError(w, r, err, "could not generate strategies")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"strategies": out})
}

// InterventionPlan POST /v0/users/{userId}/intervention-plan
func (h *JournalHandler) InterventionPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromPath(w, r)
	if !ok {
		return
	}
	req, ok := decodeMood(w, r)
	if !ok {
		return
	}
	out, err := h.svc.InterventionPlan(r.Context(), userID, *req.MoodScore)
	if err != nil {
		writeServiceError(w, r, err, "could not generate plan")
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Prediction GET /v0/users/{userId}/prediction
func (h *JournalHandler) Prediction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromPath(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Prediction(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "could not compute prediction")
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// CheckIn POST /v0/users/{userId}/check-in
func (h *JournalHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromPath(w, r)
	if !ok {
		return
	}
	req, ok := decodeMood(w, r)
	if !ok {
		return
	}
	out, err := h.svc.CheckIn(r.Context(), services.CheckInRequest{UserID: userID, MoodScore: *req.MoodScore, Note: req.Content})
	if err != nil {
		writeServiceError(w, r, err, "check-in failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
