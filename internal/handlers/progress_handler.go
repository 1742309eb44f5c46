// internal/handlers/progress_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"eliza_tutor/internal/model"
	"eliza_tutor/internal/service"
	"eliza_tutor/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ProgressHandler struct {
	service service.ProgressService
}

func NewProgressHandler(s service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: s}
}

func (h *ProgressHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitAnswerRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, err)
		return
	}
	answer, err := h.service.SubmitAnswer(r.Context(), &req)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, answer)
}

func (h *ProgressHandler) MarkLessonRead(w http.ResponseWriter, r *http.Request) {
	lessonID, err := uuid.Parse(chi.URLParam(r, "lesson_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid lesson ID format.", "lesson_id", model.ErrInvalidInput))
		return
	}
	progress, err := h.service.MarkLessonRead(r.Context(), lessonID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, progress)
}

func (h *ProgressHandler) GetCourseProgress(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "course_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid course ID format.", "course_id", model.ErrInvalidInput))
		return
	}
	progress, err := h.service.GetCourseProgress(r.Context(), courseID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, progress)
}

func (h *ProgressHandler) GetLessonProgress(w http.ResponseWriter, r *http.Request) {
	lessonID, err := uuid.Parse(chi.URLParam(r, "lesson_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid lesson ID format.", "lesson_id", model.ErrInvalidInput))
		return
	}
	progress, err := h.service.GetLessonProgress(r.Context(), lessonID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, progress)
}

func (h *ProgressHandler) StartStudySession(w http.ResponseWriter, r *http.Request) {
	var req model.StartStudySessionRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, err)
		return
	}
	session, err := h.service.StartStudySession(r.Context(), &req)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, session)
}

func (h *ProgressHandler) EndStudySession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.EndStudySession(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, session)
}

func (h *ProgressHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *ProgressHandler) GetWeeklyProgress(w http.ResponseWriter, r *http.Request) {
	weeks := 12
	if s := r.URL.Query().Get("weeks"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "weeks must be a positive integer.", "weeks", model.ErrInvalidInput))
			return
		}
		weeks = parsed
	}
	rows, err := h.service.GetWeeklyProgress(r.Context(), weeks)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	if rows == nil {
		rows = []*model.WeeklyProgress{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *ProgressHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.service.GetAchievements(r.Context())
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	if achievements == nil {
		achievements = []*model.Achievement{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, achievements)
}
