// internal/handlers/course_handler.go
package handlers

import (
	"net/http"

	"eliza_tutor/internal/model"
	"eliza_tutor/internal/service"
	"eliza_tutor/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CourseHandler struct {
	service service.CourseService
}

func NewCourseHandler(s service.CourseService) *CourseHandler {
	return &CourseHandler{service: s}
}

// ImportCourse accepts a full course bundle, lessons and exercises nested.
func (h *CourseHandler) ImportCourse(w http.ResponseWriter, r *http.Request) {
	var course model.Course
	if err := webutil.DecodeJSONBody(r, &course); err != nil {
		webutil.HandleError(w, err)
		return
	}
	if err := h.service.ImportCourse(r.Context(), &course); err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListCourses(r.Context(), r.URL.Query().Get("subject"))
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	if courses == nil {
		courses = []*model.Course{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "course_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid course ID format.", "course_id", model.ErrInvalidInput))
		return
	}
	course, err := h.service.GetCourse(r.Context(), courseID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "course_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid course ID format.", "course_id", model.ErrInvalidInput))
		return
	}
	if err := h.service.DeleteCourse(r.Context(), courseID); err != nil {
		webutil.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CourseHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "course_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid course ID format.", "course_id", model.ErrInvalidInput))
		return
	}
	lessons, err := h.service.ListLessons(r.Context(), courseID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	if lessons == nil {
		lessons = []*model.Lesson{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, lessons)
}

func (h *CourseHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, err := uuid.Parse(chi.URLParam(r, "lesson_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid lesson ID format.", "lesson_id", model.ErrInvalidInput))
		return
	}
	lesson, err := h.service.GetLesson(r.Context(), lessonID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, lesson)
}

func (h *CourseHandler) ListExercises(w http.ResponseWriter, r *http.Request) {
	lessonID, err := uuid.Parse(chi.URLParam(r, "lesson_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid lesson ID format.", "lesson_id", model.ErrInvalidInput))
		return
	}
	exercises, err := h.service.ListExercises(r.Context(), lessonID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	if exercises == nil {
		exercises = []*model.Exercise{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, exercises)
}

func (h *CourseHandler) GetExercise(w http.ResponseWriter, r *http.Request) {
	exerciseID, err := uuid.Parse(chi.URLParam(r, "exercise_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid exercise ID format.", "exercise_id", model.ErrInvalidInput))
		return
	}
	exercise, err := h.service.GetExercise(r.Context(), exerciseID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, exercise)
}

// CreateTrial stores a regenerated practice variant of an exercise.
func (h *CourseHandler) CreateTrial(w http.ResponseWriter, r *http.Request) {
	exerciseID, err := uuid.Parse(chi.URLParam(r, "exercise_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid exercise ID format.", "exercise_id", model.ErrInvalidInput))
		return
	}
	var req model.CreateTrialRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, err)
		return
	}
	trial, err := h.service.CreateTrial(r.Context(), exerciseID, &req)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, trial)
}

func (h *CourseHandler) GetTrial(w http.ResponseWriter, r *http.Request) {
	trialID, err := uuid.Parse(chi.URLParam(r, "trial_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid trial ID format.", "trial_id", model.ErrInvalidInput))
		return
	}
	trial, err := h.service.GetTrial(r.Context(), trialID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, trial)
}
