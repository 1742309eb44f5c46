// internal/handlers/chat_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"eliza_tutor/internal/middleware"
	"eliza_tutor/internal/model"
	"eliza_tutor/internal/service"
	"eliza_tutor/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ChatHandler struct {
	service service.ChatService
}

func NewChatHandler(s service.ChatService) *ChatHandler {
	return &ChatHandler{service: s}
}

// SendMessage runs a full chat turn and returns the assistant reply once
// generation finishes. Cancelling the request aborts the generation.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		webutil.HandleError(w, err)
		return
	}

	resp, err := h.service.SendMessage(r.Context(), &req)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) CancelGeneration(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid session ID format.", "session_id", model.ErrInvalidInput))
		return
	}
	if !h.service.CancelGeneration(sessionID) {
		webutil.HandleError(w, model.NewAppError("SESSION_NOT_FOUND", "No generation is in flight for this session.", "session_id", model.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	if courseIDStr := r.URL.Query().Get("course_id"); courseIDStr != "" {
		courseID, err := uuid.Parse(courseIDStr)
		if err != nil {
			webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid course ID format.", "course_id", model.ErrInvalidInput))
			return
		}
		sessions, err := h.service.ListSessionsByCourse(r.Context(), courseID)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.RespondWithJSON(w, http.StatusOK, emptyIfNilSessions(sessions))
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), activeOnly)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, emptyIfNilSessions(sessions))
}

func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid session ID format.", "session_id", model.ErrInvalidInput))
		return
	}
	session, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, session)
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid session ID format.", "session_id", model.ErrInvalidInput))
		return
	}
	messages, err := h.service.GetMessages(r.Context(), sessionID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	if messages == nil {
		messages = []*model.ChatMessage{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, messages)
}

// WatchMessages streams message snapshots for a session as server sent
// events until the client disconnects.
func (h *ChatHandler) WatchMessages(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid session ID format.", "session_id", model.ErrInvalidInput))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		webutil.HandleError(w, model.NewAppError("INTERNAL_SERVER_ERROR", "Streaming is not supported.", "", model.ErrInternalServer))
		return
	}

	ch, err := h.service.WatchMessages(r.Context(), sessionID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := middleware.GetLogger(r.Context())
	encoder := json.NewEncoder(w)
	for snapshot := range ch {
		if _, err := w.Write([]byte("data: ")); err != nil {
			return
		}
		if err := encoder.Encode(snapshot); err != nil {
			logger.Warn("Failed to encode message snapshot", "session_id", sessionID, "error", err)
			return
		}
		if _, err := w.Write([]byte("\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (h *ChatHandler) DeactivateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid session ID format.", "session_id", model.ErrInvalidInput))
		return
	}
	if err := h.service.DeactivateSession(r.Context(), sessionID); err != nil {
		webutil.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid session ID format.", "session_id", model.ErrInvalidInput))
		return
	}
	if err := h.service.DeleteSession(r.Context(), sessionID); err != nil {
		webutil.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) SaveImageProblem(w http.ResponseWriter, r *http.Request) {
	var problem model.ImageMathProblem
	if err := webutil.DecodeJSONBody(r, &problem); err != nil {
		webutil.HandleError(w, err)
		return
	}
	if problem.ImageURI == "" {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "image_uri is required.", "image_uri", model.ErrInvalidInput))
		return
	}
	if err := h.service.SaveImageProblem(r.Context(), &problem); err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ChatHandler) GetImageProblem(w http.ResponseWriter, r *http.Request) {
	problemID, err := uuid.Parse(chi.URLParam(r, "problem_id"))
	if err != nil {
		webutil.HandleError(w, model.NewAppError("INVALID_INPUT", "Invalid problem ID format.", "problem_id", model.ErrInvalidInput))
		return
	}
	problem, err := h.service.GetImageProblem(r.Context(), problemID)
	if err != nil {
		webutil.HandleError(w, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, problem)
}

func emptyIfNilSessions(sessions []*model.ChatSession) []*model.ChatSession {
	if sessions == nil {
		return []*model.ChatSession{}
	}
	return sessions
}
