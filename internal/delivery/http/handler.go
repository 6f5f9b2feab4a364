package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"medichat/internal/entity"
	"medichat/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type HttpHandler struct {
	chatUc         usecase.ChatUsecase
	messageUc      usecase.MessageUsecase
	consultationUc usecase.ConsultationUsecase
}

func NewHttpHandler(chatUc usecase.ChatUsecase, messageUc usecase.MessageUsecase, consultationUc usecase.ConsultationUsecase) *HttpHandler {
	return &HttpHandler{
		chatUc:         chatUc,
		messageUc:      messageUc,
		consultationUc: consultationUc,
	}
}

type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// writeError maps usecase errors onto the status codes of the error
// taxonomy: unauthorized 401, not a participant 403, not found 404,
// validation 400, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, Response{Message: err.Error()})
	case errors.Is(err, usecase.ErrNotParticipant),
		errors.Is(err, usecase.ErrNotDoctor),
		errors.Is(err, usecase.ErrNotAssignedDoctor):
		writeJSON(w, http.StatusForbidden, Response{Message: err.Error()})
	case errors.Is(err, usecase.ErrChatNotFound),
		errors.Is(err, usecase.ErrMessageNotFound),
		errors.Is(err, usecase.ErrConsultationNotFound):
		writeJSON(w, http.StatusNotFound, Response{Message: err.Error()})
	case errors.Is(err, usecase.ErrValidation):
		writeJSON(w, http.StatusBadRequest, Response{Message: err.Error()})
	default:
		log.Printf("handler error: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
	}
}

func pageParams(r *http.Request, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

// Method Get /api/chats
func (h *HttpHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	summaries, err := h.chatUc.ListSummaries(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: summaries})
}

// Method Get /api/chats/{chatId}/messages
func (h *HttpHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	chatId := chi.URLParam(r, "chatId")
	page, limit := pageParams(r, 20)

	messagesPage, err := h.chatUc.GetMessages(r.Context(), chatId, claims.UserId, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: messagesPage})
}

// Method Put /api/chats/{chatId}/last-opened
func (h *HttpHandler) MarkChatOpened(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	chatId := chi.URLParam(r, "chatId")
	if err := h.chatUc.MarkOpened(r.Context(), chatId, claims.UserId); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "chat last opened time updated"})
}

// Method Get /api/chats/unread/count
func (h *HttpHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	total, err := h.chatUc.UnreadTotal(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: map[string]int64{"totalUnread": total}})
}

// Method Get /api/chats/{chatId}/media
func (h *HttpHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	h.chatMessages(w, r, h.chatUc.Media)
}

// Method Get /api/chats/{chatId}/links
func (h *HttpHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	h.chatMessages(w, r, h.chatUc.Links)
}

// Method Get /api/chats/{chatId}/documents
func (h *HttpHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	h.chatMessages(w, r, h.chatUc.Documents)
}

func (h *HttpHandler) chatMessages(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, chatId, userId string) ([]entity.Message, error)) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	chatId := chi.URLParam(r, "chatId")
	messages, err := fetch(r.Context(), chatId, claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: map[string]any{
		"total":    len(messages),
		"messages": messages,
	}})
}

// Method Get /api/chats/{chatId}/stats
func (h *HttpHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	chatId := chi.URLParam(r, "chatId")
	stats, err := h.chatUc.Stats(r.Context(), chatId, claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: stats})
}

// Method Get /api/chats/{chatId}/messages/search
func (h *HttpHandler) SearchMessages(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	chatId := chi.URLParam(r, "chatId")
	query := r.URL.Query().Get("q")
	page, limit := pageParams(r, 25)

	results, err := h.chatUc.SearchMessages(r.Context(), chatId, claims.UserId, query, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: map[string]any{
		"count":   len(results),
		"page":    page,
		"limit":   limit,
		"results": results,
	}})
}

// Method Delete /api/messages/{messageId}/one
func (h *HttpHandler) DeleteMessageForOne(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	messageId := chi.URLParam(r, "messageId")
	purged, err := h.messageUc.DeleteForOne(r.Context(), messageId, claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	status := "deleted_for_me"
	if purged {
		status = "purged"
	}
	writeJSON(w, http.StatusOK, Response{Message: "success", Data: map[string]string{
		"status":    status,
		"messageId": messageId,
	}})
}

// Method Delete /api/messages/{chatId}/all
func (h *HttpHandler) DeleteAllMessages(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	chatId := chi.URLParam(r, "chatId")
	if err := h.messageUc.DeleteAllForUser(r.Context(), chatId, claims.UserId); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: map[string]string{
		"status": "all_deleted_for_me",
		"chatId": chatId,
	}})
}

// Method Post /api/consultations
func (h *HttpHandler) CreateConsultation(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	var req struct {
		Specialty   string `json:"specialty"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	consultationId, err := h.consultationUc.Create(r.Context(), claims.UserId, usecase.CreateConsultationInput{
		Specialty:   req.Specialty,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, Response{Message: "consultation created successfully", Data: map[string]string{
		"consultationId": consultationId,
	}})
}

// Method Get /api/consultations
func (h *HttpHandler) ListConsultations(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	consultations, err := h.consultationUc.ListForPatient(r.Context(), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: consultations})
}

// Method Get /api/consultations/{id}
func (h *HttpHandler) GetConsultation(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	consultation, err := h.consultationUc.Get(r.Context(), chi.URLParam(r, "id"), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: consultation})
}

// Method Post /api/consultations/{id}/start
func (h *HttpHandler) StartConsultation(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	chatId, err := h.consultationUc.Start(r.Context(), chi.URLParam(r, "id"), claims.UserId)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, Response{Message: "consultation started and chat created", Data: map[string]string{
		"chatId": chatId,
	}})
}

// Method Post /api/consultations/{id}/end
func (h *HttpHandler) EndConsultation(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	if err := h.consultationUc.End(r.Context(), chi.URLParam(r, "id"), claims.UserId); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "consultation ended successfully"})
}

// Method Delete /api/consultations/{id}
func (h *HttpHandler) DeleteConsultation(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}

	if err := h.consultationUc.Delete(r.Context(), chi.URLParam(r, "id"), claims.UserId); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "consultation deleted"})
}
