package http

import (
	"net/http"
	wsDelivery "medichat/internal/delivery/websocket"

	"github.com/go-chi/chi/v5"
)

func MapHttpRoutes(r *chi.Mux, httpHandler HttpHandler, websocketHandler wsDelivery.WebsocketHandler, authHandler AuthHandler, authMiddleware *AuthMiddleware) {
	r.Handle("/ws", http.HandlerFunc(websocketHandler.HandleWebSocket))

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", http.HandlerFunc(authHandler.Register))
		r.Post("/login", http.HandlerFunc(authHandler.Login))
	})

	// Protected routes
	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", http.HandlerFunc(httpHandler.ListChats))
			r.Get("/unread/count", http.HandlerFunc(httpHandler.UnreadCount))
			r.Get("/{chatId}/messages", http.HandlerFunc(httpHandler.GetMessages))
			r.Get("/{chatId}/messages/search", http.HandlerFunc(httpHandler.SearchMessages))
			r.Put("/{chatId}/last-opened", http.HandlerFunc(httpHandler.MarkChatOpened))
			r.Get("/{chatId}/media", http.HandlerFunc(httpHandler.GetMedia))
			r.Get("/{chatId}/links", http.HandlerFunc(httpHandler.GetLinks))
			r.Get("/{chatId}/documents", http.HandlerFunc(httpHandler.GetDocuments))
			r.Get("/{chatId}/stats", http.HandlerFunc(httpHandler.GetStats))
		})

		r.Route("/messages", func(r chi.Router) {
			r.Delete("/{messageId}/one", http.HandlerFunc(httpHandler.DeleteMessageForOne))
			r.Delete("/{chatId}/all", http.HandlerFunc(httpHandler.DeleteAllMessages))
		})

		r.Route("/consultations", func(r chi.Router) {
			r.Post("/", http.HandlerFunc(httpHandler.CreateConsultation))
			r.Get("/", http.HandlerFunc(httpHandler.ListConsultations))
			r.Get("/{id}", http.HandlerFunc(httpHandler.GetConsultation))
			r.Post("/{id}/start", http.HandlerFunc(httpHandler.StartConsultation))
			r.Post("/{id}/end", http.HandlerFunc(httpHandler.EndConsultation))
			r.Delete("/{id}", http.HandlerFunc(httpHandler.DeleteConsultation))
		})
	})
}
