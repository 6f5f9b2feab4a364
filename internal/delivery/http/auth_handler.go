package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"medichat/internal/entity"
	"medichat/internal/usecase"
)

type AuthHandler struct {
	authUc usecase.AuthUsecase
}

func NewAuthHandler(authUc usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{
		authUc: authUc,
	}
}

// Method Post /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req entity.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	resp, err := h.authUc.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrValidation):
			writeJSON(w, http.StatusBadRequest, Response{Message: err.Error()})
		case errors.Is(err, usecase.ErrEmailTaken):
			writeJSON(w, http.StatusConflict, Response{Message: err.Error()})
		default:
			log.Printf("Register error: %v", err)
			writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, Response{Message: "success", Data: resp})
}

// Method Post /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req entity.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return
	}

	resp, err := h.authUc.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, Response{Message: err.Error()})
			return
		}
		log.Printf("Login error: %v", err)
		writeJSON(w, http.StatusInternalServerError, Response{Message: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, Response{Message: "success", Data: resp})
}
