package usecase

import "errors"

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotParticipant       = errors.New("you are not a participant of this chat")
	ErrChatNotFound         = errors.New("chat not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrConsultationNotFound = errors.New("consultation not found")
	ErrValidation           = errors.New("validation failed")
	ErrEmailTaken           = errors.New("email is already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrNotDoctor            = errors.New("only doctors can perform this action")
	ErrNotAssignedDoctor    = errors.New("you are not the assigned doctor")
)
