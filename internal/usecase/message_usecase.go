package usecase

import (
	"context"
	"errors"
	"fmt"

	"medichat/internal/entity"
	"medichat/internal/repository"
)

type SendMessageInput struct {
	ChatId   string
	SenderId string
	Type     string
	Content  string
	URL      string
}

type MessageUsecase interface {
	// Send validates and persists a message. The returned recipient id
	// is the chat's other participant, for the best-effort unread
	// notification; the caller decides whether and how to deliver it.
	Send(ctx context.Context, authUserId string, in SendMessageInput) (entity.Message, string, error)

	// DeleteForOne soft-deletes the message for one user and purges it
	// once every participant has done so. Idempotent.
	DeleteForOne(ctx context.Context, messageId, userId string) (purged bool, err error)

	// DeleteAllForUser applies DeleteForOne's rule to every message in
	// the chat. Not atomic as a whole; each message transition is
	// independently idempotent.
	DeleteAllForUser(ctx context.Context, chatId, userId string) error
}

type messageUsecase struct {
	messageRepo repository.MessageRepository
	chatRepo    repository.ChatRepository
}

func NewMessageUsecase(messageRepo repository.MessageRepository, chatRepo repository.ChatRepository) MessageUsecase {
	return &messageUsecase{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
	}
}

func (m *messageUsecase) Send(ctx context.Context, authUserId string, in SendMessageInput) (entity.Message, string, error) {
	if in.SenderId != authUserId {
		return entity.Message{}, "", fmt.Errorf("%w: senderId does not match connection identity", ErrUnauthorized)
	}
	if err := validateSend(in); err != nil {
		return entity.Message{}, "", err
	}

	chat, err := m.chatRepo.Get(ctx, in.ChatId)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return entity.Message{}, "", ErrChatNotFound
		}
		return entity.Message{}, "", err
	}
	if !chat.HasParticipant(in.SenderId) {
		return entity.Message{}, "", ErrNotParticipant
	}

	message, err := m.messageRepo.Create(ctx, entity.Message{
		ChatId:   in.ChatId,
		SenderId: in.SenderId,
		Type:     in.Type,
		Content:  in.Content,
		URL:      in.URL,
	})
	if err != nil {
		return entity.Message{}, "", err
	}

	recipientId, _ := chat.OtherParticipant(in.SenderId)
	return message, recipientId, nil
}

func validateSend(in SendMessageInput) error {
	if !entity.ValidMessageType(in.Type) {
		return fmt.Errorf("%w: unknown message type %q", ErrValidation, in.Type)
	}
	switch in.Type {
	case entity.MessageTypeText:
		if in.Content == "" {
			return fmt.Errorf("%w: text message requires content", ErrValidation)
		}
	default:
		if in.URL == "" {
			return fmt.Errorf("%w: %s message requires url", ErrValidation, in.Type)
		}
	}
	return nil
}

func (m *messageUsecase) DeleteForOne(ctx context.Context, messageId, userId string) (bool, error) {
	message, err := m.messageRepo.Get(ctx, messageId)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return false, ErrMessageNotFound
		}
		return false, err
	}

	chat, err := m.chatRepo.Get(ctx, message.ChatId)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return false, ErrChatNotFound
		}
		return false, err
	}
	if !chat.HasParticipant(userId) {
		return false, ErrNotParticipant
	}

	if err := m.messageRepo.AddDeletedFor(ctx, messageId, userId); err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			// Raced with a concurrent purge; same terminal state.
			return false, ErrMessageNotFound
		}
		return false, err
	}

	// Convergence is checked against the stored document so that two
	// participants deleting at the same time still trigger the purge.
	return m.messageRepo.DeleteIfConverged(ctx, messageId, chat.Participants)
}

func (m *messageUsecase) DeleteAllForUser(ctx context.Context, chatId, userId string) error {
	chat, err := m.chatRepo.Get(ctx, chatId)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return ErrChatNotFound
		}
		return err
	}
	if !chat.HasParticipant(userId) {
		return ErrNotParticipant
	}

	if err := m.messageRepo.SoftDeleteAll(ctx, chatId, userId); err != nil {
		return err
	}

	_, err = m.messageRepo.DeleteConverged(ctx, chatId, chat.Participants)
	return err
}
