package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"medichat/internal/entity"
	"medichat/internal/repository"
)

type MessagesPage struct {
	Messages []entity.Message `json:"messages"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Total    int64            `json:"total"`
}

type ChatUsecase interface {
	// ListSummaries returns the user's chats with consultation context,
	// the other participant, the last visible message and the unread
	// count, most recently active first.
	ListSummaries(ctx context.Context, userId string) ([]entity.ChatSummary, error)

	// ChatIdsFor lists ids of every chat the user participates in; used
	// for room subscriptions on connect.
	ChatIdsFor(ctx context.Context, userId string) ([]string, error)

	GetMessages(ctx context.Context, chatId, userId string, page, limit int) (MessagesPage, error)

	// MarkOpened upserts the user's read-state entry to now.
	MarkOpened(ctx context.Context, chatId, userId string) error

	// UnreadTotal sums unread counts across all of the user's chats via
	// a single grouped aggregation.
	UnreadTotal(ctx context.Context, userId string) (int64, error)

	Media(ctx context.Context, chatId, userId string) ([]entity.Message, error)
	Links(ctx context.Context, chatId, userId string) ([]entity.Message, error)
	Documents(ctx context.Context, chatId, userId string) ([]entity.Message, error)
	Stats(ctx context.Context, chatId, userId string) (entity.ChatStats, error)
	SearchMessages(ctx context.Context, chatId, userId, query string, page, limit int) ([]entity.Message, error)
}

type chatUsecase struct {
	chatRepo         repository.ChatRepository
	messageRepo      repository.MessageRepository
	userRepo         repository.UserRepository
	consultationRepo repository.ConsultationRepository
}

func NewChatUsecase(
	chatRepo repository.ChatRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	consultationRepo repository.ConsultationRepository,
) ChatUsecase {
	return &chatUsecase{
		chatRepo:         chatRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		consultationRepo: consultationRepo,
	}
}

// participantChat loads the chat and rejects callers that are not part
// of it.
func (c *chatUsecase) participantChat(ctx context.Context, chatId, userId string) (entity.Chat, error) {
	chat, err := c.chatRepo.Get(ctx, chatId)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return entity.Chat{}, ErrChatNotFound
		}
		return entity.Chat{}, err
	}
	if !chat.HasParticipant(userId) {
		return entity.Chat{}, ErrNotParticipant
	}
	return chat, nil
}

func (c *chatUsecase) ListSummaries(ctx context.Context, userId string) ([]entity.ChatSummary, error) {
	chats, err := c.chatRepo.FindByParticipant(ctx, userId)
	if err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return []entity.ChatSummary{}, nil
	}

	chatIds := make([]string, 0, len(chats))
	windows := make([]entity.ReadWindow, 0, len(chats))
	otherIdSet := make(map[string]bool)
	for _, chat := range chats {
		chatIds = append(chatIds, chat.Id)
		windows = append(windows, entity.ReadWindow{ChatId: chat.Id, Since: chat.LastOpenedBy(userId)})
		if otherId, ok := chat.OtherParticipant(userId); ok {
			otherIdSet[otherId] = true
		}
	}

	unread, err := c.messageRepo.UnreadCounts(ctx, userId, windows)
	if err != nil {
		return nil, err
	}

	lastByChat, err := c.messageRepo.LastVisibleByChats(ctx, chatIds, userId)
	if err != nil {
		return nil, err
	}

	otherIds := make([]string, 0, len(otherIdSet))
	for id := range otherIdSet {
		otherIds = append(otherIds, id)
	}
	userMap := make(map[string]entity.User)
	if len(otherIds) > 0 {
		users, err := c.userRepo.Index(ctx, entity.UserIndexFilter{Ids: otherIds})
		if err != nil {
			return nil, err
		}
		for _, user := range users {
			userMap[user.Id] = user
		}
	}

	summaries := make([]entity.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summary := entity.ChatSummary{
			ChatId:      chat.Id,
			UnreadCount: unread[chat.Id],
		}

		if consultation, err := c.consultationRepo.Get(ctx, chat.ConsultationId); err == nil {
			summary.ConsultationTitle = consultation.Title
			summary.ConsultationSpecialty = consultation.Specialty
		}

		if otherId, ok := chat.OtherParticipant(userId); ok {
			summary.OtherUserId = otherId
			if other, found := userMap[otherId]; found {
				summary.OtherUserName = other.FullName()
				summary.OtherUserRole = other.Role
			}
		}

		if last, ok := lastByChat[chat.Id]; ok {
			msg := last
			summary.LastMessage = &msg
		}

		summaries = append(summaries, summary)
	}

	// Most recently active first; chats with no visible messages sink
	// to the bottom.
	sort.SliceStable(summaries, func(i, j int) bool {
		ti, tj := summaryTime(summaries[i]), summaryTime(summaries[j])
		return ti.After(tj)
	})

	return summaries, nil
}

func summaryTime(s entity.ChatSummary) time.Time {
	if s.LastMessage != nil {
		return s.LastMessage.CreatedAt
	}
	return time.Time{}
}

func (c *chatUsecase) ChatIdsFor(ctx context.Context, userId string) ([]string, error) {
	chats, err := c.chatRepo.FindByParticipant(ctx, userId)
	if err != nil {
		return nil, err
	}

	chatIds := make([]string, 0, len(chats))
	for _, chat := range chats {
		chatIds = append(chatIds, chat.Id)
	}
	return chatIds, nil
}

func (c *chatUsecase) GetMessages(ctx context.Context, chatId, userId string, page, limit int) (MessagesPage, error) {
	if _, err := c.participantChat(ctx, chatId, userId); err != nil {
		return MessagesPage{}, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	messages, err := c.messageRepo.VisibleByChat(ctx, chatId, userId, limit, offset)
	if err != nil {
		return MessagesPage{}, err
	}

	total, err := c.messageRepo.CountVisible(ctx, chatId, userId)
	if err != nil {
		return MessagesPage{}, err
	}

	return MessagesPage{
		Messages: messages,
		Page:     page,
		Limit:    limit,
		Total:    total,
	}, nil
}

func (c *chatUsecase) MarkOpened(ctx context.Context, chatId, userId string) error {
	if _, err := c.participantChat(ctx, chatId, userId); err != nil {
		return err
	}
	return c.chatRepo.UpdateLastOpened(ctx, chatId, userId, time.Now().UTC())
}

func (c *chatUsecase) UnreadTotal(ctx context.Context, userId string) (int64, error) {
	chats, err := c.chatRepo.FindByParticipant(ctx, userId)
	if err != nil {
		return 0, err
	}
	if len(chats) == 0 {
		return 0, nil
	}

	windows := make([]entity.ReadWindow, 0, len(chats))
	for _, chat := range chats {
		windows = append(windows, entity.ReadWindow{ChatId: chat.Id, Since: chat.LastOpenedBy(userId)})
	}

	counts, err := c.messageRepo.UnreadCounts(ctx, userId, windows)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, count := range counts {
		total += count
	}
	return total, nil
}

func (c *chatUsecase) Media(ctx context.Context, chatId, userId string) ([]entity.Message, error) {
	if _, err := c.participantChat(ctx, chatId, userId); err != nil {
		return nil, err
	}
	return c.messageRepo.FindVisibleByTypes(ctx, chatId, userId,
		[]string{entity.MessageTypeImage, entity.MessageTypeVideo})
}

func (c *chatUsecase) Links(ctx context.Context, chatId, userId string) ([]entity.Message, error) {
	if _, err := c.participantChat(ctx, chatId, userId); err != nil {
		return nil, err
	}
	return c.messageRepo.FindVisibleLinks(ctx, chatId, userId)
}

func (c *chatUsecase) Documents(ctx context.Context, chatId, userId string) ([]entity.Message, error) {
	if _, err := c.participantChat(ctx, chatId, userId); err != nil {
		return nil, err
	}
	return c.messageRepo.FindVisibleByTypes(ctx, chatId, userId, []string{entity.MessageTypeFile})
}

func (c *chatUsecase) Stats(ctx context.Context, chatId, userId string) (entity.ChatStats, error) {
	if _, err := c.participantChat(ctx, chatId, userId); err != nil {
		return entity.ChatStats{}, err
	}
	return c.messageRepo.Stats(ctx, chatId, userId)
}

func (c *chatUsecase) SearchMessages(ctx context.Context, chatId, userId, query string, page, limit int) ([]entity.Message, error) {
	if query == "" {
		return nil, ErrValidation
	}
	if _, err := c.participantChat(ctx, chatId, userId); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 25
	}
	return c.messageRepo.Search(ctx, chatId, userId, query, limit, (page-1)*limit)
}
