package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"medichat/internal/entity"
	"medichat/internal/repository"
)

// In-memory repository fakes. They mirror the persistence semantics the
// mongo implementations rely on: visibility is "deletedFor does not
// contain the user", deletedFor grows with set semantics, and unread
// counting matches per-chat read windows.

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type fakeChatRepo struct {
	chats map[string]entity.Chat
	seq   int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[string]entity.Chat)}
}

func (f *fakeChatRepo) put(chat entity.Chat) {
	f.chats[chat.Id] = chat
}

func (f *fakeChatRepo) Get(_ context.Context, chatId string) (entity.Chat, error) {
	chat, ok := f.chats[chatId]
	if !ok {
		return entity.Chat{}, repository.ErrChatNotFound
	}
	return chat, nil
}

func (f *fakeChatRepo) GetByConsultation(_ context.Context, consultationId string) (entity.Chat, error) {
	for _, chat := range f.chats {
		if chat.ConsultationId == consultationId {
			return chat, nil
		}
	}
	return entity.Chat{}, repository.ErrChatNotFound
}

func (f *fakeChatRepo) FindByParticipant(_ context.Context, userId string) ([]entity.Chat, error) {
	var chats []entity.Chat
	for _, chat := range f.chats {
		if chat.HasParticipant(userId) {
			chats = append(chats, chat)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].Id < chats[j].Id })
	return chats, nil
}

func (f *fakeChatRepo) Create(_ context.Context, chat entity.Chat) (string, error) {
	f.seq++
	chat.Id = fmt.Sprintf("chat-%d", f.seq)
	chat.CreatedAt = time.Now().UTC()
	chat.UpdatedAt = chat.CreatedAt
	if chat.LastOpenedAt == nil {
		chat.LastOpenedAt = []entity.ReadState{}
	}
	f.chats[chat.Id] = chat
	return chat.Id, nil
}

func (f *fakeChatRepo) UpdateLastOpened(_ context.Context, chatId, userId string, openedAt time.Time) error {
	chat, ok := f.chats[chatId]
	if !ok {
		return repository.ErrChatNotFound
	}
	for i, rs := range chat.LastOpenedAt {
		if rs.UserId == userId {
			chat.LastOpenedAt[i].OpenedAt = openedAt
			f.chats[chatId] = chat
			return nil
		}
	}
	chat.LastOpenedAt = append(chat.LastOpenedAt, entity.ReadState{UserId: userId, OpenedAt: openedAt})
	f.chats[chatId] = chat
	return nil
}

func (f *fakeChatRepo) Delete(_ context.Context, chatId string) error {
	delete(f.chats, chatId)
	return nil
}

type fakeMessageRepo struct {
	messages map[string]entity.Message
	seq      int
	lastTs   time.Time
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string]entity.Message)}
}

// nextTs produces strictly increasing timestamps so that rapid
// consecutive creates never collide.
func (f *fakeMessageRepo) nextTs() time.Time {
	now := time.Now().UTC()
	if !now.After(f.lastTs) {
		now = f.lastTs.Add(time.Microsecond)
	}
	f.lastTs = now
	return now
}

func (f *fakeMessageRepo) visible(m entity.Message, userId string) bool {
	return !contains(m.DeletedFor, userId)
}

func (f *fakeMessageRepo) chatMessages(chatId string) []entity.Message {
	var out []entity.Message
	for _, m := range f.messages {
		if m.ChatId == chatId {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (f *fakeMessageRepo) Get(_ context.Context, messageId string) (entity.Message, error) {
	m, ok := f.messages[messageId]
	if !ok {
		return entity.Message{}, repository.ErrMessageNotFound
	}
	return m, nil
}

func (f *fakeMessageRepo) Create(_ context.Context, message entity.Message) (entity.Message, error) {
	f.seq++
	message.Id = fmt.Sprintf("msg-%d", f.seq)
	message.CreatedAt = f.nextTs()
	if message.DeletedFor == nil {
		message.DeletedFor = []string{}
	}
	f.messages[message.Id] = message
	return message, nil
}

func (f *fakeMessageRepo) DeleteByChat(_ context.Context, chatId string) error {
	for id, m := range f.messages {
		if m.ChatId == chatId {
			delete(f.messages, id)
		}
	}
	return nil
}

func (f *fakeMessageRepo) VisibleByChat(_ context.Context, chatId, userId string, limit, offset int) ([]entity.Message, error) {
	var out []entity.Message
	for _, m := range f.chatMessages(chatId) {
		if f.visible(m, userId) {
			out = append(out, m)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return []entity.Message{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageRepo) CountVisible(_ context.Context, chatId, userId string) (int64, error) {
	var count int64
	for _, m := range f.chatMessages(chatId) {
		if f.visible(m, userId) {
			count++
		}
	}
	return count, nil
}

func (f *fakeMessageRepo) LastVisibleByChats(_ context.Context, chatIds []string, userId string) (map[string]entity.Message, error) {
	result := make(map[string]entity.Message)
	for _, chatId := range chatIds {
		for _, m := range f.chatMessages(chatId) {
			if f.visible(m, userId) {
				result[chatId] = m
			}
		}
	}
	return result, nil
}

func (f *fakeMessageRepo) FindVisibleByTypes(_ context.Context, chatId, userId string, types []string) ([]entity.Message, error) {
	var out []entity.Message
	for _, m := range f.chatMessages(chatId) {
		if f.visible(m, userId) && contains(types, m.Type) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) FindVisibleLinks(_ context.Context, chatId, userId string) ([]entity.Message, error) {
	var out []entity.Message
	for _, m := range f.chatMessages(chatId) {
		if f.visible(m, userId) && m.Type == entity.MessageTypeText &&
			strings.Contains(strings.ToLower(m.Content), "http") {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) Search(_ context.Context, chatId, userId, query string, limit, offset int) ([]entity.Message, error) {
	var out []entity.Message
	for _, m := range f.chatMessages(chatId) {
		if f.visible(m, userId) && strings.Contains(strings.ToLower(m.Content), strings.ToLower(query)) {
			out = append(out, m)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return []entity.Message{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageRepo) Stats(_ context.Context, chatId, userId string) (entity.ChatStats, error) {
	var stats entity.ChatStats
	for _, m := range f.chatMessages(chatId) {
		if !f.visible(m, userId) {
			continue
		}
		stats.Total++
		switch m.Type {
		case entity.MessageTypeImage:
			stats.Images++
		case entity.MessageTypeVideo:
			stats.Videos++
		case entity.MessageTypeFile:
			stats.Files++
		case entity.MessageTypeText:
			if strings.Contains(strings.ToLower(m.Content), "http") {
				stats.Links++
			}
		}
	}
	return stats, nil
}

func (f *fakeMessageRepo) UnreadCounts(_ context.Context, userId string, windows []entity.ReadWindow) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, w := range windows {
		for _, m := range f.chatMessages(w.ChatId) {
			if m.SenderId == userId || !f.visible(m, userId) {
				continue
			}
			if w.Since.IsZero() || m.CreatedAt.After(w.Since) {
				result[w.ChatId]++
			}
		}
	}
	return result, nil
}

func (f *fakeMessageRepo) AddDeletedFor(_ context.Context, messageId, userId string) error {
	m, ok := f.messages[messageId]
	if !ok {
		return repository.ErrMessageNotFound
	}
	if !contains(m.DeletedFor, userId) {
		m.DeletedFor = append(m.DeletedFor, userId)
		f.messages[messageId] = m
	}
	return nil
}

func (f *fakeMessageRepo) SoftDeleteAll(_ context.Context, chatId, userId string) error {
	for id, m := range f.messages {
		if m.ChatId != chatId {
			continue
		}
		if !contains(m.DeletedFor, userId) {
			m.DeletedFor = append(m.DeletedFor, userId)
			f.messages[id] = m
		}
	}
	return nil
}

func (f *fakeMessageRepo) DeleteIfConverged(_ context.Context, messageId string, participants []string) (bool, error) {
	m, ok := f.messages[messageId]
	if !ok {
		return false, nil
	}
	if !entity.IsFullyDeleted(m.DeletedFor, participants) {
		return false, nil
	}
	delete(f.messages, messageId)
	return true, nil
}

func (f *fakeMessageRepo) DeleteConverged(_ context.Context, chatId string, participants []string) (int64, error) {
	var deleted int64
	for id, m := range f.messages {
		if m.ChatId != chatId {
			continue
		}
		if entity.IsFullyDeleted(m.DeletedFor, participants) {
			delete(f.messages, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeUserRepo struct {
	users map[string]entity.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]entity.User)}
}

func (f *fakeUserRepo) put(user entity.User) {
	f.users[user.Id] = user
}

func (f *fakeUserRepo) Get(_ context.Context, userId string) (entity.User, error) {
	user, ok := f.users[userId]
	if !ok {
		return entity.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (entity.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return entity.User{}, repository.ErrUserNotFound
}

func (f *fakeUserRepo) Index(_ context.Context, filter entity.UserIndexFilter) ([]entity.User, error) {
	var users []entity.User
	for _, user := range f.users {
		if len(filter.Ids) == 0 || contains(filter.Ids, user.Id) {
			users = append(users, user)
		}
	}
	return users, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user entity.User) (string, error) {
	f.seq++
	user.Id = fmt.Sprintf("user-%d", f.seq)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	f.users[user.Id] = user
	return user.Id, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user entity.User) error {
	stored, ok := f.users[user.Id]
	if !ok {
		return repository.ErrUserNotFound
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Specialty = user.Specialty
	stored.UpdatedAt = time.Now().UTC()
	f.users[user.Id] = stored
	return nil
}

type fakeConsultationRepo struct {
	consultations map[string]entity.Consultation
	seq           int
}

func newFakeConsultationRepo() *fakeConsultationRepo {
	return &fakeConsultationRepo{consultations: make(map[string]entity.Consultation)}
}

func (f *fakeConsultationRepo) put(c entity.Consultation) {
	f.consultations[c.Id] = c
}

func (f *fakeConsultationRepo) Get(_ context.Context, consultationId string) (entity.Consultation, error) {
	c, ok := f.consultations[consultationId]
	if !ok {
		return entity.Consultation{}, repository.ErrConsultationNotFound
	}
	return c, nil
}

func (f *fakeConsultationRepo) FindByPatient(_ context.Context, patientId string) ([]entity.Consultation, error) {
	var out []entity.Consultation
	for _, c := range f.consultations {
		if c.PatientId == patientId {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConsultationRepo) Create(_ context.Context, consultation entity.Consultation) (string, error) {
	f.seq++
	consultation.Id = fmt.Sprintf("consultation-%d", f.seq)
	consultation.Status = entity.ConsultationSearching
	consultation.CreatedAt = time.Now().UTC()
	consultation.UpdatedAt = consultation.CreatedAt
	f.consultations[consultation.Id] = consultation
	return consultation.Id, nil
}

func (f *fakeConsultationRepo) Assign(_ context.Context, consultationId, doctorId string) error {
	c, ok := f.consultations[consultationId]
	if !ok {
		return repository.ErrConsultationNotFound
	}
	c.DoctorId = doctorId
	c.Status = entity.ConsultationInProgress
	c.UpdatedAt = time.Now().UTC()
	f.consultations[consultationId] = c
	return nil
}

func (f *fakeConsultationRepo) UpdateStatus(_ context.Context, consultationId, status string) error {
	c, ok := f.consultations[consultationId]
	if !ok {
		return repository.ErrConsultationNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	f.consultations[consultationId] = c
	return nil
}

func (f *fakeConsultationRepo) Delete(_ context.Context, consultationId string) error {
	delete(f.consultations, consultationId)
	return nil
}
