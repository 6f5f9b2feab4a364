package usecase

import (
	"context"
	"testing"
	"time"

	"medichat/internal/entity"

	"github.com/stretchr/testify/require"
)

type consultationEnv struct {
	consultationRepo *fakeConsultationRepo
	chatRepo         *fakeChatRepo
	messageRepo      *fakeMessageRepo
	userRepo         *fakeUserRepo
	uc               ConsultationUsecase
}

func newConsultationEnv() *consultationEnv {
	consultationRepo := newFakeConsultationRepo()
	chatRepo := newFakeChatRepo()
	messageRepo := newFakeMessageRepo()
	userRepo := newFakeUserRepo()

	userRepo.put(entity.User{Id: "patient-1", FirstName: "Alice", Role: entity.RolePatient})
	userRepo.put(entity.User{Id: "doctor-1", FirstName: "Bob", Role: entity.RoleDoctor, Specialty: "cardiology"})
	userRepo.put(entity.User{Id: "doctor-2", FirstName: "Carol", Role: entity.RoleDoctor, Specialty: "cardiology"})

	return &consultationEnv{
		consultationRepo: consultationRepo,
		chatRepo:         chatRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		uc: NewConsultationUsecase(consultationRepo, chatRepo, messageRepo,
			NewUserUsecase(userRepo, nil)),
	}
}

func (env *consultationEnv) create(t *testing.T) string {
	t.Helper()
	id, err := env.uc.Create(context.Background(), "patient-1", CreateConsultationInput{
		Specialty:   "cardiology",
		Title:       "Chest pain",
		Description: "Intermittent chest pain for two days",
	})
	require.NoError(t, err)
	return id
}

func TestCreateConsultationValidation(t *testing.T) {
	env := newConsultationEnv()

	_, err := env.uc.Create(context.Background(), "patient-1", CreateConsultationInput{
		Specialty: "cardiology",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateConsultationStartsSearching(t *testing.T) {
	env := newConsultationEnv()

	id := env.create(t)
	consultation, err := env.uc.Get(context.Background(), id, "patient-1")
	require.NoError(t, err)
	require.Equal(t, entity.ConsultationSearching, consultation.Status)
	require.Equal(t, "patient-1", consultation.PatientId)
	require.Empty(t, consultation.DoctorId)
}

func TestListForPatient(t *testing.T) {
	env := newConsultationEnv()
	ctx := context.Background()

	now := time.Now().UTC()
	env.consultationRepo.put(entity.Consultation{
		Id: "c-old", PatientId: "patient-1", Title: "Back pain",
		Status: entity.ConsultationCompleted, CreatedAt: now.Add(-time.Hour),
	})
	env.consultationRepo.put(entity.Consultation{
		Id: "c-new", PatientId: "patient-1", Title: "Chest pain",
		Status: entity.ConsultationSearching, CreatedAt: now,
	})
	env.consultationRepo.put(entity.Consultation{
		Id: "c-other", PatientId: "patient-2", Title: "Migraine",
		Status: entity.ConsultationSearching, CreatedAt: now,
	})

	consultations, err := env.uc.ListForPatient(ctx, "patient-1")
	require.NoError(t, err)
	require.Len(t, consultations, 2)
	require.Equal(t, "c-new", consultations[0].Id)
	require.Equal(t, "c-old", consultations[1].Id)

	consultations, err = env.uc.ListForPatient(ctx, "patient-3")
	require.NoError(t, err)
	require.Empty(t, consultations)
}

func TestGetConsultationAccess(t *testing.T) {
	env := newConsultationEnv()
	ctx := context.Background()

	id := env.create(t)

	_, err := env.uc.Get(ctx, id, "doctor-1")
	require.ErrorIs(t, err, ErrNotParticipant)

	_, err = env.uc.Get(ctx, "missing", "patient-1")
	require.ErrorIs(t, err, ErrConsultationNotFound)
}

func TestStartConsultation(t *testing.T) {
	env := newConsultationEnv()
	ctx := context.Background()

	id := env.create(t)

	chatId, err := env.uc.Start(ctx, id, "doctor-1")
	require.NoError(t, err)
	require.NotEmpty(t, chatId)

	consultation, err := env.consultationRepo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, entity.ConsultationInProgress, consultation.Status)
	require.Equal(t, "doctor-1", consultation.DoctorId)

	chat, err := env.chatRepo.Get(ctx, chatId)
	require.NoError(t, err)
	require.True(t, chat.HasParticipant("doctor-1"))
	require.True(t, chat.HasParticipant("patient-1"))
	require.Equal(t, id, chat.ConsultationId)
}

func TestStartConsultationIdempotent(t *testing.T) {
	env := newConsultationEnv()
	ctx := context.Background()

	id := env.create(t)

	chatId, err := env.uc.Start(ctx, id, "doctor-1")
	require.NoError(t, err)

	again, err := env.uc.Start(ctx, id, "doctor-1")
	require.NoError(t, err)
	require.Equal(t, chatId, again)
	require.Len(t, env.chatRepo.chats, 1)
}

func TestStartConsultationRejections(t *testing.T) {
	env := newConsultationEnv()
	ctx := context.Background()

	id := env.create(t)

	_, err := env.uc.Start(ctx, id, "patient-1")
	require.ErrorIs(t, err, ErrNotDoctor)

	_, err = env.uc.Start(ctx, id, "doctor-1")
	require.NoError(t, err)

	// Another doctor cannot take over an in-progress consultation.
	_, err = env.uc.Start(ctx, id, "doctor-2")
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, env.uc.End(ctx, id, "doctor-1"))
	_, err = env.uc.Start(ctx, id, "doctor-1")
	require.ErrorIs(t, err, ErrValidation)
}

func TestEndConsultation(t *testing.T) {
	env := newConsultationEnv()
	ctx := context.Background()

	id := env.create(t)

	err := env.uc.End(ctx, id, "doctor-1")
	require.ErrorIs(t, err, ErrNotAssignedDoctor)

	_, err = env.uc.Start(ctx, id, "doctor-1")
	require.NoError(t, err)

	err = env.uc.End(ctx, id, "doctor-2")
	require.ErrorIs(t, err, ErrNotAssignedDoctor)

	require.NoError(t, env.uc.End(ctx, id, "doctor-1"))

	consultation, err := env.consultationRepo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, entity.ConsultationCompleted, consultation.Status)

	err = env.uc.End(ctx, id, "doctor-1")
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteConsultationCascades(t *testing.T) {
	env := newConsultationEnv()
	ctx := context.Background()

	id := env.create(t)
	chatId, err := env.uc.Start(ctx, id, "doctor-1")
	require.NoError(t, err)

	messageUc := NewMessageUsecase(env.messageRepo, env.chatRepo)
	_, _, err = messageUc.Send(ctx, "doctor-1", SendMessageInput{
		ChatId: chatId, SenderId: "doctor-1", Type: entity.MessageTypeText, Content: "hello",
	})
	require.NoError(t, err)

	err = env.uc.Delete(ctx, id, "doctor-1")
	require.ErrorIs(t, err, ErrNotParticipant)

	require.NoError(t, env.uc.Delete(ctx, id, "patient-1"))
	require.Empty(t, env.consultationRepo.consultations)
	require.Empty(t, env.chatRepo.chats)
	require.Empty(t, env.messageRepo.messages)
}
