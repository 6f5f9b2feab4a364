package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"medichat/internal/entity"
	"medichat/internal/repository"
)

type CreateConsultationInput struct {
	Specialty   string
	Title       string
	Description string
}

type ConsultationUsecase interface {
	Create(ctx context.Context, patientId string, in CreateConsultationInput) (string, error)
	Get(ctx context.Context, consultationId, userId string) (entity.Consultation, error)

	// ListForPatient returns the caller's consultations, newest first.
	ListForPatient(ctx context.Context, patientId string) ([]entity.Consultation, error)

	// Start assigns the doctor, moves the consultation to in_progress
	// and creates the chat between doctor and patient. Idempotent: an
	// existing chat is returned as-is.
	Start(ctx context.Context, consultationId, doctorUserId string) (string, error)

	// End completes the consultation; only the assigned doctor may do
	// this.
	End(ctx context.Context, consultationId, doctorUserId string) error

	// Delete removes the consultation and cascades to its chat and
	// messages.
	Delete(ctx context.Context, consultationId, userId string) error
}

type consultationUsecase struct {
	consultationRepo repository.ConsultationRepository
	chatRepo         repository.ChatRepository
	messageRepo      repository.MessageRepository
	userUc           UserUsecase
}

func NewConsultationUsecase(
	consultationRepo repository.ConsultationRepository,
	chatRepo repository.ChatRepository,
	messageRepo repository.MessageRepository,
	userUc UserUsecase,
) ConsultationUsecase {
	return &consultationUsecase{
		consultationRepo: consultationRepo,
		chatRepo:         chatRepo,
		messageRepo:      messageRepo,
		userUc:           userUc,
	}
}

func (c *consultationUsecase) Create(ctx context.Context, patientId string, in CreateConsultationInput) (string, error) {
	if in.Specialty == "" || in.Title == "" || in.Description == "" {
		return "", fmt.Errorf("%w: specialty, title and description are required", ErrValidation)
	}

	return c.consultationRepo.Create(ctx, entity.Consultation{
		PatientId:   patientId,
		Specialty:   in.Specialty,
		Title:       in.Title,
		Description: in.Description,
	})
}

func (c *consultationUsecase) Get(ctx context.Context, consultationId, userId string) (entity.Consultation, error) {
	consultation, err := c.get(ctx, consultationId)
	if err != nil {
		return entity.Consultation{}, err
	}
	if consultation.PatientId != userId && consultation.DoctorId != userId {
		return entity.Consultation{}, ErrNotParticipant
	}
	return consultation, nil
}

func (c *consultationUsecase) ListForPatient(ctx context.Context, patientId string) ([]entity.Consultation, error) {
	consultations, err := c.consultationRepo.FindByPatient(ctx, patientId)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(consultations, func(i, j int) bool {
		return consultations[i].CreatedAt.After(consultations[j].CreatedAt)
	})
	return consultations, nil
}

func (c *consultationUsecase) Start(ctx context.Context, consultationId, doctorUserId string) (string, error) {
	doctor, err := c.userUc.Get(ctx, doctorUserId)
	if err != nil {
		return "", err
	}
	if doctor.Role != entity.RoleDoctor {
		return "", ErrNotDoctor
	}

	consultation, err := c.get(ctx, consultationId)
	if err != nil {
		return "", err
	}

	if consultation.Status == entity.ConsultationCompleted {
		return "", fmt.Errorf("%w: consultation already completed", ErrValidation)
	}
	if consultation.Status == entity.ConsultationInProgress && consultation.DoctorId != doctorUserId {
		return "", fmt.Errorf("%w: consultation already in progress by another doctor", ErrValidation)
	}

	if chat, err := c.chatRepo.GetByConsultation(ctx, consultationId); err == nil {
		return chat.Id, nil
	} else if !errors.Is(err, repository.ErrChatNotFound) {
		return "", err
	}

	if consultation.DoctorId == "" {
		if err := c.consultationRepo.Assign(ctx, consultationId, doctorUserId); err != nil {
			return "", err
		}
	}

	return c.chatRepo.Create(ctx, entity.Chat{
		ConsultationId: consultationId,
		Participants:   []string{doctorUserId, consultation.PatientId},
	})
}

func (c *consultationUsecase) End(ctx context.Context, consultationId, doctorUserId string) error {
	consultation, err := c.get(ctx, consultationId)
	if err != nil {
		return err
	}

	if consultation.DoctorId != doctorUserId {
		return ErrNotAssignedDoctor
	}
	if consultation.Status != entity.ConsultationInProgress {
		return fmt.Errorf("%w: consultation cannot be ended, current status: %s", ErrValidation, consultation.Status)
	}

	return c.consultationRepo.UpdateStatus(ctx, consultationId, entity.ConsultationCompleted)
}

func (c *consultationUsecase) Delete(ctx context.Context, consultationId, userId string) error {
	consultation, err := c.get(ctx, consultationId)
	if err != nil {
		return err
	}
	if consultation.PatientId != userId {
		return ErrNotParticipant
	}

	chat, err := c.chatRepo.GetByConsultation(ctx, consultationId)
	switch {
	case err == nil:
		if err := c.messageRepo.DeleteByChat(ctx, chat.Id); err != nil {
			return err
		}
		if err := c.chatRepo.Delete(ctx, chat.Id); err != nil {
			return err
		}
	case !errors.Is(err, repository.ErrChatNotFound):
		return err
	}

	return c.consultationRepo.Delete(ctx, consultationId)
}

func (c *consultationUsecase) get(ctx context.Context, consultationId string) (entity.Consultation, error) {
	consultation, err := c.consultationRepo.Get(ctx, consultationId)
	if err != nil {
		if errors.Is(err, repository.ErrConsultationNotFound) {
			return entity.Consultation{}, ErrConsultationNotFound
		}
		return entity.Consultation{}, err
	}
	return consultation, nil
}
