package repository

import (
	"context"
	"errors"
	"time"

	"medichat/internal/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrConsultationNotFound = errors.New("consultation not found")

type ConsultationRepository interface {
	Get(ctx context.Context, consultationId string) (entity.Consultation, error)
	FindByPatient(ctx context.Context, patientId string) ([]entity.Consultation, error)
	Create(ctx context.Context, consultation entity.Consultation) (string, error)
	Assign(ctx context.Context, consultationId, doctorId string) error
	UpdateStatus(ctx context.Context, consultationId, status string) error
	Delete(ctx context.Context, consultationId string) error
}

type consultationRepository struct {
	db *mongo.Database
}

func NewConsultationRepository(db *mongo.Database) ConsultationRepository {
	return &consultationRepository{
		db: db,
	}
}

func (r *consultationRepository) Get(ctx context.Context, consultationId string) (entity.Consultation, error) {
	collection := r.db.Collection("consultations")
	filter := bson.M{"_id": consultationId}

	var consultation entity.Consultation
	err := collection.FindOne(ctx, filter).Decode(&consultation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Consultation{}, ErrConsultationNotFound
		}
		return entity.Consultation{}, err
	}

	return consultation, nil
}

func (r *consultationRepository) FindByPatient(ctx context.Context, patientId string) ([]entity.Consultation, error) {
	collection := r.db.Collection("consultations")
	filter := bson.M{"patientId": patientId}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var consultations []entity.Consultation
	err = cursor.All(ctx, &consultations)
	if err != nil {
		return nil, err
	}

	return consultations, nil
}

func (r *consultationRepository) Create(ctx context.Context, consultation entity.Consultation) (string, error) {
	collection := r.db.Collection("consultations")
	consultation.Id = uuid.New().String()
	consultation.Status = entity.ConsultationSearching
	consultation.CreatedAt = time.Now().UTC()
	consultation.UpdatedAt = consultation.CreatedAt

	_, err := collection.InsertOne(ctx, consultation)
	if err != nil {
		return "", err
	}

	return consultation.Id, nil
}

// Assign sets the doctor and moves the consultation to in_progress.
func (r *consultationRepository) Assign(ctx context.Context, consultationId, doctorId string) error {
	collection := r.db.Collection("consultations")

	update := bson.M{
		"$set": bson.M{
			"doctorId":  doctorId,
			"status":    entity.ConsultationInProgress,
			"updatedAt": time.Now().UTC(),
		},
	}

	_, err := collection.UpdateOne(ctx, bson.M{"_id": consultationId}, update)
	return err
}

func (r *consultationRepository) UpdateStatus(ctx context.Context, consultationId, status string) error {
	collection := r.db.Collection("consultations")

	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now().UTC(),
		},
	}

	_, err := collection.UpdateOne(ctx, bson.M{"_id": consultationId}, update)
	return err
}

func (r *consultationRepository) Delete(ctx context.Context, consultationId string) error {
	collection := r.db.Collection("consultations")
	filter := bson.M{"_id": consultationId}
	_, err := collection.DeleteOne(ctx, filter)
	return err
}
