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

var ErrChatNotFound = errors.New("chat not found")

type ChatRepository interface {
	Get(ctx context.Context, chatId string) (entity.Chat, error)
	GetByConsultation(ctx context.Context, consultationId string) (entity.Chat, error)
	FindByParticipant(ctx context.Context, userId string) ([]entity.Chat, error)
	Create(ctx context.Context, chat entity.Chat) (string, error)
	UpdateLastOpened(ctx context.Context, chatId, userId string, openedAt time.Time) error
	Delete(ctx context.Context, chatId string) error
}

type chatRepository struct {
	db *mongo.Database
}

func NewChatRepository(db *mongo.Database) ChatRepository {
	return &chatRepository{
		db: db,
	}
}

func (r *chatRepository) Get(ctx context.Context, chatId string) (entity.Chat, error) {
	collection := r.db.Collection("chats")
	filter := bson.M{"_id": chatId}

	var chat entity.Chat
	err := collection.FindOne(ctx, filter).Decode(&chat)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Chat{}, ErrChatNotFound
		}
		return entity.Chat{}, err
	}

	return chat, nil
}

func (r *chatRepository) GetByConsultation(ctx context.Context, consultationId string) (entity.Chat, error) {
	collection := r.db.Collection("chats")
	filter := bson.M{"consultationId": consultationId}

	var chat entity.Chat
	err := collection.FindOne(ctx, filter).Decode(&chat)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Chat{}, ErrChatNotFound
		}
		return entity.Chat{}, err
	}

	return chat, nil
}

// FindByParticipant returns every chat the user takes part in.
func (r *chatRepository) FindByParticipant(ctx context.Context, userId string) ([]entity.Chat, error) {
	collection := r.db.Collection("chats")
	filter := bson.M{"participants": userId}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var chats []entity.Chat
	err = cursor.All(ctx, &chats)
	if err != nil {
		return nil, err
	}

	return chats, nil
}

func (r *chatRepository) Create(ctx context.Context, chat entity.Chat) (string, error) {
	collection := r.db.Collection("chats")
	chat.Id = uuid.New().String()
	chat.CreatedAt = time.Now().UTC()
	chat.UpdatedAt = chat.CreatedAt
	if chat.LastOpenedAt == nil {
		chat.LastOpenedAt = []entity.ReadState{}
	}

	_, err := collection.InsertOne(ctx, chat)
	if err != nil {
		return "", err
	}

	return chat.Id, nil
}

// UpdateLastOpened upserts the user's read-state entry inside the chat
// document. A targeted positional update first; if no entry matched, a
// $push appends a new one. Last writer wins on concurrent updates.
func (r *chatRepository) UpdateLastOpened(ctx context.Context, chatId, userId string, openedAt time.Time) error {
	collection := r.db.Collection("chats")

	res, err := collection.UpdateOne(ctx,
		bson.M{"_id": chatId, "lastOpenedAt.userId": userId},
		bson.M{"$set": bson.M{"lastOpenedAt.$.openedAt": openedAt}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	_, err = collection.UpdateOne(ctx,
		bson.M{"_id": chatId},
		bson.M{"$push": bson.M{"lastOpenedAt": entity.ReadState{UserId: userId, OpenedAt: openedAt}}},
	)
	return err
}

func (r *chatRepository) Delete(ctx context.Context, chatId string) error {
	collection := r.db.Collection("chats")
	filter := bson.M{"_id": chatId}
	_, err := collection.DeleteOne(ctx, filter)
	return err
}
