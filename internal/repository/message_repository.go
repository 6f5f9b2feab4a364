package repository

import (
	"context"
	"errors"
	"time"

	"medichat/internal/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepository interface {
	Get(ctx context.Context, messageId string) (entity.Message, error)
	Create(ctx context.Context, message entity.Message) (entity.Message, error)
	DeleteByChat(ctx context.Context, chatId string) error

	// Visibility-aware reads: a message is visible to a user iff the
	// user is not in its deletedFor set.
	VisibleByChat(ctx context.Context, chatId, userId string, limit, offset int) ([]entity.Message, error)
	CountVisible(ctx context.Context, chatId, userId string) (int64, error)
	LastVisibleByChats(ctx context.Context, chatIds []string, userId string) (map[string]entity.Message, error)
	FindVisibleByTypes(ctx context.Context, chatId, userId string, types []string) ([]entity.Message, error)
	FindVisibleLinks(ctx context.Context, chatId, userId string) ([]entity.Message, error)
	Search(ctx context.Context, chatId, userId, query string, limit, offset int) ([]entity.Message, error)
	Stats(ctx context.Context, chatId, userId string) (entity.ChatStats, error)

	// Unread derivation: one aggregation grouped by chat.
	UnreadCounts(ctx context.Context, userId string, windows []entity.ReadWindow) (map[string]int64, error)

	// Soft-delete lifecycle. Appends are atomic add-to-set operations,
	// never read-modify-write; convergence is decided against the stored
	// document, not a previously read copy.
	AddDeletedFor(ctx context.Context, messageId, userId string) error
	SoftDeleteAll(ctx context.Context, chatId, userId string) error
	DeleteIfConverged(ctx context.Context, messageId string, participants []string) (bool, error)
	DeleteConverged(ctx context.Context, chatId string, participants []string) (int64, error)
}

type messageRepository struct {
	db *mongo.Database
}

func NewMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		db: db,
	}
}

func visibleFilter(chatId, userId string) bson.M {
	return bson.M{
		"chatId":     chatId,
		"deletedFor": bson.M{"$ne": userId},
	}
}

func (r *messageRepository) Get(ctx context.Context, messageId string) (entity.Message, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": messageId}

	var message entity.Message
	err := collection.FindOne(ctx, filter).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Message{}, ErrMessageNotFound
		}
		return entity.Message{}, err
	}

	return message, nil
}

func (r *messageRepository) Create(ctx context.Context, message entity.Message) (entity.Message, error) {
	collection := r.db.Collection("messages")
	message.Id = uuid.New().String()
	message.CreatedAt = time.Now().UTC()
	if message.DeletedFor == nil {
		message.DeletedFor = []string{}
	}

	_, err := collection.InsertOne(ctx, message)
	if err != nil {
		return entity.Message{}, err
	}

	return message, nil
}

func (r *messageRepository) DeleteByChat(ctx context.Context, chatId string) error {
	collection := r.db.Collection("messages")
	filter := bson.M{"chatId": chatId}
	_, err := collection.DeleteMany(ctx, filter)
	return err
}

func (r *messageRepository) VisibleByChat(ctx context.Context, chatId, userId string, limit, offset int) ([]entity.Message, error) {
	collection := r.db.Collection("messages")

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	opts.SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := collection.Find(ctx, visibleFilter(chatId, userId), opts)
	if err != nil {
		return nil, err
	}

	var messages []entity.Message
	err = cursor.All(ctx, &messages)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *messageRepository) CountVisible(ctx context.Context, chatId, userId string) (int64, error) {
	collection := r.db.Collection("messages")
	return collection.CountDocuments(ctx, visibleFilter(chatId, userId))
}

// LastVisibleByChats returns, per chat, the newest message still
// visible to the user. One aggregation for all chats.
func (r *messageRepository) LastVisibleByChats(ctx context.Context, chatIds []string, userId string) (map[string]entity.Message, error) {
	if len(chatIds) == 0 {
		return map[string]entity.Message{}, nil
	}

	collection := r.db.Collection("messages")

	matchStage := bson.D{{Key: "$match", Value: bson.M{
		"chatId":     bson.M{"$in": chatIds},
		"deletedFor": bson.M{"$ne": userId},
	}}}
	sortStage := bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}}
	groupStage := bson.D{{Key: "$group", Value: bson.M{
		"_id":  "$chatId",
		"last": bson.M{"$first": "$$ROOT"},
	}}}

	cursor, err := collection.Aggregate(ctx, mongo.Pipeline{matchStage, sortStage, groupStage})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ChatId string         `bson:"_id"`
		Last   entity.Message `bson:"last"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	result := make(map[string]entity.Message, len(rows))
	for _, row := range rows {
		result[row.ChatId] = row.Last
	}
	return result, nil
}

func (r *messageRepository) FindVisibleByTypes(ctx context.Context, chatId, userId string, types []string) ([]entity.Message, error) {
	collection := r.db.Collection("messages")

	filter := visibleFilter(chatId, userId)
	filter["type"] = bson.M{"$in": types}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var messages []entity.Message
	err = cursor.All(ctx, &messages)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *messageRepository) FindVisibleLinks(ctx context.Context, chatId, userId string) ([]entity.Message, error) {
	collection := r.db.Collection("messages")

	filter := visibleFilter(chatId, userId)
	filter["type"] = entity.MessageTypeText
	filter["content"] = bson.M{"$regex": primitive.Regex{Pattern: `http[s]?://`, Options: "i"}}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var messages []entity.Message
	err = cursor.All(ctx, &messages)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *messageRepository) Search(ctx context.Context, chatId, userId, query string, limit, offset int) ([]entity.Message, error) {
	collection := r.db.Collection("messages")

	filter := visibleFilter(chatId, userId)
	filter["content"] = bson.M{"$regex": primitive.Regex{Pattern: regexQuote(query), Options: "i"}}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var messages []entity.Message
	err = cursor.All(ctx, &messages)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// Stats counts the user's visible media, files, links and total in one
// $facet pass.
func (r *messageRepository) Stats(ctx context.Context, chatId, userId string) (entity.ChatStats, error) {
	collection := r.db.Collection("messages")

	matchStage := bson.D{{Key: "$match", Value: visibleFilter(chatId, userId)}}
	facetStage := bson.D{{Key: "$facet", Value: bson.M{
		"images": bson.A{
			bson.M{"$match": bson.M{"type": entity.MessageTypeImage}},
			bson.M{"$count": "count"},
		},
		"videos": bson.A{
			bson.M{"$match": bson.M{"type": entity.MessageTypeVideo}},
			bson.M{"$count": "count"},
		},
		"files": bson.A{
			bson.M{"$match": bson.M{"type": entity.MessageTypeFile}},
			bson.M{"$count": "count"},
		},
		"links": bson.A{
			bson.M{"$match": bson.M{
				"type":    entity.MessageTypeText,
				"content": bson.M{"$regex": primitive.Regex{Pattern: "http", Options: "i"}},
			}},
			bson.M{"$count": "count"},
		},
		"total": bson.A{
			bson.M{"$count": "count"},
		},
	}}}

	cursor, err := collection.Aggregate(ctx, mongo.Pipeline{matchStage, facetStage})
	if err != nil {
		return entity.ChatStats{}, err
	}

	type facetCount struct {
		Count int64 `bson:"count"`
	}
	var rows []struct {
		Images []facetCount `bson:"images"`
		Videos []facetCount `bson:"videos"`
		Files  []facetCount `bson:"files"`
		Links  []facetCount `bson:"links"`
		Total  []facetCount `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return entity.ChatStats{}, err
	}
	if len(rows) == 0 {
		return entity.ChatStats{}, nil
	}

	first := func(fc []facetCount) int64 {
		if len(fc) == 0 {
			return 0
		}
		return fc[0].Count
	}

	return entity.ChatStats{
		Images: first(rows[0].Images),
		Videos: first(rows[0].Videos),
		Files:  first(rows[0].Files),
		Links:  first(rows[0].Links),
		Total:  first(rows[0].Total),
	}, nil
}

// UnreadCounts computes per-chat unread counts for the user in a single
// aggregation: non-own, non-deleted messages newer than the chat's
// read-state window, grouped by chat. A zero Since means every non-own
// visible message counts.
func (r *messageRepository) UnreadCounts(ctx context.Context, userId string, windows []entity.ReadWindow) (map[string]int64, error) {
	if len(windows) == 0 {
		return map[string]int64{}, nil
	}

	collection := r.db.Collection("messages")

	conditions := make(bson.A, 0, len(windows))
	for _, w := range windows {
		if w.Since.IsZero() {
			conditions = append(conditions, bson.M{"chatId": w.ChatId})
			continue
		}
		conditions = append(conditions, bson.M{
			"chatId":    w.ChatId,
			"createdAt": bson.M{"$gt": w.Since},
		})
	}

	matchStage := bson.D{{Key: "$match", Value: bson.M{
		"senderId":   bson.M{"$ne": userId},
		"deletedFor": bson.M{"$ne": userId},
		"$or":        conditions,
	}}}
	groupStage := bson.D{{Key: "$group", Value: bson.M{
		"_id":   "$chatId",
		"count": bson.M{"$sum": 1},
	}}}

	cursor, err := collection.Aggregate(ctx, mongo.Pipeline{matchStage, groupStage})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ChatId string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.ChatId] = row.Count
	}
	return result, nil
}

// AddDeletedFor marks the message deleted for the user. $addToSet keeps
// the operation idempotent under concurrent deletes.
func (r *messageRepository) AddDeletedFor(ctx context.Context, messageId, userId string) error {
	collection := r.db.Collection("messages")

	res, err := collection.UpdateOne(ctx,
		bson.M{"_id": messageId},
		bson.M{"$addToSet": bson.M{"deletedFor": userId}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *messageRepository) SoftDeleteAll(ctx context.Context, chatId, userId string) error {
	collection := r.db.Collection("messages")

	_, err := collection.UpdateMany(ctx,
		bson.M{"chatId": chatId},
		bson.M{"$addToSet": bson.M{"deletedFor": userId}},
	)
	return err
}

// DeleteIfConverged removes the message iff its stored deletedFor set
// covers all participants. The condition is part of the delete filter,
// so a delete racing another participant's delete still converges.
func (r *messageRepository) DeleteIfConverged(ctx context.Context, messageId string, participants []string) (bool, error) {
	collection := r.db.Collection("messages")

	res, err := collection.DeleteOne(ctx, bson.M{
		"_id":        messageId,
		"deletedFor": bson.M{"$all": participants},
	})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// DeleteConverged purges every message in the chat whose deletedFor set
// covers all participants.
func (r *messageRepository) DeleteConverged(ctx context.Context, chatId string, participants []string) (int64, error) {
	collection := r.db.Collection("messages")

	res, err := collection.DeleteMany(ctx, bson.M{
		"chatId":     chatId,
		"deletedFor": bson.M{"$all": participants},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// regexQuote escapes regex metacharacters in user-supplied search text.
func regexQuote(s string) string {
	const meta = `\.+*?()|[]{}^$`
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(meta); j++ {
			if s[i] == meta[j] {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}
