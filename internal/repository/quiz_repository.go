package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apcsp-quiz/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type QuizRepository struct {
	Col *mongo.Collection
}

func NewQuizRepository(db *mongo.Database) *QuizRepository {
	return &QuizRepository{Col: db.Collection("quizzes")}
}

func (r *QuizRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "subcategory", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "completed_at", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	})
	return err
}

func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.Col.InsertOne(ctx, quiz)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: quiz %s already exists", models.ErrConflict, quiz.ID)
	}
	return err
}

func (r *QuizRepository) FindByID(ctx context.Context, id string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("quiz %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) Find(ctx context.Context, f models.QuizFilter) ([]models.Quiz, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	return r.decodeAll(ctx, quizQuery(f), opts)
}

func (r *QuizRepository) Count(ctx context.Context, f models.QuizFilter) (int64, error) {
	return r.Col.CountDocuments(ctx, quizQuery(f))
}

// Replace writes quiz back only if nobody changed it since it was read. The
// stored version is bumped; a lost race yields models.ErrStaleVersion.
func (r *QuizRepository) Replace(ctx context.Context, quiz *models.Quiz) error {
	expected := quiz.Version
	quiz.Version++
	res, err := r.Col.ReplaceOne(ctx, bson.M{"_id": quiz.ID, "version": expected}, quiz)
	if err != nil {
		quiz.Version = expected
		return err
	}
	if res.MatchedCount == 0 {
		quiz.Version = expected
		n, err := r.Col.CountDocuments(ctx, bson.M{"_id": quiz.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("quiz %s: %w", quiz.ID, models.ErrNotFound)
		}
		return models.ErrStaleVersion
	}
	return nil
}

func (r *QuizRepository) ArchiveCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.Col.UpdateMany(ctx,
		bson.M{"status": models.StatusCompleted, "completed_at": bson.M{"$lt": cutoff}},
		bson.M{
			"$set": bson.M{"status": models.StatusArchived, "updated_at": time.Now()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *QuizRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.Col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *QuizRepository) FindStale(ctx context.Context, cutoff time.Time) ([]models.Quiz, error) {
	return r.decodeAll(ctx, bson.M{
		"status":                       models.StatusInProgress,
		"in_progress_by.last_activity": bson.M{"$lt": cutoff},
	}, nil)
}

func (r *QuizRepository) decodeAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Quiz, error) {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cur, err := r.Col.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var quizzes []models.Quiz
	for cur.Next(ctx) {
		var q models.Quiz
		if err := cur.Decode(&q); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, cur.Err()
}

func quizQuery(f models.QuizFilter) bson.M {
	query := bson.M{}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.Subcategory != "" {
		query["subcategory"] = f.Subcategory
	}
	if f.CreatedFor != "" {
		query["created_for"] = f.CreatedFor
	}
	if len(f.Statuses) > 0 {
		query["status"] = bson.M{"$in": f.Statuses}
	}
	return query
}
