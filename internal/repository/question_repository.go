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

type QuestionRepository struct {
	Col *mongo.Collection
}

func NewQuestionRepository(db *mongo.Database) *QuestionRepository {
	return &QuestionRepository{Col: db.Collection("questions")}
}

// EnsureIndexes creates the indexes the selector and bank listings rely on.
func (r *QuestionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "big_idea", Value: 1}}},
		{Keys: bson.D{{Key: "question_type", Value: 1}, {Key: "difficulty", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = primitive.NewObjectID().Hex()
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now()
	}
	_, err := r.Col.InsertOne(ctx, question)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: question %s already exists", models.ErrConflict, question.ID)
	}
	return err
}

func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&question)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("question %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// FindByIDs returns the questions in ids order, silently skipping unknown ids.
func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := r.decodeAll(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	questions := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

func (r *QuestionRepository) Find(ctx context.Context, f models.QuestionFilter) ([]models.Question, error) {
	if f.Sample && f.Limit > 0 {
		return r.sample(ctx, f)
	}
	opts := options.Find()
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.SortNewest {
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}
	return r.decodeAll(ctx, questionQuery(f), opts)
}

// sample lets the server draw the candidates with $sample so repeated
// selections with the same filter see different questions.
func (r *QuestionRepository) sample(ctx context.Context, f models.QuestionFilter) ([]models.Question, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: questionQuery(f)}},
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: f.Limit}}}},
	}
	cur, err := r.Col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var questions []models.Question
	if err := cur.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *QuestionRepository) Update(ctx context.Context, id string, patch *models.QuestionPatch) (*models.Question, error) {
	question, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(question)
	if err := question.Validate(); err != nil {
		return nil, err
	}
	question.UpdatedAt = time.Now()
	res, err := r.Col.ReplaceOne(ctx, bson.M{"_id": id}, question)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("question %s: %w", id, models.ErrNotFound)
	}
	return question, nil
}

func (r *QuestionRepository) Deactivate(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.Col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *QuestionRepository) IncrementUsage(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.Col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$inc": bson.M{"usage.times_used": 1}},
	)
	return err
}

type groupCount struct {
	Key   interface{} `bson:"_id"`
	Count int         `bson:"count"`
}

// Stats aggregates the bank per active flag, big idea, type and difficulty.
func (r *QuestionRepository) Stats(ctx context.Context) (*models.BankStats, error) {
	stats := &models.BankStats{
		ByBigIdea:    map[models.BigIdea]int{},
		ByType:       map[models.QuestionType]int{},
		ByDifficulty: map[models.Difficulty]int{},
	}

	active, err := r.Col.CountDocuments(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, err
	}
	inactive, err := r.Col.CountDocuments(ctx, bson.M{"is_active": false})
	if err != nil {
		return nil, err
	}
	stats.TotalActive, stats.TotalInactive = int(active), int(inactive)

	for _, field := range []string{"big_idea", "question_type", "difficulty"} {
		groups, err := r.groupActive(ctx, field)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			switch field {
			case "big_idea":
				if n, ok := toInt(g.Key); ok {
					stats.ByBigIdea[models.BigIdea(n)] = g.Count
				}
			case "question_type":
				if s, ok := g.Key.(string); ok {
					stats.ByType[models.QuestionType(s)] = g.Count
				}
			case "difficulty":
				if s, ok := g.Key.(string); ok {
					stats.ByDifficulty[models.Difficulty(s)] = g.Count
				}
			}
		}
	}
	return stats, nil
}

func (r *QuestionRepository) groupActive(ctx context.Context, field string) ([]groupCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_active": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.Col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var groups []groupCount
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *QuestionRepository) decodeAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Question, error) {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cur, err := r.Col.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var questions []models.Question
	for cur.Next(ctx) {
		var q models.Question
		if err := cur.Decode(&q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, cur.Err()
}

func questionQuery(f models.QuestionFilter) bson.M {
	query := bson.M{}
	if f.ActiveOnly {
		query["is_active"] = true
	}
	if f.BigIdea != 0 {
		query["big_idea"] = f.BigIdea
	}
	if f.QuestionType != "" {
		query["question_type"] = f.QuestionType
	}
	if f.Difficulty != "" {
		query["difficulty"] = f.Difficulty
	}
	if f.Topic != "" {
		query["topic"] = f.Topic
	}
	if f.Tag != "" {
		query["tags"] = f.Tag
	}
	if len(f.ExcludeIDs) > 0 {
		query["_id"] = bson.M{"$nin": f.ExcludeIDs}
	}
	return query
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}
