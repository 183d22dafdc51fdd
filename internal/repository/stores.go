// Package repository holds the MongoDB-backed question and quiz stores and the
// store interfaces the services depend on.
package repository

import (
	"context"
	"time"

	"apcsp-quiz/internal/models"
)

type QuestionStore interface {
	Create(ctx context.Context, question *models.Question) error
	FindByID(ctx context.Context, id string) (*models.Question, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Question, error)
	Find(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error)
	Update(ctx context.Context, id string, patch *models.QuestionPatch) (*models.Question, error)
	Deactivate(ctx context.Context, ids []string) (int64, error)
	IncrementUsage(ctx context.Context, ids []string) error
	Stats(ctx context.Context) (*models.BankStats, error)
}

type QuizStore interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
	Find(ctx context.Context, filter models.QuizFilter) ([]models.Quiz, error)
	Count(ctx context.Context, filter models.QuizFilter) (int64, error)
	// Replace fails with models.ErrStaleVersion when quiz.Version is not the
	// stored version. On success quiz.Version holds the new version.
	Replace(ctx context.Context, quiz *models.Quiz) error
	ArchiveCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// FindStale returns in-progress quizzes with an entry idle since before cutoff.
	FindStale(ctx context.Context, cutoff time.Time) ([]models.Quiz, error)
}

var (
	_ QuestionStore = (*QuestionRepository)(nil)
	_ QuizStore     = (*QuizRepository)(nil)
)
