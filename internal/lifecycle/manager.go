package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apcsp-quiz/internal/event"
	"apcsp-quiz/internal/generator"
	"apcsp-quiz/internal/logger"
	"apcsp-quiz/internal/models"
	"apcsp-quiz/internal/repository"
)

// maxVersionRetries is how many times a mutation reloads the quiz after
// losing a version race.
const maxVersionRetries = 3

// QuizMaker generates and stores a new quiz.
type QuizMaker interface {
	GenerateRegularQuiz(ctx context.Context, cfg models.QuizConfig, perf *models.UserPerformance) (*generator.GeneratedQuiz, error)
}

type Options struct {
	RetakeCooldown time.Duration
	ArchiveAfter   time.Duration
	AbandonedAfter time.Duration
}

func DefaultOptions() Options {
	return Options{
		RetakeCooldown: 24 * time.Hour,
		ArchiveAfter:   90 * 24 * time.Hour,
		AbandonedAfter: 24 * time.Hour,
	}
}

type ProgressInput struct {
	CurrentQuestion int             `json:"current_question"`
	Answers         []models.Answer `json:"answers"`
	TimeRemaining   *int            `json:"time_remaining"`
}

// CompletionInput carries the client's final result. Score and TimeSpent are
// required.
type CompletionInput struct {
	Score     *float64        `json:"score"`
	TimeSpent *int            `json:"time_spent"`
	Answers   []models.Answer `json:"answers"`
}

type RetakeEligibility struct {
	CanRetake       bool      `json:"can_retake"`
	LastCompletedAt time.Time `json:"last_completed_at"`
	AvailableAt     time.Time `json:"available_at"`
	Remaining       string    `json:"remaining,omitempty"`
}

type StaleUser struct {
	UserID       string    `json:"user_id"`
	LastActivity time.Time `json:"last_activity"`
}

type AbandonedQuiz struct {
	QuizID      string              `json:"quiz_id"`
	Title       string              `json:"title"`
	Category    models.QuizCategory `json:"category"`
	Subcategory string              `json:"subcategory"`
	StaleUsers  []StaleUser         `json:"stale_users"`
}

// Manager drives a quiz through active, in-progress, completed and archived.
// Every mutation is a versioned read-modify-write of a single quiz.
type Manager struct {
	quizzes   repository.QuizStore
	questions repository.QuestionStore
	maker     QuizMaker
	pools     *PoolKeeper
	publisher event.Publisher
	log       *logger.Logger
	opts      Options
	now       func() time.Time
}

func NewManager(
	quizzes repository.QuizStore,
	questions repository.QuestionStore,
	maker QuizMaker,
	pools *PoolKeeper,
	publisher event.Publisher,
	log *logger.Logger,
	opts Options,
) *Manager {
	if publisher == nil {
		publisher = event.LogPublisher{Log: log}
	}
	return &Manager{
		quizzes:   quizzes,
		questions: questions,
		maker:     maker,
		pools:     pools,
		publisher: publisher,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

// SetClock replaces the manager's time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Manager) ListQuizzes(ctx context.Context, filter models.QuizFilter) ([]models.Quiz, error) {
	return m.quizzes.Find(ctx, filter)
}

// GetQuiz returns the quiz and its questions in quiz order.
func (m *Manager) GetQuiz(ctx context.Context, quizID string) (*models.Quiz, []models.Question, error) {
	quiz, err := m.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := m.questions.FindByIDs(ctx, quiz.QuestionIDs)
	if err != nil {
		return nil, nil, err
	}
	return quiz, questions, nil
}

// Start puts userID on the quiz. Starting twice resumes the existing entry.
func (m *Manager) Start(ctx context.Context, quizID, userID string) (*models.InProgressEntry, *models.Quiz, error) {
	var entry models.InProgressEntry
	var resumed bool
	quiz, err := m.mutate(ctx, quizID, func(q *models.Quiz) error {
		if !q.Status.Takeable() {
			return fmt.Errorf("%w: quiz %s is %s", models.ErrConflict, q.ID, q.Status)
		}
		if q.CompletedIndex(userID) >= 0 {
			return fmt.Errorf("%w: quiz %s already completed by user, retake it instead", models.ErrConflict, q.ID)
		}
		now := m.now()
		if i := q.InProgressIndex(userID); i >= 0 {
			q.InProgressBy[i].LastActivity = now
			entry, resumed = q.InProgressBy[i], true
			return nil
		}

		var remaining *int
		if q.TimeLimit > 0 {
			seconds := q.TimeLimit * 60
			remaining = &seconds
		}
		entry = models.InProgressEntry{
			UserID:          userID,
			StartedAt:       now,
			CurrentQuestion: 0,
			Answers:         []models.Answer{},
			TimeRemaining:   remaining,
			LastActivity:    now,
		}
		q.InProgressBy = append(q.InProgressBy, entry)
		if q.Status == models.StatusActive {
			q.Status = models.StatusInProgress
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if !resumed {
		m.publish(event.QuizStarted, map[string]interface{}{"quiz_id": quiz.ID, "user_id": userID})
	}
	return &entry, quiz, nil
}

func (m *Manager) Resume(ctx context.Context, quizID, userID string) (*models.InProgressEntry, *models.Quiz, error) {
	quiz, err := m.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	i := quiz.InProgressIndex(userID)
	if i < 0 {
		return nil, nil, fmt.Errorf("no attempt of quiz %s in progress for user: %w", quizID, models.ErrNotFound)
	}
	entry := quiz.InProgressBy[i]
	return &entry, quiz, nil
}

func (m *Manager) UpdateProgress(ctx context.Context, quizID, userID string, in ProgressInput) (*models.InProgressEntry, error) {
	if in.CurrentQuestion < 0 {
		return nil, fmt.Errorf("%w: current question cannot be negative", models.ErrValidation)
	}
	if in.TimeRemaining != nil && *in.TimeRemaining < 0 {
		return nil, fmt.Errorf("%w: time remaining cannot be negative", models.ErrValidation)
	}

	var entry models.InProgressEntry
	_, err := m.mutate(ctx, quizID, func(q *models.Quiz) error {
		i := q.InProgressIndex(userID)
		if i < 0 {
			return fmt.Errorf("no attempt of quiz %s in progress for user: %w", q.ID, models.ErrNotFound)
		}
		if in.CurrentQuestion >= len(q.QuestionIDs) && len(q.QuestionIDs) > 0 {
			return fmt.Errorf("%w: current question %d out of range", models.ErrValidation, in.CurrentQuestion)
		}
		e := &q.InProgressBy[i]
		e.CurrentQuestion = in.CurrentQuestion
		if in.Answers != nil {
			e.Answers = in.Answers
		}
		e.TimeRemaining = in.TimeRemaining
		e.LastActivity = m.now()
		entry = *e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Complete records the user's result, marks the quiz completed and tops up
// the quiz pool it came from.
func (m *Manager) Complete(ctx context.Context, quizID, userID string, in CompletionInput) (*models.CompletedEntry, *models.Quiz, error) {
	if in.Score == nil || in.TimeSpent == nil {
		return nil, nil, fmt.Errorf("%w: score and time_spent are required", models.ErrValidation)
	}
	if *in.Score < 0 || *in.Score > 100 {
		return nil, nil, fmt.Errorf("%w: score must be between 0 and 100", models.ErrValidation)
	}
	if *in.TimeSpent < 0 {
		return nil, nil, fmt.Errorf("%w: time spent cannot be negative", models.ErrValidation)
	}

	var entry models.CompletedEntry
	quiz, err := m.mutate(ctx, quizID, func(q *models.Quiz) error {
		if !q.Status.Takeable() {
			return fmt.Errorf("%w: quiz %s is %s", models.ErrConflict, q.ID, q.Status)
		}
		if q.CompletedIndex(userID) >= 0 {
			return fmt.Errorf("%w: quiz %s already completed by user", models.ErrConflict, q.ID)
		}

		answers := in.Answers
		if i := q.InProgressIndex(userID); i >= 0 {
			if answers == nil {
				answers = q.InProgressBy[i].Answers
			}
			q.InProgressBy = append(q.InProgressBy[:i], q.InProgressBy[i+1:]...)
		}
		if answers == nil {
			answers = []models.Answer{}
		}

		now := m.now()
		entry = models.CompletedEntry{
			UserID:      userID,
			CompletedAt: now,
			Score:       *in.Score,
			TimeSpent:   *in.TimeSpent,
			Answers:     answers,
		}
		q.CompletedBy = append(q.CompletedBy, entry)
		q.CompletedAt = &now
		q.Status = models.StatusCompleted
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if m.pools != nil {
		if _, err := m.pools.EnsureActiveQuizPool(ctx, quiz.Category, quiz.Subcategory); err != nil {
			m.log.Error("failed to top up quiz pool",
				"category", quiz.Category,
				"subcategory", quiz.Subcategory,
				"error", err,
			)
		}
	}
	m.publish(event.QuizCompleted, map[string]interface{}{
		"quiz_id":  quiz.ID,
		"user_id":  userID,
		"score":    entry.Score,
		"category": quiz.Category,
	})
	return &entry, quiz, nil
}

// Abandon drops the user's in-progress entry. A quiz left without takers
// goes back to active.
func (m *Manager) Abandon(ctx context.Context, quizID, userID string) (*models.Quiz, error) {
	quiz, err := m.mutate(ctx, quizID, func(q *models.Quiz) error {
		i := q.InProgressIndex(userID)
		if i < 0 {
			return fmt.Errorf("no attempt of quiz %s in progress for user: %w", q.ID, models.ErrNotFound)
		}
		q.InProgressBy = append(q.InProgressBy[:i], q.InProgressBy[i+1:]...)
		if len(q.InProgressBy) == 0 && q.Status == models.StatusInProgress {
			q.Status = models.StatusActive
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.publish(event.QuizAbandoned, map[string]interface{}{"quiz_id": quiz.ID, "user_id": userID})
	return quiz, nil
}

func (m *Manager) CanRetakeQuiz(ctx context.Context, quizID, userID string) (*RetakeEligibility, error) {
	quiz, err := m.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return m.retakeEligibility(quiz, userID)
}

func (m *Manager) retakeEligibility(quiz *models.Quiz, userID string) (*RetakeEligibility, error) {
	var last time.Time
	found := false
	for _, c := range quiz.CompletedBy {
		if c.UserID == userID && (!found || c.CompletedAt.After(last)) {
			last, found = c.CompletedAt, true
		}
	}
	if !found {
		return nil, fmt.Errorf("quiz %s was never completed by user: %w", quiz.ID, models.ErrNotFound)
	}

	availableAt := last.Add(m.opts.RetakeCooldown)
	eligibility := &RetakeEligibility{
		LastCompletedAt: last,
		AvailableAt:     availableAt,
		CanRetake:       !m.now().Before(availableAt),
	}
	if !eligibility.CanRetake {
		eligibility.Remaining = availableAt.Sub(m.now()).Round(time.Minute).String()
	}
	return eligibility, nil
}

// Retake generates a fresh quiz with the configuration of quizID. The
// original quiz is left untouched.
func (m *Manager) Retake(ctx context.Context, quizID, userID string) (*generator.GeneratedQuiz, error) {
	quiz, err := m.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	eligibility, err := m.retakeEligibility(quiz, userID)
	if err != nil {
		return nil, err
	}
	if !eligibility.CanRetake {
		return nil, fmt.Errorf("%w: retake available at %s", models.ErrConflict, eligibility.AvailableAt.Format(time.RFC3339))
	}

	cfg := quiz.Metadata.Config
	if cfg.Difficulty == "" {
		cfg.Difficulty = quiz.Difficulty
		cfg.PassingScore = quiz.PassingScore
	}
	cfg.Category = quiz.Category
	cfg.Subcategory = quiz.Subcategory
	cfg.CreatedFor = quiz.CreatedFor
	cfg.QuestionCount = quiz.TotalQuestions

	generated, err := m.maker.GenerateRegularQuiz(ctx, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate retake of quiz %s: %w", quizID, err)
	}
	m.publish(event.QuizRetaken, map[string]interface{}{
		"quiz_id":     quizID,
		"new_quiz_id": generated.Quiz.ID,
		"user_id":     userID,
	})
	return generated, nil
}

// ArchiveOldQuizzes archives completed quizzes past the retention window.
func (m *Manager) ArchiveOldQuizzes(ctx context.Context) (int64, error) {
	cutoff := m.now().Add(-m.opts.ArchiveAfter)
	n, err := m.quizzes.ArchiveCompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to archive quizzes: %w", err)
	}
	if n > 0 {
		m.log.Info("archived old quizzes", "count", n, "cutoff", cutoff)
		m.publish(event.QuizzesArchived, map[string]interface{}{"count": n})
	}
	return n, nil
}

// CleanupExpiredQuizzes deletes quizzes whose expires_at has passed.
func (m *Manager) CleanupExpiredQuizzes(ctx context.Context) (int64, error) {
	n, err := m.quizzes.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired quizzes: %w", err)
	}
	if n > 0 {
		m.log.Info("deleted expired quizzes", "count", n)
		m.publish(event.QuizzesExpired, map[string]interface{}{"count": n})
	}
	return n, nil
}

// GetAbandonedQuizzes reports in-progress quizzes with idle takers. Nothing
// is changed.
func (m *Manager) GetAbandonedQuizzes(ctx context.Context) ([]AbandonedQuiz, error) {
	cutoff := m.now().Add(-m.opts.AbandonedAfter)
	stale, err := m.quizzes.FindStale(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	report := make([]AbandonedQuiz, 0, len(stale))
	for _, q := range stale {
		item := AbandonedQuiz{
			QuizID:      q.ID,
			Title:       q.Title,
			Category:    q.Category,
			Subcategory: q.Subcategory,
		}
		for _, e := range q.InProgressBy {
			if e.LastActivity.Before(cutoff) {
				item.StaleUsers = append(item.StaleUsers, StaleUser{UserID: e.UserID, LastActivity: e.LastActivity})
			}
		}
		report = append(report, item)
	}
	return report, nil
}

// mutate applies fn to a fresh copy of the quiz and writes it back,
// reloading when another writer got there first.
func (m *Manager) mutate(ctx context.Context, quizID string, fn func(q *models.Quiz) error) (*models.Quiz, error) {
	for attempt := 0; attempt <= maxVersionRetries; attempt++ {
		quiz, err := m.quizzes.FindByID(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if err := fn(quiz); err != nil {
			return nil, err
		}
		quiz.UpdatedAt = m.now()
		err = m.quizzes.Replace(ctx, quiz)
		if errors.Is(err, models.ErrStaleVersion) {
			m.log.Debug("quiz changed concurrently, reloading", "quiz_id", quizID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}
		return quiz, nil
	}
	return nil, fmt.Errorf("%w: quiz %s kept changing, gave up after %d reloads", models.ErrConflict, quizID, maxVersionRetries)
}

func (m *Manager) publish(eventType string, payload interface{}) {
	if err := m.publisher.Publish(eventType, payload); err != nil {
		m.log.Warn("failed to publish event", "type", eventType, "error", err)
	}
}
