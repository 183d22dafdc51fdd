package lifecycle

import (
	"context"
	"fmt"
	"math"

	"apcsp-quiz/internal/models"
)

// AttemptStat derives the per-question view of a user's attempt from the
// quiz's embedded progress entries. A finished attempt wins over an open one.
func (m *Manager) AttemptStat(ctx context.Context, quizID, userID string) (*models.QuizStat, error) {
	quiz, err := m.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, err
	}

	stat := &models.QuizStat{QuizID: quiz.ID, UserID: userID}
	var answers []models.Answer
	switch {
	case quiz.CompletedIndex(userID) >= 0:
		c := quiz.CompletedBy[quiz.CompletedIndex(userID)]
		completedAt := c.CompletedAt
		answers = c.Answers
		stat.IsCompleted = true
		stat.CompletedAt = &completedAt
		stat.TotalTime = c.TimeSpent
		stat.Score = c.Score
		stat.CurrentQuestion = len(quiz.QuestionIDs)
	case quiz.InProgressIndex(userID) >= 0:
		e := quiz.InProgressBy[quiz.InProgressIndex(userID)]
		lastSaved := e.LastActivity
		answers = e.Answers
		stat.CurrentQuestion = e.CurrentQuestion
		stat.TimeRemaining = e.TimeRemaining
		stat.LastSaved = &lastSaved
	default:
		return nil, fmt.Errorf("no attempt of quiz %s for user: %w", quizID, models.ErrNotFound)
	}

	questions, err := m.questions.FindByIDs(ctx, quiz.QuestionIDs)
	if err != nil {
		return nil, err
	}
	correctByID := make(map[string]int, len(questions))
	for _, q := range questions {
		correctByID[q.ID] = q.CorrectAnswer
	}

	answerTime := 0
	stat.Answers = make([]models.QuestionAttempt, 0, len(answers))
	for _, a := range answers {
		attempt := models.QuestionAttempt{
			QuestionID:   a.QuestionID,
			ChosenAnswer: a.ChosenAnswer,
			TimeTaken:    a.TimeTaken,
		}
		correct, known := correctByID[a.QuestionID]
		switch {
		case a.ChosenAnswer == nil:
			attempt.IsSkipped = true
			stat.Skipped++
		case known && *a.ChosenAnswer == correct:
			attempt.IsCorrect = true
			stat.Correct++
		default:
			stat.Incorrect++
		}
		answerTime += a.TimeTaken
		stat.Answers = append(stat.Answers, attempt)
	}

	if !stat.IsCompleted {
		stat.TotalTime = answerTime
		if total := len(quiz.QuestionIDs); total > 0 {
			stat.Score = math.Round(float64(stat.Correct)/float64(total)*10000) / 100
		}
	}
	return stat, nil
}
