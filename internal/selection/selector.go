package selection

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"apcsp-quiz/internal/models"
)

// Selector picks quiz questions from the bank to match a distribution.
type Selector struct {
	source QuestionSource
	Policy BackfillPolicy

	mu   sync.Mutex
	rand *rand.Rand
}

// NewSelector creates a selector. A nil rnd is replaced by a time-seeded source.
func NewSelector(source QuestionSource, rnd *rand.Rand) *Selector {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{
		source: source,
		Policy: BestEffort,
		rand:   rnd,
	}
}

// SelectQuestions walks the big ideas in order and greedily accepts randomly
// drawn candidates whose question type and difficulty are still under
// target. Under BestEffort a shortfall is backfilled first from the requested
// big ideas and then from any unused active question, ignoring the type and
// difficulty targets. The result is shuffled. A result shorter than total is
// not an error.
func (s *Selector) SelectQuestions(ctx context.Context, dist models.Distribution, total int) (*SelectionResult, error) {
	result := &SelectionResult{
		Requested: dist,
		Achieved:  models.NewDistribution(),
	}
	if total <= 0 {
		return result, nil
	}

	used := make(map[string]bool)
	typeCounts := make(map[models.QuestionType]int)
	difficultyCounts := make(map[models.Difficulty]int)
	selected := make([]models.Question, 0, total)

	for _, bigIdea := range sortedBigIdeas(dist.BigIdeas) {
		target := dist.BigIdeas[bigIdea]
		if target <= 0 || len(selected) >= total {
			continue
		}

		candidates, err := s.source.Find(ctx, models.QuestionFilter{
			BigIdea:    bigIdea,
			ActiveOnly: true,
			ExcludeIDs: usedIDs(used),
			Sample:     true,
			Limit:      int64(target * CandidateFactor),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch candidates for big idea %d: %w", bigIdea, err)
		}

		taken := 0
		for _, q := range candidates {
			if taken >= target || len(selected) >= total {
				break
			}
			if used[q.ID] {
				continue
			}
			if !underTarget(dist.QuestionTypes, typeCounts, q.QuestionType) ||
				!underTarget(dist.Difficulties, difficultyCounts, q.Difficulty) {
				continue
			}
			used[q.ID] = true
			typeCounts[q.QuestionType]++
			difficultyCounts[q.Difficulty]++
			selected = append(selected, q)
			taken++
		}
	}

	if len(selected) < total {
		if s.Policy == Strict {
			return nil, fmt.Errorf("%w: selected %d of %d", models.ErrDistributionUnmet, len(selected), total)
		}

		// Requested big ideas first, then the whole active pool.
		scopes := append(targetedBigIdeas(dist.BigIdeas), 0)
		for _, bigIdea := range scopes {
			if len(selected) >= total {
				break
			}
			remaining, err := s.source.Find(ctx, models.QuestionFilter{
				BigIdea:    bigIdea,
				ActiveOnly: true,
				ExcludeIDs: usedIDs(used),
				Sample:     true,
				Limit:      int64(total - len(selected)),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to backfill questions: %w", err)
			}
			for _, q := range remaining {
				if len(selected) >= total {
					break
				}
				if used[q.ID] {
					continue
				}
				used[q.ID] = true
				selected = append(selected, q)
				result.Backfilled++
			}
		}
	}

	s.shuffle(selected)

	for i := range selected {
		result.Achieved.Count(&selected[i])
	}
	result.Questions = selected
	return result, nil
}

// shuffle is an in-place Fisher–Yates shuffle.
func (s *Selector) shuffle(questions []models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(questions) - 1; i > 0; i-- {
		j := s.rand.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

// Intn exposes the selector's random source to callers that need to share it.
func (s *Selector) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Intn(n)
}

// underTarget reports whether one more question of key fits the axis. An
// axis without any targets does not constrain selection.
func underTarget[K comparable](targets map[K]int, counts map[K]int, key K) bool {
	if len(targets) == 0 {
		return true
	}
	return counts[key] < targets[key]
}

func sortedBigIdeas(counts map[models.BigIdea]int) []models.BigIdea {
	keys := make([]models.BigIdea, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func targetedBigIdeas(counts map[models.BigIdea]int) []models.BigIdea {
	var out []models.BigIdea
	for _, b := range sortedBigIdeas(counts) {
		if counts[b] > 0 {
			out = append(out, b)
		}
	}
	return out
}

func usedIDs(used map[string]bool) []string {
	ids := make([]string, 0, len(used))
	for id := range used {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
