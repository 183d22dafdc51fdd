// Package questiongen fills the question bank with model-written questions.
// Each question goes prompt -> completion -> JSON -> validation -> store, and
// a question that never validates within the retry budget is dropped.
package questiongen

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"apcsp-quiz/internal/event"
	"apcsp-quiz/internal/logger"
	"apcsp-quiz/internal/models"
	"apcsp-quiz/internal/repository"
	"apcsp-quiz/internal/selection"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds the attempts spent on one question slot.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func retry[T any](ctx context.Context, policy RetryPolicy, op func(attempt int) (T, error)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		attempt++
		return op(attempt)
	}
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(policy.Delay)),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
	)
}

type Pipeline struct {
	completer TextCompleter
	questions repository.QuestionStore
	validator Validator
	observer  Observer
	publisher event.Publisher
	log       *logger.Logger

	// QualityThreshold is the critique confidence a request gets when it
	// does not set its own.
	QualityThreshold float64
	RetryDelay       time.Duration

	mu   sync.Mutex
	rand *rand.Rand
	now  func() time.Time
}

func NewPipeline(
	completer TextCompleter,
	questions repository.QuestionStore,
	publisher event.Publisher,
	log *logger.Logger,
	qualityThreshold float64,
) *Pipeline {
	if publisher == nil {
		publisher = event.LogPublisher{Log: log}
	}
	return &Pipeline{
		completer: completer,
		questions: questions,
		validator: routingValidator{
			grid:     GridValidator{},
			critique: CritiqueValidator{Completer: completer},
		},
		observer:         LogObserver{Log: log},
		publisher:        publisher,
		log:              log,
		QualityThreshold: qualityThreshold,
		RetryDelay:       time.Second,
		rand:             rand.New(rand.NewSource(time.Now().UnixNano())),
		now:              time.Now,
	}
}

func (p *Pipeline) SetObserver(o Observer) { p.observer = o }

func (p *Pipeline) SetRand(r *rand.Rand) { p.rand = r }

func (p *Pipeline) SetClock(now func() time.Time) { p.now = now }

// SetCritiqueValidator replaces the validator used for questions that are not
// robot-navigation questions.
func (p *Pipeline) SetCritiqueValidator(v Validator) {
	p.validator = routingValidator{grid: GridValidator{}, critique: v}
}

// GenerateBatchQuestions plans a slot per question from the request's
// distribution and works through them in order. Slots that fail every
// attempt are dropped and counted; the batch itself only fails on an
// invalid request or a cancelled context.
func (p *Pipeline) GenerateBatchQuestions(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	s, err := req.resolve(p.QualityThreshold)
	if err != nil {
		return nil, err
	}

	dist := selection.CalculateDistribution(s.total, s.weights)
	slots := p.planSlots(dist, s)
	result := &BatchResult{
		TotalRequested: s.total,
		Distribution:   dist,
		Questions:      []models.Question{},
	}
	policy := RetryPolicy{MaxAttempts: s.maxRetries, Delay: p.RetryDelay}

	p.log.Info("starting question batch", "requested", s.total, "slots", len(slots), "max_retries", s.maxRetries)

	for _, sl := range slots {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		q, err := retry(ctx, policy, func(attempt int) (*models.Question, error) {
			p.observer.Attempt(sl.Index, attempt, sl.template())
			q, err := p.attempt(ctx, sl, s)
			if err != nil {
				p.observer.Rejected(sl.Index, attempt, err)
			}
			return q, err
		})
		if err != nil {
			result.TotalDropped++
			p.observer.Dropped(sl.Index, err)
			continue
		}
		result.TotalGenerated++

		if err := p.questions.Create(ctx, q); err != nil {
			p.observer.SaveFailed(sl.Index, err)
			continue
		}
		result.TotalSaved++
		result.Questions = append(result.Questions, *q)
		p.observer.Saved(sl.Index, q)
	}

	p.log.Info("question batch finished",
		"requested", result.TotalRequested,
		"generated", result.TotalGenerated,
		"saved", result.TotalSaved,
		"dropped", result.TotalDropped,
	)
	if err := p.publisher.Publish(event.QuestionsGenerated, map[string]interface{}{
		"total_requested": result.TotalRequested,
		"total_generated": result.TotalGenerated,
		"total_saved":     result.TotalSaved,
	}); err != nil {
		p.log.Warn("failed to publish batch event", "error", err)
	}
	return result, nil
}

// attempt makes one try at filling sl.
func (p *Pipeline) attempt(ctx context.Context, sl slot, s *settings) (*models.Question, error) {
	text, err := p.completer.Complete(ctx, generatorSystemPrompt, buildPrompt(sl))
	if err != nil {
		return nil, &GenerationError{Kind: KindCompletion, Err: err}
	}
	q, err := decodeQuestion(text, sl)
	if err != nil {
		return nil, err
	}
	if sl.robotNavigation() && !q.HasTag(RobotNavigationTag) {
		q.Tags = append(q.Tags, RobotNavigationTag)
	}

	verdict, err := p.validator.Validate(ctx, q)
	if err != nil {
		var ge *GenerationError
		if errors.As(err, &ge) {
			return nil, err
		}
		return nil, &GenerationError{Kind: KindCompletion, Err: err}
	}
	if !verdict.Accepted(s.qualityThreshold, s.minScore) {
		return nil, genErr(KindRejected, "%s: %s", verdict.Method, verdict.reason())
	}

	q.IsActive = true
	q.Usage = models.QuestionUsage{}
	q.Metadata = models.QuestionMetadata{
		GeneratedBy:      models.GeneratedByAI,
		GeneratedAt:      p.now(),
		PromptTemplate:   sl.template(),
		ValidationMethod: verdict.Method,
		ValidationScore:  verdict.Score,
	}
	return q, nil
}

// planSlots walks question types in a fixed order and gives every slot a
// big idea and difficulty drawn from the categories with quota left.
func (p *Pipeline) planSlots(dist models.Distribution, s *settings) []slot {
	bigIdeaQuota := copyCounts(dist.BigIdeas)
	difficultyQuota := copyCounts(dist.Difficulties)

	p.mu.Lock()
	defer p.mu.Unlock()

	var slots []slot
	for _, t := range models.QuestionTypes {
		for i := 0; i < dist.QuestionTypes[t]; i++ {
			slots = append(slots, slot{
				Index:        len(slots),
				QuestionType: t,
				BigIdea:      pickCategory(p.rand, bigIdeaQuota, s.weights.BigIdeas, models.BigIdeas),
				Difficulty:   pickCategory(p.rand, difficultyQuota, s.weights.Difficulties, models.Difficulties),
				Topic:        s.topic,
			})
		}
	}
	return slots
}

// pickCategory picks uniformly among categories with quota left, then among
// categories with a non-zero weight once quotas run out.
func pickCategory[K comparable](rnd *rand.Rand, quota map[K]int, weights map[K]float64, order []K) K {
	var candidates []K
	for _, k := range order {
		if quota[k] > 0 {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		for _, k := range order {
			if weights[k] > 0 {
				candidates = append(candidates, k)
			}
		}
	}
	if len(candidates) == 0 {
		candidates = order
	}
	k := candidates[rnd.Intn(len(candidates))]
	if quota[k] > 0 {
		quota[k]--
	}
	return k
}

func copyCounts[K comparable](in map[K]int) map[K]int {
	out := make(map[K]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
