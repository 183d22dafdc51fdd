package selection

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"apcsp-quiz/internal/models"
	"apcsp-quiz/internal/repository/memstore"
)

func TestCalculateDistributionExamWeights(t *testing.T) {
	dist := CalculateDistribution(30, models.Weights{BigIdeas: APExamBigIdeaWeights()})

	want := map[models.BigIdea]int{1: 4, 2: 6, 3: 10, 4: 4, 5: 7}
	if !reflect.DeepEqual(dist.BigIdeas, want) {
		t.Errorf("big idea counts = %v, want %v", dist.BigIdeas, want)
	}
	if sum := AxisSum(dist.BigIdeas); sum != 31 {
		t.Errorf("sum = %d, want 31", sum)
	}
	if len(dist.QuestionTypes) != 0 || len(dist.Difficulties) != 0 {
		t.Errorf("empty axes should stay empty: %v %v", dist.QuestionTypes, dist.Difficulties)
	}
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		weights map[string]float64
		want    map[string]int
	}{
		{"already normalized", 10, map[string]float64{"a": 30, "b": 70}, map[string]int{"a": 3, "b": 7}},
		{"scaled up", 10, map[string]float64{"a": 1, "b": 1}, map[string]int{"a": 5, "b": 5}},
		{"scaled down", 20, map[string]float64{"a": 100, "b": 100}, map[string]int{"a": 10, "b": 10}},
		{"negative clamped", 10, map[string]float64{"a": -5, "b": 10}, map[string]int{"a": 0, "b": 10}},
		{"zero weights", 10, map[string]float64{"a": 0, "b": 0}, map[string]int{"a": 0, "b": 0}},
		{"zero total", 0, map[string]float64{"a": 50, "b": 50}, map[string]int{"a": 0, "b": 0}},
		{"half rounds away from zero", 1, map[string]float64{"a": 50, "b": 50}, map[string]int{"a": 1, "b": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allocate(tt.total, tt.weights); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Allocate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllocateRoundingSlack(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		total := 1 + rnd.Intn(200)
		weights := map[int]float64{}
		n := 1 + rnd.Intn(6)
		for k := 0; k < n; k++ {
			weights[k] = rnd.Float64() * 60
		}
		counts := Allocate(total, weights)
		sum := 0
		for k, c := range counts {
			if c < 0 {
				t.Fatalf("negative count %d for %d", c, k)
			}
			sum += c
		}
		diff := sum - total
		if diff < 0 {
			diff = -diff
		}
		if diff > len(weights) {
			t.Fatalf("total %d weights %v: sum %d is off by more than %d", total, weights, sum, len(weights))
		}
	}
}

type bankSpec struct {
	n          int
	bigIdea    models.BigIdea
	qType      models.QuestionType
	difficulty models.Difficulty
	inactive   bool
}

func buildBank(specs ...bankSpec) *memstore.QuestionStore {
	var questions []models.Question
	for s, spec := range specs {
		for i := 0; i < spec.n; i++ {
			questions = append(questions, models.Question{
				ID:           fmt.Sprintf("s%d-q%02d", s, i),
				QuestionText: fmt.Sprintf("question %d/%d", s, i),
				Options:      []string{"a", "b", "c", "d"},
				BigIdea:      spec.bigIdea,
				QuestionType: spec.qType,
				Difficulty:   spec.difficulty,
				IsActive:     !spec.inactive,
			})
		}
	}
	return memstore.NewQuestionStore(questions...)
}

func ids(questions []models.Question) []string {
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = q.ID
	}
	return out
}

func TestSelectQuestionsShufflesWithoutDuplicates(t *testing.T) {
	bank := buildBank(bankSpec{n: 20, bigIdea: 1, qType: models.TypeAlgorithm, difficulty: models.DifficultyEasy})
	selector := NewSelector(bank, rand.New(rand.NewSource(3)))

	dist := models.Distribution{BigIdeas: map[models.BigIdea]int{1: 20}}
	result, err := selector.SelectQuestions(context.Background(), dist, 20)
	if err != nil {
		t.Fatalf("SelectQuestions: %v", err)
	}
	if len(result.Questions) != 20 {
		t.Fatalf("selected %d questions, want 20", len(result.Questions))
	}

	seen := map[string]bool{}
	for _, id := range ids(result.Questions) {
		if seen[id] {
			t.Fatalf("duplicate question %s", id)
		}
		seen[id] = true
	}

	natural, _ := bank.Find(context.Background(), models.QuestionFilter{ActiveOnly: true})
	if reflect.DeepEqual(ids(result.Questions), ids(natural)) {
		t.Error("selection kept the store's natural order")
	}
}

func TestSelectQuestionsRespectsTargets(t *testing.T) {
	bank := buildBank(
		bankSpec{n: 6, bigIdea: 1, qType: models.TypeAlgorithm, difficulty: models.DifficultyEasy},
		bankSpec{n: 6, bigIdea: 1, qType: models.TypeCodeAnalysis, difficulty: models.DifficultyHard},
		bankSpec{n: 6, bigIdea: 2, qType: models.TypeAlgorithm, difficulty: models.DifficultyHard},
	)
	selector := NewSelector(bank, rand.New(rand.NewSource(1)))

	dist := models.Distribution{
		BigIdeas:      map[models.BigIdea]int{1: 4, 2: 2},
		QuestionTypes: map[models.QuestionType]int{models.TypeAlgorithm: 4, models.TypeCodeAnalysis: 2},
		Difficulties:  map[models.Difficulty]int{models.DifficultyEasy: 2, models.DifficultyHard: 4},
	}
	result, err := selector.SelectQuestions(context.Background(), dist, 6)
	if err != nil {
		t.Fatalf("SelectQuestions: %v", err)
	}
	if result.Backfilled != 0 {
		t.Errorf("backfilled %d, want 0", result.Backfilled)
	}
	want := models.Distribution{
		BigIdeas:      map[models.BigIdea]int{1: 4, 2: 2},
		QuestionTypes: map[models.QuestionType]int{models.TypeAlgorithm: 4, models.TypeCodeAnalysis: 2},
		Difficulties:  map[models.Difficulty]int{models.DifficultyEasy: 2, models.DifficultyHard: 4},
	}
	if !reflect.DeepEqual(result.Achieved, want) {
		t.Errorf("achieved = %+v, want %+v", result.Achieved, want)
	}
}

func TestSelectQuestionsBackfill(t *testing.T) {
	bank := buildBank(
		bankSpec{n: 2, bigIdea: 1, qType: models.TypeAlgorithm, difficulty: models.DifficultyEasy},
		bankSpec{n: 5, bigIdea: 1, qType: models.TypeDataStructure, difficulty: models.DifficultyEasy},
	)
	dist := models.Distribution{
		BigIdeas:      map[models.BigIdea]int{1: 4},
		QuestionTypes: map[models.QuestionType]int{models.TypeAlgorithm: 4},
	}

	selector := NewSelector(bank, rand.New(rand.NewSource(1)))
	result, err := selector.SelectQuestions(context.Background(), dist, 4)
	if err != nil {
		t.Fatalf("SelectQuestions: %v", err)
	}
	if len(result.Questions) != 4 || result.Backfilled != 2 {
		t.Errorf("got %d questions with %d backfilled, want 4 with 2", len(result.Questions), result.Backfilled)
	}

	selector.Policy = Strict
	if _, err := selector.SelectQuestions(context.Background(), dist, 4); !errors.Is(err, models.ErrDistributionUnmet) {
		t.Errorf("strict policy: expected ErrDistributionUnmet, got %v", err)
	}
}

func TestSelectQuestionsBackfillsFromWholePool(t *testing.T) {
	bank := buildBank(
		bankSpec{n: 2, bigIdea: 3, qType: models.TypeAlgorithm, difficulty: models.DifficultyMedium},
		bankSpec{n: 10, bigIdea: 1, qType: models.TypeAlgorithm, difficulty: models.DifficultyMedium},
	)
	selector := NewSelector(bank, rand.New(rand.NewSource(1)))

	result, err := selector.SelectQuestions(context.Background(), models.Distribution{BigIdeas: map[models.BigIdea]int{3: 5}}, 5)
	if err != nil {
		t.Fatalf("SelectQuestions: %v", err)
	}
	if len(result.Questions) != 5 {
		t.Fatalf("selected %d questions, want 5", len(result.Questions))
	}
	counts := map[models.BigIdea]int{}
	for _, q := range result.Questions {
		counts[q.BigIdea]++
	}
	if counts[3] != 2 || counts[1] != 3 {
		t.Errorf("big idea counts = %v, want both big idea 3 questions plus 3 from big idea 1", counts)
	}
	if result.Backfilled != 3 {
		t.Errorf("backfilled = %d, want 3", result.Backfilled)
	}

	selector.Policy = Strict
	if _, err := selector.SelectQuestions(context.Background(), models.Distribution{BigIdeas: map[models.BigIdea]int{3: 5}}, 5); err == nil {
		t.Error("strict selection filled a short big idea")
	}
}

func TestSelectQuestionsSkipsInactiveAndShortBank(t *testing.T) {
	bank := buildBank(
		bankSpec{n: 3, bigIdea: 2, qType: models.TypeAlgorithm, difficulty: models.DifficultyEasy},
		bankSpec{n: 4, bigIdea: 2, qType: models.TypeAlgorithm, difficulty: models.DifficultyEasy, inactive: true},
	)
	selector := NewSelector(bank, nil)

	dist := CalculateDistribution(10, models.Weights{BigIdeas: APExamBigIdeaWeights()})
	result, err := selector.SelectQuestions(context.Background(), dist, 10)
	if err != nil {
		t.Fatalf("SelectQuestions: %v", err)
	}
	if len(result.Questions) != 3 {
		t.Errorf("selected %d questions, want the 3 active ones", len(result.Questions))
	}
	for _, q := range result.Questions {
		if !q.IsActive {
			t.Errorf("inactive question %s selected", q.ID)
		}
	}
}
