package handlers

import (
	"strconv"
	"strings"

	"apcsp-quiz/internal/generator"
	"apcsp-quiz/internal/lifecycle"
	"apcsp-quiz/internal/middleware"
	"apcsp-quiz/internal/models"
	"apcsp-quiz/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type QuizHandler struct {
	Generator *generator.QuizGenerator
	Lifecycle *lifecycle.Manager
}

func NewQuizHandler(g *generator.QuizGenerator, m *lifecycle.Manager) *QuizHandler {
	return &QuizHandler{Generator: g, Lifecycle: m}
}

type generateRequest struct {
	models.QuizConfig
	Performance *models.UserPerformance `json:"performance,omitempty"`
}

func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	filter := models.QuizFilter{
		Category:    models.QuizCategory(c.Query("category")),
		Subcategory: c.Query("subcategory"),
		CreatedFor:  c.Query("created_for"),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, models.QuizStatus(strings.TrimSpace(s)))
		}
	}
	limit, skip, err := pagination(c)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid pagination", err)
		return
	}
	filter.Limit, filter.Skip = limit, skip

	quizzes, err := h.Lifecycle.ListQuizzes(c.Request.Context(), filter)
	if err != nil {
		utils.HandleError(c, "Failed to list quizzes", err)
		return
	}
	utils.SuccessResponse(c, "Quizzes retrieved", quizzes)
}

func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quiz, questions, err := h.Lifecycle.GetQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, "Failed to get quiz", err)
		return
	}
	utils.SuccessResponse(c, "Quiz retrieved", gin.H{"quiz": quiz, "questions": questions})
}

func (h *QuizHandler) bindConfig(c *gin.Context) (models.QuizConfig, *models.UserPerformance, bool) {
	var req generateRequest
	// An empty body asks for the default quiz.
	if c.Request.ContentLength == 0 {
		return req.QuizConfig, nil, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err)
		return models.QuizConfig{}, nil, false
	}
	cfg := req.QuizConfig
	if cfg.Category == models.CategoryCustom {
		userID := middleware.UserID(c)
		cfg.CreatedFor = userID
		cfg.Subcategory = userID
	}
	return cfg, req.Performance, true
}

func (h *QuizHandler) GenerateQuiz(c *gin.Context) {
	cfg, perf, ok := h.bindConfig(c)
	if !ok {
		return
	}
	generated, err := h.Generator.GenerateRegularQuiz(c.Request.Context(), cfg, perf)
	if err != nil {
		utils.HandleError(c, "Failed to generate quiz", err)
		return
	}
	utils.CreatedResponse(c, "Quiz generated", generated)
}

func (h *QuizHandler) PreviewQuiz(c *gin.Context) {
	cfg, perf, ok := h.bindConfig(c)
	if !ok {
		return
	}
	preview, err := h.Generator.PreviewQuiz(c.Request.Context(), cfg, perf)
	if err != nil {
		utils.HandleError(c, "Failed to preview quiz", err)
		return
	}
	utils.SuccessResponse(c, "Quiz preview", preview)
}

func (h *QuizHandler) StartQuiz(c *gin.Context) {
	entry, quiz, err := h.Lifecycle.Start(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		utils.HandleError(c, "Failed to start quiz", err)
		return
	}
	utils.SuccessResponse(c, "Quiz started", gin.H{"progress": entry, "quiz": quiz})
}

func (h *QuizHandler) ResumeQuiz(c *gin.Context) {
	entry, quiz, err := h.Lifecycle.Resume(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		utils.HandleError(c, "Failed to resume quiz", err)
		return
	}
	utils.SuccessResponse(c, "Quiz resumed", gin.H{"progress": entry, "quiz": quiz})
}

func (h *QuizHandler) UpdateProgress(c *gin.Context) {
	var in lifecycle.ProgressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err)
		return
	}
	entry, err := h.Lifecycle.UpdateProgress(c.Request.Context(), c.Param("id"), middleware.UserID(c), in)
	if err != nil {
		utils.HandleError(c, "Failed to save progress", err)
		return
	}
	utils.SuccessResponse(c, "Progress saved", entry)
}

func (h *QuizHandler) CompleteQuiz(c *gin.Context) {
	var in lifecycle.CompletionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err)
		return
	}
	result, quiz, err := h.Lifecycle.Complete(c.Request.Context(), c.Param("id"), middleware.UserID(c), in)
	if err != nil {
		utils.HandleError(c, "Failed to complete quiz", err)
		return
	}
	utils.SuccessResponse(c, "Quiz completed", gin.H{"result": result, "quiz": quiz})
}

func (h *QuizHandler) AbandonQuiz(c *gin.Context) {
	quiz, err := h.Lifecycle.Abandon(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		utils.HandleError(c, "Failed to abandon quiz", err)
		return
	}
	utils.SuccessResponse(c, "Quiz abandoned", quiz)
}

func (h *QuizHandler) CanRetake(c *gin.Context) {
	eligibility, err := h.Lifecycle.CanRetakeQuiz(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		utils.HandleError(c, "Failed to check retake eligibility", err)
		return
	}
	utils.SuccessResponse(c, "Retake eligibility", eligibility)
}

func (h *QuizHandler) RetakeQuiz(c *gin.Context) {
	generated, err := h.Lifecycle.Retake(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		utils.HandleError(c, "Failed to retake quiz", err)
		return
	}
	utils.CreatedResponse(c, "Retake quiz generated", generated)
}

func (h *QuizHandler) AttemptStat(c *gin.Context) {
	stat, err := h.Lifecycle.AttemptStat(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		utils.HandleError(c, "Failed to get attempt", err)
		return
	}
	utils.SuccessResponse(c, "Attempt retrieved", stat)
}

// pagination reads limit and skip, capping limit at maxPageSize.
func pagination(c *gin.Context) (int64, int64, error) {
	limit := int64(defaultPageSize)
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 1 {
			return 0, 0, errInvalidQuery("limit", raw)
		}
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	var skip int64
	if raw := c.Query("skip"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return 0, 0, errInvalidQuery("skip", raw)
		}
		skip = v
	}
	return limit, skip, nil
}
