package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"apcsp-quiz/internal/models"
	"apcsp-quiz/internal/questiongen"
	"apcsp-quiz/internal/service"
	"apcsp-quiz/pkg/utils"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	Service *service.QuestionService
	// Pipeline is nil when no completion endpoint is configured.
	Pipeline *questiongen.Pipeline
}

func NewQuestionHandler(s *service.QuestionService, p *questiongen.Pipeline) *QuestionHandler {
	return &QuestionHandler{Service: s, Pipeline: p}
}

func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	filter, err := questionFilter(c)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid query", err)
		return
	}
	questions, err := h.Service.ListQuestions(c.Request.Context(), filter)
	if err != nil {
		utils.HandleError(c, "Failed to list questions", err)
		return
	}
	utils.SuccessResponse(c, "Questions retrieved", questions)
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	question, err := h.Service.GetQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, "Failed to get question", err)
		return
	}
	utils.SuccessResponse(c, "Question retrieved", question)
}

func (h *QuestionHandler) BankStats(c *gin.Context) {
	stats, err := h.Service.BankStats(c.Request.Context())
	if err != nil {
		utils.HandleError(c, "Failed to get question statistics", err)
		return
	}
	utils.SuccessResponse(c, "Question statistics", stats)
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var question models.Question
	if err := c.ShouldBindJSON(&question); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err)
		return
	}
	if err := h.Service.CreateQuestion(c.Request.Context(), &question); err != nil {
		utils.HandleError(c, "Failed to create question", err)
		return
	}
	utils.CreatedResponse(c, "Question created", question)
}

func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	var patch models.QuestionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err)
		return
	}
	question, err := h.Service.UpdateQuestion(c.Request.Context(), c.Param("id"), &patch)
	if err != nil {
		utils.HandleError(c, "Failed to update question", err)
		return
	}
	utils.SuccessResponse(c, "Question updated", question)
}

func (h *QuestionHandler) DeactivateQuestion(c *gin.Context) {
	if err := h.Service.DeactivateQuestion(c.Request.Context(), c.Param("id")); err != nil {
		utils.HandleError(c, "Failed to deactivate question", err)
		return
	}
	utils.SuccessResponse(c, "Question deactivated", gin.H{"id": c.Param("id")})
}

func (h *QuestionHandler) GenerateQuestions(c *gin.Context) {
	if h.Pipeline == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Question generation is not configured", nil)
		return
	}
	var req questiongen.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err)
		return
	}
	result, err := h.Pipeline.GenerateBatchQuestions(c.Request.Context(), req)
	if err != nil {
		utils.HandleError(c, "Failed to generate questions", err)
		return
	}
	utils.SuccessResponse(c, "Question batch finished", result)
}

func (h *QuestionHandler) DiversityCleanup(c *gin.Context) {
	result, err := h.Service.DiversityCleanup(c.Request.Context())
	if err != nil {
		utils.HandleError(c, "Failed to clean up questions", err)
		return
	}
	utils.SuccessResponse(c, "Duplicate questions deactivated", result)
}

// questionFilter reads the list query. Only active questions are listed
// unless active=false is passed.
func questionFilter(c *gin.Context) (models.QuestionFilter, error) {
	filter := models.QuestionFilter{
		QuestionType: models.QuestionType(c.Query("type")),
		Difficulty:   models.Difficulty(c.Query("difficulty")),
		Topic:        c.Query("topic"),
		Tag:          c.Query("tag"),
		ActiveOnly:   true,
	}
	if raw := c.Query("big_idea"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || !models.BigIdea(v).Valid() {
			return filter, errInvalidQuery("big_idea", raw)
		}
		filter.BigIdea = models.BigIdea(v)
	}
	if filter.QuestionType != "" && !filter.QuestionType.Valid() {
		return filter, errInvalidQuery("type", c.Query("type"))
	}
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		return filter, errInvalidQuery("difficulty", c.Query("difficulty"))
	}
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errInvalidQuery("active", raw)
		}
		filter.ActiveOnly = v
	}
	limit, skip, err := pagination(c)
	if err != nil {
		return filter, err
	}
	filter.Limit, filter.Skip = limit, skip
	return filter, nil
}

func errInvalidQuery(name, raw string) error {
	return fmt.Errorf("%w: invalid %s %q", models.ErrValidation, name, raw)
}
