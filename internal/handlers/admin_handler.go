package handlers

import (
	"apcsp-quiz/internal/lifecycle"
	"apcsp-quiz/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes pool and maintenance operations.
type AdminHandler struct {
	Lifecycle *lifecycle.Manager
	Pools     *lifecycle.PoolKeeper
}

func NewAdminHandler(m *lifecycle.Manager, p *lifecycle.PoolKeeper) *AdminHandler {
	return &AdminHandler{Lifecycle: m, Pools: p}
}

func (h *AdminHandler) InitializePools(c *gin.Context) {
	results := h.Pools.InitializePools(c.Request.Context())
	utils.SuccessResponse(c, "Quiz pools initialized", results)
}

func (h *AdminHandler) ArchiveOldQuizzes(c *gin.Context) {
	n, err := h.Lifecycle.ArchiveOldQuizzes(c.Request.Context())
	if err != nil {
		utils.HandleError(c, "Failed to archive quizzes", err)
		return
	}
	utils.SuccessResponse(c, "Old quizzes archived", gin.H{"archived": n})
}

func (h *AdminHandler) CleanupExpiredQuizzes(c *gin.Context) {
	n, err := h.Lifecycle.CleanupExpiredQuizzes(c.Request.Context())
	if err != nil {
		utils.HandleError(c, "Failed to delete expired quizzes", err)
		return
	}
	utils.SuccessResponse(c, "Expired quizzes deleted", gin.H{"deleted": n})
}

func (h *AdminHandler) AbandonedQuizzes(c *gin.Context) {
	quizzes, err := h.Lifecycle.GetAbandonedQuizzes(c.Request.Context())
	if err != nil {
		utils.HandleError(c, "Failed to list abandoned quizzes", err)
		return
	}
	utils.SuccessResponse(c, "Abandoned quizzes", quizzes)
}
