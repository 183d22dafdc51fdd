package handlers

import (
	"time"

	"apcsp-quiz/internal/middleware"
	"apcsp-quiz/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Quiz     *QuizHandler
	Question *QuestionHandler
	Admin    *AdminHandler
}

// NewRouter wires every route onto a gin engine.
func NewRouter(h *Handlers, auth *middleware.Auth, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", middleware.UserIDHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, "ok", gin.H{"time": time.Now().UTC()})
	})

	public := r.Group("/public/quiz")
	{
		public.GET("/quizzes", h.Quiz.ListQuizzes)
		public.GET("/quizzes/:id", h.Quiz.GetQuiz)
		public.GET("/questions", h.Question.ListQuestions)
		public.GET("/questions/stats", h.Question.BankStats)
		public.GET("/questions/:id", h.Question.GetQuestion)
	}

	protected := r.Group("/protected/quiz", auth.RequireUser())
	{
		protected.POST("/quizzes/generate", h.Quiz.GenerateQuiz)
		protected.POST("/quizzes/preview", h.Quiz.PreviewQuiz)
		protected.POST("/quizzes/:id/start", h.Quiz.StartQuiz)
		protected.GET("/quizzes/:id/resume", h.Quiz.ResumeQuiz)
		protected.PUT("/quizzes/:id/progress", h.Quiz.UpdateProgress)
		protected.POST("/quizzes/:id/complete", h.Quiz.CompleteQuiz)
		protected.POST("/quizzes/:id/abandon", h.Quiz.AbandonQuiz)
		protected.GET("/quizzes/:id/can-retake", h.Quiz.CanRetake)
		protected.POST("/quizzes/:id/retake", h.Quiz.RetakeQuiz)
		protected.GET("/quizzes/:id/stat", h.Quiz.AttemptStat)
	}

	admin := protected.Group("/admin", auth.RequireAdmin())
	{
		admin.POST("/questions", h.Question.CreateQuestion)
		admin.PUT("/questions/:id", h.Question.UpdateQuestion)
		admin.DELETE("/questions/:id", h.Question.DeactivateQuestion)
		admin.POST("/questions/generate", h.Question.GenerateQuestions)
		admin.POST("/questions/cleanup", h.Question.DiversityCleanup)
		admin.POST("/pools/init", h.Admin.InitializePools)
		admin.POST("/maintenance/archive", h.Admin.ArchiveOldQuizzes)
		admin.POST("/maintenance/cleanup", h.Admin.CleanupExpiredQuizzes)
		admin.GET("/quizzes/abandoned", h.Admin.AbandonedQuizzes)
	}

	return r
}
