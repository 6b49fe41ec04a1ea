package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lingoquest/lingoquest/internal/logger"
)

// NewRouter registers every route on a new gin engine.
func NewRouter(h *Handler, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLog(log))

	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		v1.POST("/users", h.EnsureUser)
		v1.GET("/leaderboard", h.Leaderboard)

		user := v1.Group("/users/:id")
		user.GET("/progress", h.Progress)
		user.GET("/points", h.Points)
		user.GET("/collection", h.Collection)
		user.POST("/questions", h.Questions)
		user.POST("/answers", h.Answer)
		user.POST("/rounds", h.Round)
		user.POST("/spin", h.Spin)
		user.POST("/mystery-box", h.MysteryBox)
		user.POST("/gacha", h.Gacha)
		user.POST("/activities", h.Activity)
	}
	return router
}

func requestLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start).String(),
		)
	}
}
