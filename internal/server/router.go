package server

import (
	"net/http"

	"crm-integrator/internal/config"
	"crm-integrator/internal/handlers"
	"crm-integrator/internal/middleware"
	"crm-integrator/internal/order"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config, pipeline *order.Pipeline) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("crm_session", store))

	// ЗАЯВКИ
	r.POST("/api/orders/:product", handlers.SubmitOrder(pipeline))

	// AUTH
	r.POST("/admin/login", handlers.Login)
	r.POST("/admin/logout", handlers.Logout)

	// ЖУРНАЛ ЗАЯВОК
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuth())
	admin.GET("/submissions", handlers.ListSubmissions)
	admin.GET("/submissions/:id", handlers.GetSubmission)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
