package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/zaqqye/tg_contact_form/internal/config"
	"github.com/zaqqye/tg_contact_form/internal/controllers"
	"github.com/zaqqye/tg_contact_form/internal/middleware"
	"github.com/zaqqye/tg_contact_form/internal/ws"
)

type Controllers struct {
	Form        *controllers.FormController
	Auth        *controllers.AuthController
	Submissions *controllers.SubmissionController
	Settings    *controllers.SettingsController
	Admins      *controllers.AdminController
}

func Register(r *gin.Engine, db *gorm.DB, cfg *config.Config, ctrl Controllers, hub *ws.SubmissionHub) {
	r.SetHTMLTemplate(controllers.Templates())

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.Version})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public form
	r.GET("/form", ctrl.Form.RenderForm)
	form := r.Group("/api/v1/form")
	{
		form.GET("", ctrl.Form.Schema)
		form.POST("/submit", ctrl.Form.Submit)
	}

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/login", ctrl.Auth.Login)
		auth.POST("/refresh", ctrl.Auth.Refresh)
	}

	// Protected
	authMW := middleware.AuthMiddleware(db, middleware.AuthConfig{JWTSecret: cfg.JWTSecret})
	api := r.Group("/api/v1", authMW)
	{
		api.GET("/auth/me", ctrl.Auth.Me)
		api.POST("/auth/logout", ctrl.Auth.Logout)

		admin := api.Group("/admin", middleware.RequireRoles(middleware.RoleAdmin))
		{
			admin.GET("/settings", ctrl.Settings.Get)
			admin.PUT("/settings", ctrl.Settings.Update)

			admin.GET("/requests", ctrl.Submissions.ListRequests)
			admin.GET("/requests/live", ws.LiveFeedHandler(hub))
			admin.GET("/requests/:id", ctrl.Submissions.GetRequest)
			admin.DELETE("/requests/:id", ctrl.Submissions.DeleteRequest)
			admin.GET("/requests/:id/delete", ctrl.Submissions.ConfirmDelete)

			admin.GET("/analytics", ctrl.Submissions.Analytics)

			admin.GET("/users", ctrl.Admins.ListAdmins)
			admin.POST("/users", ctrl.Admins.CreateAdmin)
			admin.GET("/users/:user_id", ctrl.Admins.GetAdmin)
			admin.PUT("/users/:user_id", ctrl.Admins.UpdateAdmin)
			admin.DELETE("/users/:user_id", ctrl.Admins.DeleteAdmin)
		}
	}
}
