package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
	"github.com/harentsoaR/hospital-api/internal/middleware"
	"github.com/harentsoaR/hospital-api/internal/models"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

type RouterConfig struct {
	CORSOrigins []string
	BodyLimit   int64
}

func NewRouter(h *Handler, log *logrus.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(middleware.BodyLimit(cfg.BodyLimit))

	r.NoRoute(func(c *gin.Context) { utils.Fail(c, apperrors.ErrNotFound) })

	r.GET("/health", h.Health)

	api := r.Group("/api/v1")

	// --- Auth ---
	auth := api.Group("/auths")
	{
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh-token", h.RefreshToken)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(h.Tokens))
	{
		protected.POST("/auths/logout", h.Logout)
		protected.GET("/auths/me", h.GetCurrentUser)
		protected.GET("/audit-logs", h.ListAuditLogs)
	}

	// --- Resources ---
	NewResourceHandler(h.Resources.Users, "User",
		func() models.Input[models.User] { return &models.UserInput{} },
		func() models.Patch { return &models.UserPatch{} },
	).Register(protected.Group("/users"))

	NewResourceHandler(h.Resources.Hospitals, "Hospital",
		func() models.Input[models.Hospital] { return &models.HospitalInput{} },
		func() models.Patch { return &models.HospitalPatch{} },
	).Register(protected.Group("/hospitals"))

	NewResourceHandler(h.Resources.Patients, "Patient",
		func() models.Input[models.Patient] { return &models.PatientInput{} },
		func() models.Patch { return &models.PatientPatch{} },
	).Register(protected.Group("/patients"))

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	wildcard := len(origins) == 0
	for _, o := range origins {
		wildcard = wildcard || o == "*"
	}
	if wildcard {
		// browsers refuse credentials with a wildcard origin
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
