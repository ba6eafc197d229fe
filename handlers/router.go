package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic-management/clinic"
	"clinic-management/middleware"
	"clinic-management/models"
	"clinic-management/monitoring"
	"clinic-management/session"
	"clinic-management/store"
)

// HealthCheck checks one dependency for GET /health.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Store        *store.Store
	Guard        *session.Guard
	Secretary    *clinic.Secretary
	Doctor       *clinic.Doctor
	Search       *PatientSearch
	Logger       *zap.Logger
	CORSOrigins  []string
	HealthChecks map[string]HealthCheck
	Now          func() time.Time
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Search == nil {
		cfg.Search = NewPatientSearch(nil, "", cfg.Store, cfg.Logger)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.PrometheusMetrics())
	router.Use(middleware.ErrorHandler(cfg.Logger))

	router.GET("/metrics", gin.WrapH(monitoring.Handler()))

	auth := NewAuthHandler(cfg.Guard)
	patients := NewPatientHandler(cfg.Secretary, cfg.Search)
	appointments := NewAppointmentHandler(cfg.Secretary, cfg.Now)
	statistics := NewStatsHandler(cfg.Secretary, cfg.Now)
	doctor := NewDoctorHandler(cfg.Doctor, cfg.Search, cfg.Now)
	settings := NewSettingsHandler(cfg.Store)

	api := router.Group("/api/v1")
	{
		api.GET("/health", healthHandler(cfg.Store, cfg.HealthChecks))

		api.POST("/auth/login", auth.Login)
		api.POST("/auth/logout", auth.Logout)
		api.GET("/auth/session", auth.Session)

		secretary := api.Group("", middleware.RequireRole(cfg.Guard, models.RoleSecretary))
		{
			secretary.GET("/patients", patients.ListPatients)
			secretary.POST("/patients", patients.CreatePatient)
			secretary.GET("/patients/search", patients.SearchPatients)
			secretary.PUT("/patients/:id", patients.UpdatePatient)
			secretary.GET("/patients/:id/appointments", patients.PatientAppointments)

			secretary.POST("/appointments", appointments.BookAppointment)
			secretary.GET("/appointments", appointments.ListAppointments)
			secretary.GET("/appointments/today", appointments.TodayAppointments)
			secretary.POST("/appointments/:id/confirm", appointments.ConfirmAppointment)
			secretary.POST("/appointments/:id/cancel", appointments.CancelAppointment)
			secretary.POST("/appointments/:id/reschedule", appointments.RescheduleAppointment)
			secretary.POST("/reminders", appointments.SendReminders)

			secretary.GET("/stats/daily", statistics.Daily)
			secretary.GET("/stats/monthly", statistics.Monthly)
			secretary.GET("/stats/yearly", statistics.Yearly)
		}

		doc := api.Group("/doctor", middleware.RequireRole(cfg.Guard, models.RoleDoctor))
		{
			doc.GET("/patients/:id/file", doctor.PatientFile)
			doc.GET("/patients/search", doctor.SearchPatients)
			doc.POST("/follow-ups", doctor.AddFollowUp)
			doc.GET("/stats", doctor.Stats)
			doc.GET("/today", doctor.TodayPatients)
			doc.POST("/reset", doctor.Reset)
			doc.POST("/initialize", doctor.Initialize)
		}

		shared := api.Group("", middleware.RequireRole(cfg.Guard))
		{
			shared.GET("/settings", settings.GetSettings)
			shared.PUT("/settings", settings.SaveSettings)
			shared.PUT("/users/:role/password", auth.ChangePassword)
		}
	}

	return router
}

func healthHandler(s *store.Store, checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		details := gin.H{"storage": s.Backend()}
		status := http.StatusOK
		var failures gin.H
		for name, check := range checks {
			if err := check(ctx); err != nil {
				details[name] = "unavailable"
				if failures == nil {
					failures = gin.H{}
				}
				failures[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			details[name] = "available"
		}

		if status != http.StatusOK {
			c.JSON(status, gin.H{"status": "degraded", "details": details, "errors": failures})
			return
		}
		c.JSON(status, gin.H{"status": "ok", "details": details})
	}
}
