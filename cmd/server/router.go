package main

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/config"
	"github.com/yukikurage/timecard-api/internal/constants"
	"github.com/yukikurage/timecard-api/internal/handlers"
	"github.com/yukikurage/timecard-api/internal/lock"
	"github.com/yukikurage/timecard-api/internal/logger"
	"github.com/yukikurage/timecard-api/internal/middleware"
	"github.com/yukikurage/timecard-api/internal/photo"
	"github.com/yukikurage/timecard-api/internal/ratelimit"
	"github.com/yukikurage/timecard-api/internal/repository"
	"github.com/yukikurage/timecard-api/internal/services"
	"github.com/yukikurage/timecard-api/internal/timezone"
)

func newRouter(cfg *config.Config, db *gorm.DB, store sessions.Store, locker lock.Locker, limiter ratelimit.Limiter) *gin.Engine {
	loc := timezone.Business()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	jobRepo := repository.NewJobRepository(db)
	recordRepo := repository.NewTimeRecordRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	// Services
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	photos := photo.NewProcessor(photo.NewStore(cfg), cfg.PhotoPrefix, cfg.PhotoMaxBytes, cfg.PhotoMaxDimension)

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	userService := services.NewUserService(userRepo, teamRepo)
	teamService := services.NewTeamService(teamRepo, userRepo, jobRepo, recordRepo, loc, cfg.DefaultDailyHourLimit)
	jobService := services.NewJobService(jobRepo, userRepo)
	recordService := services.NewRecordService(recordRepo, jobRepo, userRepo, teamRepo, locker, photos, loc)
	statsService := services.NewStatisticsService(recordRepo, jobRepo, userRepo, teamRepo, loc, cfg.DefaultDailyHourLimit)
	scheduleService := services.NewScheduleService(scheduleRepo, jobRepo, userRepo, teamRepo, aiService, loc)
	exportService := services.NewExportService(recordRepo, jobRepo, userRepo, teamRepo, loc, cfg.DefaultDailyHourLimit)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService)
	jobHandler := handlers.NewJobHandler(jobService)
	recordHandler := handlers.NewRecordHandler(recordService, exportService)
	statsHandler := handlers.NewStatsHandler(statsService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.BodyLimit(cfg.MaxRequestBytes))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Timecard API is running",
		})
	})

	requireAuth := middleware.RequireAuth(authService)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", middleware.RateLimit(limiter, "register"), authHandler.Register)
			auth.POST("/login", middleware.RateLimit(limiter, "login"), authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("/:id", userHandler.GetUser)
			users.PATCH("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdminToken(cfg.AdminToken))
		{
			admin.PUT("/users/:id/premium", userHandler.SetPremium)
		}

		teams := api.Group("/teams")
		teams.Use(requireAuth)
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.POST("/join", teamHandler.JoinTeam)
			teams.POST("/leave", teamHandler.LeaveTeam)
			teams.GET("/:id", middleware.RequireTeamAccess(), teamHandler.GetTeam)
			teams.GET("/:id/members", middleware.RequireTeamAccess(), teamHandler.GetMembers)
			teams.GET("/:id/employees", middleware.RequireTeamAccess(), teamHandler.GetEmployees)
			teams.GET("/:id/rollup", middleware.RequireTeamAccess(), middleware.RequireTeamManager(), teamHandler.GetRollup)
			teams.POST("/:id/regenerate-code", middleware.RequireTeamAccess(), middleware.RequireTeamManager(), teamHandler.RegenerateInviteCode)
			teams.DELETE("/:id/members/:user_id", middleware.RequireTeamAccess(), middleware.RequireTeamManager(), teamHandler.RemoveMember)
		}

		jobs := api.Group("/jobs")
		jobs.Use(requireAuth)
		{
			jobs.GET("", jobHandler.ListJobs)
			jobs.POST("", jobHandler.CreateJob)
			jobs.PATCH("/:id", jobHandler.UpdateJob)
			jobs.DELETE("/:id", jobHandler.RetireJob)
			jobs.POST("/:id/restore", jobHandler.RestoreJob)
		}

		records := api.Group("/records")
		records.Use(requireAuth)
		{
			records.POST("/clock-in", recordHandler.ClockIn)
			records.POST("/clock-out", recordHandler.ClockOut)
			records.GET("/open", recordHandler.GetOpenRecord)
			records.GET("/status", recordHandler.GetStatus)
			records.GET("", recordHandler.ListRecords)
			records.GET("/export", recordHandler.ExportRecords)
			records.GET("/:id", middleware.RequireRecordAccess(), recordHandler.GetRecord)
			records.PATCH("/:id", middleware.RequireRecordAccess(), recordHandler.UpdateRecord)
			records.DELETE("/:id", middleware.RequireRecordAccess(), recordHandler.DeleteRecord)
			records.GET("/:id/photos/:kind", middleware.RequireRecordAccess(), recordHandler.GetPhoto)
		}

		stats := api.Group("/stats")
		stats.Use(requireAuth)
		{
			stats.GET("", statsHandler.GetStatistics)
			stats.GET("/monthly", statsHandler.GetMonthly)
		}

		schedules := api.Group("/schedules")
		schedules.Use(requireAuth)
		{
			schedules.GET("", scheduleHandler.ListSchedules)
			schedules.GET("/team/:teamId", middleware.RequireTeamAccess(), scheduleHandler.ListTeamSchedules)
			schedules.POST("", scheduleHandler.CreateSchedule)
			schedules.POST("/generate", scheduleHandler.GenerateSchedules)
			schedules.PATCH("/:id", scheduleHandler.UpdateSchedule)
			schedules.DELETE("/:id", scheduleHandler.DeleteSchedule)
		}
	}

	return r
}
