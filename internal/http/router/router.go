package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/config"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/handler"
)

// ResumePublicPrefix: по этому пути раздаются загруженные резюме.
const ResumePublicPrefix = "/uploads/resumes"

// Handlers собирает все HTTP обработчики API.
type Handlers struct {
	Auth         *handler.AuthHandler
	Verification *handler.VerificationHandler
	Skill        *handler.SkillHandler
	Gig          *handler.GigHandler
	Application  *handler.ApplicationHandler
	Bookmark     *handler.BookmarkHandler
	Profile      *handler.ProfileHandler
	Ledger       *handler.LedgerHandler
	Notification *handler.NotificationHandler
	Conversation *handler.ConversationHandler
	Report       *handler.ReportHandler
	Sweep        *handler.SweepHandler
	WS           *handler.WSHandler
	Health       *handler.HealthHandler
}

func SetupRouter(cfg *config.Config, tokens middleware.AccessTokenParser, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.StaticFS(ResumePublicPrefix, http.Dir(cfg.ResumeStoragePath))

	employer := middleware.RequireRole(valueobject.RoleEmployer)
	freelancer := middleware.RequireRole(valueobject.RoleFreelancer)
	admin := middleware.RequireRole(valueobject.RoleAdmin)
	writeLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit*6, cfg.RateLimitPeriod)

	api := r.Group("/api")
	api.GET("/health", h.Health.Health)
	api.GET("/ws", h.WS.Handle)

	internal := api.Group("/internal", middleware.SweepToken(cfg.SweepToken))
	internal.POST("/sweeps/:kind", h.Sweep.Run)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))

	protected.GET("/auth/me", h.Auth.Me)
	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/users", admin, h.Auth.ListUsers)

	verification := protected.Group("/verification")
	{
		verification.GET("/status", h.Verification.Status)
		verification.POST("/email/verify", h.Verification.VerifyEmail)
		verification.POST("/phone/verify", h.Verification.VerifyPhone)
	}

	skills := protected.Group("/skills")
	{
		skills.GET("", h.Skill.ListSkills)
		skills.POST("", admin, h.Skill.CreateSkill)
		skills.GET("/:id", middleware.UUIDValidator("id"), h.Skill.GetSkill)
		skills.PUT("/:id", admin, middleware.UUIDValidator("id"), h.Skill.RenameSkill)
		skills.DELETE("/:id", admin, middleware.UUIDValidator("id"), h.Skill.DeleteSkill)
	}
	protected.GET("/my-skills", freelancer, h.Skill.ListMySkills)
	protected.PUT("/my-skills", freelancer, h.Skill.ReplaceMySkills)

	gigs := protected.Group("/gigs")
	{
		gigs.GET("", h.Gig.ListGigs)
		gigs.POST("", employer, writeLimit, h.Gig.CreateGig)

		gig := gigs.Group("/:id", middleware.UUIDValidator("id"))
		gig.GET("", h.Gig.GetGig)
		gig.PATCH("", employer, h.Gig.UpdateGig)
		gig.DELETE("", employer, h.Gig.DeleteGig)
		gig.PATCH("/close", employer, h.Gig.CloseGig)
		gig.PATCH("/workers", employer, h.Gig.UpdateWorkers)
		gig.POST("/bookmark", freelancer, h.Bookmark.Toggle)

		gig.GET("/applications", employer, h.Application.ListForGig)
		gig.POST("/applications", freelancer, writeLimit, h.Application.Apply)
		app := gig.Group("/applications/:applicationId", employer, middleware.UUIDValidator("applicationId"))
		app.PATCH("/status", h.Application.UpdateStatus)
		app.POST("/review", h.Ledger.RecordReview)
	}
	protected.GET("/bookmarks/gigs", freelancer, h.Bookmark.List)

	profile := protected.Group("/freelancer-profile", freelancer)
	{
		profile.GET("", h.Profile.GetProfile)
		profile.PATCH("", h.Profile.UpdateProfile)
		profile.POST("/resume", writeLimit, h.Profile.UploadResume)
	}

	myApps := protected.Group("/my-applications", freelancer)
	{
		myApps.GET("", h.Application.ListMine)
		myApps.GET("/counts", h.Application.CountMine)
		myApps.GET("/completed-summary", h.Application.CompletedSummary)
		myApps.GET("/:id", middleware.UUIDValidator("id"), h.Application.GetMine)
		myApps.POST("/:id/withdraw", middleware.UUIDValidator("id"), h.Application.Withdraw)
	}

	myPenalties := protected.Group("/my-penalties")
	{
		myPenalties.GET("", h.Ledger.ListMyPenalties)
		myPenalties.GET("/:id", middleware.UUIDValidator("id"), h.Ledger.GetMyPenalty)
		myPenalties.POST("/:id/appeal", middleware.UUIDValidator("id"), h.Ledger.Appeal)
	}
	protected.POST("/penalties", middleware.RequireRole(valueobject.RoleAdmin, valueobject.RoleEmployer), h.Ledger.IssuePenalty)

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/unread-count", h.Notification.UnreadCount)
		notifications.PATCH("/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkRead)
		notifications.POST("/read-all", h.Notification.MarkAllRead)
	}

	conversations := protected.Group("/conversations")
	{
		conversations.GET("", h.Conversation.ListConversations)
		conversations.POST("", writeLimit, h.Conversation.StartConversation)

		conv := conversations.Group("/:id", middleware.UUIDValidator("id"))
		conv.PATCH("/read", h.Conversation.MarkRead)
		conv.GET("/unread-count", h.Conversation.UnreadCount)
		conv.GET("/messages", h.Conversation.ListMessages)
		conv.POST("/messages", writeLimit, h.Conversation.SendMessage)
		conv.PATCH("/messages/:messageId", middleware.UUIDValidator("messageId"), h.Conversation.EditMessage)
		conv.DELETE("/messages/:messageId", middleware.UUIDValidator("messageId"), h.Conversation.DeleteMessage)
	}

	protected.POST("/reports", writeLimit, h.Report.CreateReport)
	protected.GET("/reports", h.Report.ListMyReports)

	return r
}
