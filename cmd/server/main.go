package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/auth"
	"github.com/ignatzorin/gigmarket-backend/internal/config"
	"github.com/ignatzorin/gigmarket-backend/internal/db"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/event"
	httpRouter "github.com/ignatzorin/gigmarket-backend/internal/http/router"
	"github.com/ignatzorin/gigmarket-backend/internal/infrastructure/events"
	"github.com/ignatzorin/gigmarket-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/handler"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/retry"
	"github.com/ignatzorin/gigmarket-backend/internal/storage"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/application"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/bookmark"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/conversation"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/gig"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/ledger"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/notification"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/report"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/skill"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/user"
	"github.com/ignatzorin/gigmarket-backend/internal/ws"
)

const skillCacheTTL = 10 * time.Minute

func main() {
	// Контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}
	log := logger.WithComponent("main")

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.DefaultPoolConfig())
	if err != nil {
		log.Fatalf("ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("ошибка миграций: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	resumes, err := storage.NewResumeStorage(cfg.ResumeStoragePath, httpRouter.ResumePublicPrefix, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("ошибка инициализации хранилища резюме: %v", err)
	}

	// Репозитории.
	userRepo := persistence.NewUserRepository(dbConn)
	profileRepo := persistence.NewProfileRepository(dbConn)
	revokedTokens := persistence.NewRevokedTokenRepository(dbConn)
	skillRepo := persistence.NewSkillRepository(dbConn)
	gigRepo := persistence.NewGigRepository(dbConn, cfg.LockTimeout)
	appRepo := persistence.NewApplicationRepository(dbConn)
	bookmarkRepo := persistence.NewBookmarkRepository(dbConn)
	reviewRepo := persistence.NewReviewRepository(dbConn)
	penaltyRepo := persistence.NewPenaltyRepository(dbConn)
	convRepo := persistence.NewConversationRepository(dbConn)
	msgRepo := persistence.NewMessageRepository(dbConn)
	notifRepo := persistence.NewNotificationRepository(dbConn)
	reportRepo := persistence.NewReportRepository(dbConn)

	// Вебсокеты и фоновая доставка уведомлений.
	hub := ws.NewHub()
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	notifyPolicy := retry.DefaultPolicy(uint64(cfg.NotifyMaxRetries))
	notifier := notification.NewNotifier(
		notification.NewFanOutGigUseCase(userRepo, notifRepo, hub, notifyPolicy),
		notification.NewNotifyApplicationStatusUseCase(notifRepo, hub, notifyPolicy),
		hub,
	)
	publisher := event.MultiPublisher{notifier}

	var producer *events.Producer
	if cfg.KafkaEnabled() {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaGigTopic)
		publisher = append(publisher, producer)
		log.WithFields(logrus.Fields{"brokers": cfg.KafkaBrokers, "topic": cfg.KafkaGigTopic}).Info("экспорт событий в Kafka включён")
	}

	skillCache := skill.NewListCache(skillCacheTTL)
	defer skillCache.Close()

	handlers := httpRouter.Handlers{
		Auth: handler.NewAuthHandler(
			user.NewRegisterUseCase(userRepo, profileRepo, tokens),
			user.NewLoginUseCase(userRepo, tokens),
			user.NewRefreshUseCase(userRepo, revokedTokens, tokens),
			user.NewLogoutUseCase(revokedTokens, tokens),
			user.NewMeUseCase(userRepo),
			user.NewListUsersUseCase(userRepo),
		),
		Verification: handler.NewVerificationHandler(
			user.NewGetVerificationStatusUseCase(userRepo),
			user.NewVerifyEmailUseCase(userRepo, userRepo),
			user.NewVerifyPhoneUseCase(userRepo, userRepo),
		),
		Skill: handler.NewSkillHandler(
			skill.NewListSkillsUseCase(skillRepo, skillCache),
			skill.NewGetSkillUseCase(skillRepo),
			skill.NewCreateSkillUseCase(skillRepo, skillCache),
			skill.NewRenameSkillUseCase(skillRepo, skillCache),
			skill.NewDeleteSkillUseCase(skillRepo, skillCache),
			skill.NewListMySkillsUseCase(skillRepo),
			skill.NewReplaceMySkillsUseCase(skillRepo),
		),
		Gig: handler.NewGigHandler(
			gig.NewCreateGigUseCase(gigRepo, skillRepo, publisher),
			gig.NewGetGigUseCase(gigRepo),
			gig.NewListGigsUseCase(gigRepo),
			gig.NewUpdateGigUseCase(gigRepo, skillRepo),
			gig.NewDeleteGigUseCase(gigRepo),
			gig.NewCloseGigUseCase(gigRepo),
			gig.NewUpdateWorkersNeededUseCase(gigRepo),
		),
		Application: handler.NewApplicationHandler(
			application.NewApplyUseCase(gigRepo),
			application.NewListForGigUseCase(gigRepo, appRepo),
			application.NewUpdateApplicationStatusUseCase(gigRepo, publisher),
			application.NewListMineUseCase(appRepo),
			application.NewGetMineUseCase(appRepo),
			application.NewCountMineUseCase(appRepo),
			application.NewCompletedSummaryUseCase(appRepo),
			application.NewWithdrawUseCase(appRepo),
		),
		Bookmark: handler.NewBookmarkHandler(
			bookmark.NewToggleBookmarkUseCase(bookmarkRepo, gigRepo),
			bookmark.NewListMyBookmarksUseCase(bookmarkRepo),
		),
		Profile: handler.NewProfileHandler(
			user.NewGetProfileUseCase(profileRepo),
			user.NewUpdateProfileUseCase(profileRepo),
			user.NewUploadResumeUseCase(profileRepo, resumes),
		),
		Ledger: handler.NewLedgerHandler(
			ledger.NewRecordReviewUseCase(gigRepo, appRepo, reviewRepo),
			ledger.NewIssuePenaltyUseCase(penaltyRepo, gigRepo, appRepo, userRepo, cfg.MaxWarnings),
			ledger.NewListMyPenaltiesUseCase(penaltyRepo, cfg.MaxWarnings),
			ledger.NewGetMyPenaltyUseCase(penaltyRepo, cfg.MaxWarnings),
			ledger.NewAppealPenaltyUseCase(penaltyRepo),
		),
		Notification: handler.NewNotificationHandler(
			notification.NewListUseCase(notifRepo),
			notification.NewUnreadCountUseCase(notifRepo),
			notification.NewMarkReadUseCase(notifRepo),
			notification.NewMarkAllReadUseCase(notifRepo),
		),
		Conversation: handler.NewConversationHandler(
			conversation.NewStartConversationUseCase(convRepo, userRepo, gigRepo),
			conversation.NewListConversationsUseCase(convRepo),
			conversation.NewListMessagesUseCase(convRepo, msgRepo, cfg.MessageEditWindow),
			conversation.NewSendMessageUseCase(convRepo, msgRepo, publisher, cfg.MessageEditWindow),
			conversation.NewEditMessageUseCase(convRepo, msgRepo, cfg.MessageEditWindow),
			conversation.NewDeleteMessageUseCase(convRepo, msgRepo),
			conversation.NewMarkReadUseCase(convRepo),
			conversation.NewUnreadCountUseCase(convRepo),
		),
		Report: handler.NewReportHandler(
			report.NewCreateReportUseCase(reportRepo, convRepo, msgRepo),
			report.NewListMyReportsUseCase(reportRepo),
		),
		Sweep:  handler.NewSweepHandler(gig.NewSweepUseCase(gigRepo)),
		WS:     handler.NewWSHandler(hub, tokens, cfg.AllowedOrigins),
		Health: handler.NewHealthHandler(dbConn),
	}

	engine := httpRouter.SetupRouter(cfg, tokens, handlers)
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("ошибка остановки http сервера")
		}
	}()

	log.WithField("port", cfg.HTTPPort).Info("HTTP сервер запущен")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("сервер завершился с ошибкой: %v", err)
	}

	// Запросы завершены: дожидаемся фоновых рассылок, затем гасим остальное.
	notifier.Wait()
	if producer != nil {
		producer.Close()
	}
	stop()
	<-hubDone
	log.Info("сервер остановлен")
}

func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
