// Команда sweeper выполняет плановые проходы по сменам один раз и завершается.
// Запускается из cron; повторный запуск безопасен.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/config"
	"github.com/ignatzorin/gigmarket-backend/internal/db"
	"github.com/ignatzorin/gigmarket-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/retry"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/gig"
)

func main() {
	kind := flag.String("kind", "all", "какой проход выполнить: auto-close, auto-complete или all")
	retries := flag.Uint64("retries", 5, "число повторов при временных сбоях базы")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("sweeper: ошибка загрузки конфигурации: %v", err)
	}
	logger.Init(cfg.LogLevel)
	log := logger.WithComponent("sweeper")

	kinds, err := kindsToRun(*kind)
	if err != nil {
		log.Fatal(err)
	}

	pool := db.DefaultPoolConfig()
	pool.MaxOpenConns, pool.MaxIdleConns = 2, 1
	conn, err := db.NewPostgres(ctx, cfg.DatabaseURL, pool)
	if err != nil {
		log.Fatalf("ошибка подключения к базе: %v", err)
	}
	defer conn.Close()

	sweeper := gig.NewSweepUseCase(persistence.NewGigRepository(conn, cfg.LockTimeout))
	policy := retry.DefaultPolicy(*retries)

	failed := false
	for _, k := range kinds {
		err := retry.Do(ctx, policy, func() error {
			_, err := sweeper.Run(ctx, k, time.Now())
			return err
		}, func(err error, next time.Duration) {
			log.WithFields(logrus.Fields{"kind": k, "retry_in": next.String(), "error": err.Error()}).Warn("временный сбой, повторяем")
		})
		if err != nil {
			failed = true
			log.WithFields(logrus.Fields{"kind": k, "error": err.Error()}).Error("проход не выполнен")
		}
	}
	if failed {
		conn.Close()
		os.Exit(1)
	}
}
