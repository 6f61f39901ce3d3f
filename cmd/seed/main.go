// Команда seed загружает справочник навыков из YAML. Повторный запуск ничего не дублирует.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/config"
	"github.com/ignatzorin/gigmarket-backend/internal/db"
	"github.com/ignatzorin/gigmarket-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("seed: ошибка загрузки конфигурации: %v", err)
	}
	path := flag.String("file", cfg.SkillsSeedPath, "путь к YAML каталогу навыков")
	migrate := flag.Bool("migrate", true, "применить миграции перед загрузкой")
	flag.Parse()

	logger.Init(cfg.LogLevel)
	log := logger.WithComponent("seed")

	names, err := loadCatalog(*path)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.DefaultPoolConfig())
	if err != nil {
		log.Fatalf("ошибка подключения к базе: %v", err)
	}
	defer conn.Close()

	if *migrate {
		if err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
			log.Fatalf("ошибка миграций: %v", err)
		}
	}

	created, err := persistence.NewSkillRepository(conn).UpsertByName(ctx, names)
	if err != nil {
		log.Fatalf("не удалось загрузить навыки: %v", err)
	}
	log.WithFields(logrus.Fields{
		"file":    *path,
		"total":   len(names),
		"created": created,
	}).Info("справочник навыков загружен")
}
