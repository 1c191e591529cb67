package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/civic-report/config"
	"github.com/oksasatya/civic-report/internal/domain/entity"
	"github.com/oksasatya/civic-report/internal/domain/repository"
	pginfra "github.com/oksasatya/civic-report/internal/infrastructure/postgres"
	"github.com/oksasatya/civic-report/pkg/helpers"
)

type categorySeed struct {
	Name        string
	Description string
}

var defaultCategories = []categorySeed{
	{"Infrastructure", "Roads, bridges, street lighting and public facilities"},
	{"Public Safety", "Crime, hazards and threats to public order"},
	{"Health", "Clinics, sanitation and public health concerns"},
	{"Environment", "Pollution, waste, flooding and green spaces"},
	{"Administration", "Permits, civil records and government services"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2, AppName: cfg.AppName + "-seed"})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := seedCategories(ctx, pginfra.NewCategoryRepository(pool), logger); err != nil {
		log.Fatalf("failed to seed categories: %v", err)
	}
	if err := seedAdmin(ctx, pginfra.NewUserRepository(pool), cfg, logger); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
}

func seedCategories(ctx context.Context, repo repository.CategoryRepository, logger *logrus.Logger) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.Name] = true
	}
	for _, s := range defaultCategories {
		if have[s.Name] {
			continue
		}
		desc := s.Description
		c := &entity.Category{Name: s.Name, Description: &desc}
		if err := repo.Create(ctx, c); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		helpers.LogInfo(logger, "seeded category", logrus.Fields{"id": c.ID, "name": c.Name})
	}
	return nil
}

func seedAdmin(ctx context.Context, repo repository.UserRepository, cfg *config.Config, logger *logrus.Logger) error {
	u, err := repo.GetByEmail(ctx, cfg.SeedAdminEmail)
	if err == nil {
		logger.WithField("email", u.Email).Info("admin already present")
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	hash, err := helpers.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}
	now := time.Now()
	u = &entity.User{
		Name:            cfg.SeedAdminName,
		Email:           cfg.SeedAdminEmail,
		Password:        hash,
		Role:            entity.RoleAdmin,
		EmailVerifiedAt: &now,
	}
	if err := repo.Create(ctx, u); err != nil {
		return err
	}
	helpers.LogInfo(logger, "seeded admin", logrus.Fields{"id": u.ID, "email": u.Email})
	return nil
}
