package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/megatech/storefront-backend/internal/auth"
	"github.com/megatech/storefront-backend/pkg/config"
	"github.com/megatech/storefront-backend/pkg/db"
	"github.com/megatech/storefront-backend/pkg/logger"
)

// createadmin provisions or rotates a back-office account. Existing accounts
// get their password replaced, so it doubles as a reset tool.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "createadmin"})

	_ = godotenv.Load()

	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "admin password (min 8 characters)")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: createadmin -email <email> -password <password>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "createadmin",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	svc, err := auth.NewService(auth.NewRepository(dbClient.DB()), cfg.JWT, cfg.Password, logg)
	requireResource(ctx, logg, "auth service", err)

	admin, err := svc.EnsureAdmin(ctx, *email, *password)
	if err != nil {
		logg.Error(ctx, "failed to provision admin", err)
		os.Exit(1)
	}

	fmt.Printf("admin ready: %s (%s)\n", admin.Email, admin.ID)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
