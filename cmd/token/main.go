// Command token mints access tokens for local development and manual testing.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/Temutjin2k/ride-realtime/config"
	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/internal/service/auth"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
)

func main() {
	var (
		configPath string
		userID     string
		role       string
	)

	fs := pflag.NewFlagSet("token", pflag.ExitOnError)
	fs.StringVar(&configPath, "config-path", "config.yaml", "Path to the config yaml file")
	fs.StringVar(&userID, "user-id", "", "User id, a new one is generated when empty")
	fs.StringVar(&role, "role", types.RiderRole.String(), "RIDER, DRIVER or ADMIN")
	_ = fs.Parse(os.Args[1:])

	ctx := context.Background()
	log := logger.InitLogger("token", logger.LevelInfo)

	cfg, err := config.NewConfig(configPath)
	if err != nil {
		log.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	id := uuid.New()
	if userID != "" {
		if id, err = uuid.Parse(userID); err != nil {
			log.Error(ctx, "invalid user id", err)
			os.Exit(1)
		}
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	token, err := tokens.Issue(models.Identity{UserID: id, Role: types.UserRole(strings.ToUpper(role))})
	if err != nil {
		log.Error(ctx, "failed to issue token", err)
		os.Exit(1)
	}

	fmt.Printf("user_id: %s\nrole:    %s\ntoken:   %s\n", id, strings.ToUpper(role), token)
}
