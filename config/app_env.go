package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/akeren/signal-waitlist/internal/log"
	"github.com/akeren/signal-waitlist/pkg/utils"
	"github.com/joho/godotenv"
)

const AppEnvKey = "APP_ENV"

// devEnvironments are the APP_ENV values where --auto-migrate may touch the schema.
var devEnvironments = []string{"", "dev", "development", "local", "test", "testing"}

// InitializeEnvFile loads .env unless SKIP_DOTENV=true. Variables already set win.
func InitializeEnvFile(logger *log.Logger) {
	if skip, _ := utils.EnvBool("SKIP_DOTENV"); skip {
		logger.Info("Skipping .env file load", "reason", "SKIP_DOTENV")
		return
	}

	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file loaded", "error", err.Error())
		return
	}

	logger.Info("Environment variables loaded from .env")
}

func GetAppEnv() string {
	return strings.ToLower(utils.Env(AppEnvKey))
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))
	if slices.Contains(devEnvironments, env) {
		return nil
	}
	return fmt.Errorf("--auto-migrate is not allowed when %s=%q; use the migrate command instead", AppEnvKey, env)
}
