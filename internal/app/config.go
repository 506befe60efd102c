package app

import (
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
	"github.com/findmeajob/findmeajob-backend/internal/utils"
)

type Config struct {
	HTTPAddr   string
	SeedAgents string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		HTTPAddr:   utils.GetEnv("HTTP_ADDR", ":8000", log),
		SeedAgents: utils.GetEnv("SEED_AGENTS", "", log),
	}
}
