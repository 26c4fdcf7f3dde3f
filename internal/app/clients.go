package app

import (
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/heartthread-backend/internal/platform/logger"
	"github.com/yungbote/heartthread-backend/internal/platform/openai"
	"github.com/yungbote/heartthread-backend/internal/platform/redisx"
)

type Clients struct {
	OpenAI openai.Client
	// Nil when REDIS_ADDR is unset.
	Redis *goredis.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Openai
	ai, err := openai.NewClient(openai.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.ExtractModel,
		Timeout:    time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.OpenAI.MaxRetries,
	}, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// Redis
	var rdb *goredis.Client
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rdb, err = redisx.NewClient(redisx.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis client: %w", err)
		}
	}

	return Clients{OpenAI: ai, Redis: rdb}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
