// internal/app/auth.go
package app

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
)

type Auth struct {
	enabled       bool
	redis         *redis.Client
	keyTemplate   string
	tokenHeader   string
	supervisorKey string
}

func NewAuth(config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false}, nil
	}

	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Auth{
		enabled:       true,
		redis:         client,
		keyTemplate:   config.Auth.GraderKeyTemplate,
		tokenHeader:   config.Auth.TokenHeader,
		supervisorKey: config.Auth.SupervisorKey,
	}, nil
}

func (a *Auth) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func graderKey(template string, graderID int64) string {
	return strings.NewReplacer(
		"{grader}", strconv.FormatInt(graderID, 10),
	).Replace(template)
}

// ValidateGraderToken checks the bearer token a grader presents against the
// one issued for them.
func (a *Auth) ValidateGraderToken(ctx context.Context, graderID int64, token string) error {
	if !a.enabled {
		return nil
	}

	key := graderKey(a.keyTemplate, graderID)
	fields, err := a.redis.HGetAll(ctx, key).Result()
	if err == redis.Nil || len(fields) == 0 {
		logger.Debug.Printf("Token not found for key: %s", key)
		return fmt.Errorf("token not found")
	}
	if err != nil {
		logger.Debug.Printf("Redis error: %v", err)
		return fmt.Errorf("redis error: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(fields["token"]), []byte(token)) != 1 {
		logger.Debug.Printf("Token mismatch for grader %d", graderID)
		return fmt.Errorf("invalid token")
	}

	return nil
}

// ValidateSupervisorToken gates the privileged operations: bonus marks,
// reassignment, roster wipes.
func (a *Auth) ValidateSupervisorToken(token string) error {
	if !a.enabled {
		return nil
	}
	if a.supervisorKey == "" {
		return fmt.Errorf("supervisor access is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(a.supervisorKey), []byte(token)) != 1 {
		return fmt.Errorf("invalid supervisor token")
	}
	return nil
}
