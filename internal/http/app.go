package http

import (
	"context"

	"imob_crm_backend/platform/config"
	"imob_crm_backend/platform/logger"
)

// RouterConfig is what the router reads: CORS policy and the JWT secret.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs GET /api/v1/health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is assembled in cmd/api and handed to router.New.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	// Health may be nil; the health route then always reports ok.
	Health  HealthChecker
	Modules []Module
}
