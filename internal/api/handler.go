package api

import (
	"log/slog"

	"github.com/shaiso/Cascade/internal/waterfall"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	engine *waterfall.Engine
	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Engine *waterfall.Engine
	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine: cfg.Engine,
		logger: logger,
	}
}
