package api

import (
	"log/slog"

	"github.com/shaiso/Tracker/internal/tracker"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	service *tracker.Service
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Service *tracker.Service
	Logger  *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		service: cfg.Service,
		logger:  cfg.Logger,
	}
}
