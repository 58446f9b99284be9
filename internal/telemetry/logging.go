package telemetry

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// parseLevel читает уровень логирования из LOG_LEVEL.
// Принимает debug/info/warn/error в любом регистре; по умолчанию info.
func parseLevel() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует и устанавливает глобальный логгер.
//
// LOG_FORMAT=text включает человекочитаемый вывод для разработки;
// по умолчанию — JSON. На уровне debug добавляется source-позиция.
func SetupLogger() *slog.Logger {
	level := parseLevel()
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// loggerKey — приватный тип ключа, чтобы значение в контексте
// не пересекалось с чужими ключами.
type loggerKey struct{}

// WithLogger кладёт логгер в контекст запроса.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext достаёт request-scoped логгер; без него — глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithContainer возвращает логгер с полями контейнера.
func WithContainer(logger *slog.Logger, containerType, containerID string) *slog.Logger {
	return logger.With("container_type", containerType, "container_id", containerID)
}

// WithOperation возвращает логгер с добавленной операцией.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With("operation", operation)
}

// WithDependencyID возвращает логгер с добавленным dependency_id.
func WithDependencyID(logger *slog.Logger, dependencyID string) *slog.Logger {
	return logger.With("dependency_id", dependencyID)
}
