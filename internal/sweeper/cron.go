package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (стандартные 5 полей).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// DefaultCronExpr — расписание обхода по умолчанию: каждые 5 минут.
const DefaultCronExpr = "*/5 * * * *"

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// Run запускает Sweeper по cron-расписанию и блокируется до отмены
// контекста. Ошибки отдельных тиков логируются, цикл продолжается.
func (s *Sweeper) Run(ctx context.Context, cronExpr string) error {
	if cronExpr == "" {
		cronExpr = DefaultCronExpr
	}

	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}

	s.logger.Info("sweeper started", "cron", cronExpr)

	for {
		next := schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweeper stopped")
			return ctx.Err()

		case <-timer.C:
			if err := s.Tick(ctx); err != nil {
				s.logger.Error("sweep tick failed", "error", err)
			}
		}
	}
}
