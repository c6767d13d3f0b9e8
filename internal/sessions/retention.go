package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type RetentionConfig struct {
	Age      time.Duration
	Interval time.Duration
}

// RetentionService periodically prunes old conversation turns so the
// sessions database does not grow without bound.
type RetentionService struct {
	Store  *Store
	Config RetentionConfig
	Logger *slog.Logger
	Clock  func() time.Time
}

type RetentionSummary struct {
	Cutoff       time.Time `json:"cutoff"`
	TurnsDeleted int64     `json:"turns_deleted"`
}

func (s *RetentionService) Run(ctx context.Context) error {
	s.ensureDefaults()

	ticker := time.NewTicker(s.Config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			summary, err := s.RunRetentionOnce(ctx)
			if err != nil {
				if s.Logger != nil {
					s.Logger.ErrorContext(ctx, "retention cycle failed", slog.Any("error", err))
				}
				continue
			}
			if s.Logger != nil {
				s.Logger.InfoContext(ctx, "retention cycle completed", slog.Any("summary", summary))
			}
		}
	}
}

func (s *RetentionService) RunRetentionOnce(ctx context.Context) (RetentionSummary, error) {
	s.ensureDefaults()
	if s.Store == nil {
		return RetentionSummary{}, fmt.Errorf("sessions store is required")
	}

	cutoff := s.Clock().Add(-s.Config.Age)
	deleted, err := s.Store.DeleteTurnsBefore(ctx, cutoff)
	if err != nil {
		return RetentionSummary{Cutoff: cutoff}, err
	}
	return RetentionSummary{Cutoff: cutoff, TurnsDeleted: deleted}, nil
}

func (s *RetentionService) ensureDefaults() {
	if s.Clock == nil {
		s.Clock = time.Now
	}
	if s.Config.Age <= 0 {
		s.Config.Age = 90 * 24 * time.Hour
	}
	if s.Config.Interval <= 0 {
		s.Config.Interval = time.Hour
	}
}
