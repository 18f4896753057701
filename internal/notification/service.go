package notification

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/varoOP/iptvmatchr/internal/domain"
)

// NewService creates the configured notification service. With no
// webhook configured, notifications are a no-op.
func NewService(log zerolog.Logger, webhookURL string) domain.NotificationService {
	if webhookURL == "" {
		return &noopService{}
	}
	return NewDiscordService(log, webhookURL)
}

type noopService struct{}

func (s *noopService) SendSuccess(ctx context.Context, stats domain.RunStatistics) error {
	return nil
}

func (s *noopService) SendError(ctx context.Context, err error) error {
	return nil
}
