package notifier

import (
	"context"
	"log/slog"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
)

// LogSink пишет уведомления в лог вместо отправки.
type LogSink struct{}

func (LogSink) Send(ctx context.Context, chatID int64, event entity.CreatedListing) error {
	logger(ctx).Info("listing notification",
		slog.Int64("chat-id", chatID),
		slog.String(logx.FieldListingID, event.Listing.ID.String()),
		slog.String(logx.FieldServerKey, event.ServerKey),
		slog.Int64("price", event.Listing.Price),
	)
	return nil
}
