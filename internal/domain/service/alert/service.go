package alert

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
)

type FilterStore interface {
	ListEnabledFilters(ctx context.Context) ([]entity.NotificationFilter, error)
}

// Sink доставляет уведомление о лоте в чат.
type Sink interface {
	Send(ctx context.Context, chatID int64, event entity.CreatedListing) error
}

type Service struct {
	filters FilterStore
	sink    Sink
}

func NewService(filters FilterStore, sink Sink) *Service {
	return &Service{
		filters: filters,
		sink:    sink,
	}
}

// Handle рассылает уведомления по всем подходящим фильтрам. Ошибка отправки
// в один чат не мешает остальным.
func (s *Service) Handle(ctx context.Context, event entity.CreatedListing) error {
	filters, err := s.filters.ListEnabledFilters(ctx)
	if err != nil {
		return fmt.Errorf("list filters: %w", err)
	}

	var matched []entity.NotificationFilter
	for _, f := range filters {
		if Matches(f, event) {
			matched = append(matched, f)
		}
	}

	if len(matched) == 0 {
		return nil
	}

	logger(ctx).Debug("listing matched filters",
		slog.String(logx.FieldListingID, event.Listing.ID.String()),
		slog.Any("filters", matchingIDs(matched)),
	)

	for _, f := range matched {
		if f.ChatID == nil {
			logger(ctx).Info("no chat bound to filter owner, skipped",
				slog.String(logx.FieldFilterID, f.ID.String()),
			)
			continue
		}

		if err := s.sink.Send(ctx, *f.ChatID, event); err != nil {
			logger(ctx).Error("failed to send notification",
				slog.String(logx.FieldFilterID, f.ID.String()),
				slog.String(logx.FieldListingID, event.Listing.ID.String()),
				logx.Error(err),
			)
		}
	}

	return nil
}
