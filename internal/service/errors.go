package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/civicdesk/grievance-portal/internal/events"
	"github.com/civicdesk/grievance-portal/internal/repository"
	apperrors "github.com/civicdesk/grievance-portal/pkg/util"
)

// storeError translates repository sentinels into client-facing errors.
func storeError(resource string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrStorageUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return apperrors.NewStorageUnavailable(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject", event.Subject),
			zap.Error(err))
	}
}
