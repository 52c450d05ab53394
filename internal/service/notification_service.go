package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/civicdesk/grievance-portal/internal/cache"
	"github.com/civicdesk/grievance-portal/internal/config"
	"github.com/civicdesk/grievance-portal/internal/events"
)

// NotificationService reacts to domain events: it keeps the dashboard cache
// fresh and forwards notable events to the configured notification stubs.
type NotificationService struct {
	dispatcher events.Dispatcher
	cache      cache.MetricsCache
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. metricsCache may be nil.
func NewNotificationService(dispatcher events.Dispatcher, metricsCache cache.MetricsCache, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		cache:      metricsCache,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintSubmitted, n.handleComplaintSubmitted)
	n.dispatcher.Subscribe(events.EventComplaintStatusChanged, n.handleComplaintStatusChanged)
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventAdminCodeIssued, n.handleAdminCode)
	n.dispatcher.Subscribe(events.EventAdminCodeRedeemed, n.handleAdminCode)
}

func (n *NotificationService) handleComplaintSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("ComplaintSubmitted", zap.String("complaint_id", event.Subject), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return n.invalidateDashboard(ctx)
}

func (n *NotificationService) handleComplaintStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("ComplaintStatusChanged", zap.String("complaint_id", event.Subject), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return n.invalidateDashboard(ctx)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("username", event.Subject), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAdminCode(_ context.Context, event events.Event) error {
	n.logger.Info("AdminCode", zap.String("event_type", string(event.Type)), zap.String("actor", event.Actor))
	return nil
}

func (n *NotificationService) invalidateDashboard(ctx context.Context) error {
	if n.cache == nil {
		return nil
	}
	if err := n.cache.Invalidate(ctx); err != nil {
		n.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		return err
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject", event.Subject),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject", event.Subject),
		zap.String("event_type", string(event.Type)))
}
