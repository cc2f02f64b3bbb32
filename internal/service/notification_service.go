package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/tourdesk/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	relay      events.EventHandler
}

// NewNotificationService creates the service. relay may be nil, in which case
// events are only logged.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, relay events.EventHandler) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		relay:      relay,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAccountCreated, n.handleAccountCreated)
	n.dispatcher.Subscribe(events.EventAccountDeleted, n.handleAccountDeleted)
	n.dispatcher.Subscribe(events.EventTripCreated, n.handleTripEvent)
	n.dispatcher.Subscribe(events.EventTripCanceled, n.handleTripEvent)
	n.dispatcher.Subscribe(events.EventTripDeleted, n.handleTripEvent)
	if n.relay != nil {
		events.SubscribeAll(n.dispatcher, n.relay)
	}
}

func (n *NotificationService) handleAccountCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("AccountCreated", zap.String("account_id", event.SubjectID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleAccountDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("AccountDeleted",
		zap.String("account_id", event.SubjectID),
		zap.String("actor_id", event.Actor.AccountID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTripEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("TripEvent",
		zap.String("event_type", string(event.Type)),
		zap.String("trip_id", event.SubjectID),
		zap.String("actor_id", event.Actor.AccountID),
		zap.Any("payload", event.Payload))
	return nil
}
