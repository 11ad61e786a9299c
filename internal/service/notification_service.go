package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/emmanuelfore/tarisa-sub001/internal/events"
)

// EventRecorder counts delivered events.
type EventRecorder interface {
	RecordEvent(eventType events.EventType)
}

// NotificationService is the in-process consumer of domain events. Delivery
// to people happens outside the core; this service logs what would be sent
// and keeps per-type counters.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	recorder   EventRecorder
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, recorder EventRecorder) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		recorder:   recorder,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIssueEscalated, n.handleEscalated)
	n.dispatcher.Subscribe(events.EventIssueMaxEscalated, n.handleMaxEscalated)
	n.dispatcher.Subscribe(events.EventDuplicateSuggested, n.handleDuplicateSuggested)
	n.dispatcher.Subscribe(events.EventIssueNeedsTriage, n.handleNeedsTriage)
	for _, t := range []events.EventType{events.EventIssueSubmitted, events.EventIssueRouted, events.EventIssueStatusChanged} {
		n.dispatcher.Subscribe(t, n.handleAudit)
	}
}

func (n *NotificationService) handleEscalated(ctx context.Context, event events.Event) error {
	n.count(event)
	payload, _ := event.Payload.(events.IssueEscalatedPayload)
	n.logger.Info("IssueEscalated",
		zap.String("issue_id", event.IssueID),
		zap.Stringer("level_from", payload.OldLevel),
		zap.Stringer("level_to", payload.NewLevel),
		zap.Bool("forced", payload.Forced))
	return nil
}

func (n *NotificationService) handleMaxEscalated(ctx context.Context, event events.Event) error {
	n.count(event)
	payload, _ := event.Payload.(events.IssueMaxEscalatedPayload)
	n.logger.Warn("IssueMaxEscalated",
		zap.String("issue_id", event.IssueID),
		zap.String("department_id", derefString(payload.DepartmentID)),
		zap.Duration("overdue_by", payload.OverdueBy))
	return nil
}

func (n *NotificationService) handleDuplicateSuggested(ctx context.Context, event events.Event) error {
	n.count(event)
	payload, _ := event.Payload.(events.DuplicateSuggestedPayload)
	n.logger.Info("DuplicateSuggested",
		zap.String("issue_id", event.IssueID),
		zap.Strings("candidate_ids", payload.CandidateIDs))
	return nil
}

func (n *NotificationService) handleNeedsTriage(ctx context.Context, event events.Event) error {
	n.count(event)
	payload, _ := event.Payload.(events.IssueNeedsTriagePayload)
	n.logger.Info("IssueNeedsTriage",
		zap.String("issue_id", event.IssueID),
		zap.Strings("reasons", payload.Reasons))
	return nil
}

func (n *NotificationService) handleAudit(ctx context.Context, event events.Event) error {
	n.count(event)
	n.logger.Debug(string(event.Type), zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) count(event events.Event) {
	if n.recorder != nil {
		n.recorder.RecordEvent(event.Type)
	}
}
