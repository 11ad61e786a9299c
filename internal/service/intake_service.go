package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/duplicate"
	"github.com/emmanuelfore/tarisa-sub001/internal/escalation"
	"github.com/emmanuelfore/tarisa-sub001/internal/events"
	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
	"github.com/emmanuelfore/tarisa-sub001/internal/jurisdiction"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository"
	"github.com/emmanuelfore/tarisa-sub001/internal/routing"
)

// IntakeService resolves, routes and stores new issues and re-routes
// existing ones after a jurisdiction correction.
type IntakeService struct {
	issues     repository.IssueRepository
	history    repository.IssueHistoryRepository
	reference  ReferenceData
	detector   *duplicate.Detector
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	Issues     repository.IssueRepository
	History    repository.IssueHistoryRepository
	Reference  ReferenceData
	Detector   *duplicate.Detector
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// SubmitInput describes a citizen report.
type SubmitInput struct {
	ReporterID     string
	Category       string
	Description    string
	Latitude       *float64
	Longitude      *float64
	DeclaredRegion string
}

// SubmitResult is the stored issue plus how it was placed.
type SubmitResult struct {
	Issue      *domain.Issue
	Resolution jurisdiction.Result
	Candidates []duplicate.Candidate
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	return &IntakeService{
		issues:     deps.Issues,
		history:    deps.History,
		reference:  deps.Reference,
		detector:   deps.Detector,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// Submit creates an issue. Routing and the duplicate check finish before the
// single insert, so sweeps never see a half-placed issue. Only a failing
// store aborts intake; every other problem becomes a triage reason.
func (s *IntakeService) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	reporterID := strings.TrimSpace(input.ReporterID)
	category := domain.NormalizeCategory(input.Category)
	if reporterID == "" {
		return nil, fmt.Errorf("%w: reporter id required", ErrInvalidInput)
	}
	if category == "" {
		return nil, fmt.Errorf("%w: category required", ErrInvalidInput)
	}

	now := s.now()
	point, malformed := parseCoordinates(input.Latitude, input.Longitude)
	issue := &domain.Issue{
		ID:              uuid.NewString(),
		TrackingID:      generateTrackingID(),
		ReporterID:      reporterID,
		Category:        category,
		Description:     strings.TrimSpace(input.Description),
		Coordinates:     point,
		DeclaredRegion:  strings.TrimSpace(input.DeclaredRegion),
		Status:          domain.IssueStatusSubmitted,
		EscalationLevel: domain.EscalationL1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	resolution, router := s.placement(issue, now)
	assignment := router.Route(category, resolution.Ref(), now)
	applyAssignment(issue, resolution, assignment, malformed)

	var candidates []duplicate.Candidate
	if s.detector != nil && point != nil {
		found, err := s.detector.Search(ctx, issue, 0, true)
		switch {
		case err == nil:
			candidates = found
		case errors.Is(err, duplicate.ErrNoLocation):
		default:
			return nil, fmt.Errorf("duplicate check: %w", err)
		}
	}
	for _, c := range candidates {
		issue.DuplicateCandidates = append(issue.DuplicateCandidates, c.IssueID)
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	s.recordRouting(ctx, issue, nil, "", resolution.Method, now)
	s.publishIntake(ctx, issue, candidates, now)

	s.logger.Info("issue submitted",
		zap.String("issue_id", issue.ID),
		zap.String("tracking_id", issue.TrackingID),
		zap.String("category", string(issue.Category)),
		zap.String("jurisdiction_id", derefString(issue.JurisdictionID)),
		zap.String("department_id", derefString(issue.AssignedDepartmentID)),
		zap.Bool("needs_manual_triage", issue.NeedsManualTriage),
		zap.Int("duplicate_candidates", len(candidates)))

	return &SubmitResult{Issue: issue, Resolution: resolution, Candidates: candidates}, nil
}

// Reroute recomputes jurisdiction and department for an open issue. With a
// jurisdictionID the operator's correction is used as-is; otherwise the
// stored coordinates are resolved again. The SLA deadline stays anchored on
// CreatedAt. An unchanged result writes nothing and reports changed=false.
func (s *IntakeService) Reroute(ctx context.Context, issueID string, jurisdictionID *string, operatorID string) (*domain.Issue, bool, error) {
	snap := s.reference.Current()
	if snap == nil {
		return nil, false, escalation.ErrNoReferenceData
	}
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, false, err
	}
	if issue.Status.Terminal() {
		return nil, false, escalation.ErrTerminal
	}

	now := s.now()
	var resolution jurisdiction.Result
	if jurisdictionID != nil && strings.TrimSpace(*jurisdictionID) != "" {
		id := strings.TrimSpace(*jurisdictionID)
		node, ok := snap.Tree.Node(id)
		if !ok {
			return nil, false, fmt.Errorf("%w: %s", ErrUnknownJurisdiction, id)
		}
		resolution = jurisdiction.Result{
			JurisdictionID: node.ID,
			Level:          node.Level,
			Chain:          snap.Tree.Chain(node.ID),
			Method:         jurisdiction.MethodManual,
		}
	} else {
		resolution = snap.Resolver.Resolve(issue.Coordinates, issue.DeclaredRegion, now)
	}

	assignment := snap.Router.Route(issue.Category, resolution.Ref(), issue.CreatedAt)
	updated := *issue
	updated.TriageReasons = nil
	applyAssignment(&updated, resolution, assignment, hasReason(issue.TriageReasons, domain.TriageMalformedCoordinates))
	if sameRouting(issue, &updated) {
		return issue, false, nil
	}

	updated.UpdatedAt = now
	if err := s.issues.UpdateRouting(ctx, &updated); err != nil {
		return nil, false, err
	}

	s.recordRouting(ctx, &updated, issue, operatorID, resolution.Method, now)
	_, _, actor := actorFor(operatorID)
	events.Emit(ctx, s.dispatcher, s.logger, events.New(events.EventIssueRouted, updated.ID, actor, now, events.IssueRoutedPayload{
		DepartmentID:   updated.AssignedDepartmentID,
		JurisdictionID: updated.JurisdictionID,
		Priority:       updated.Priority,
		SLADeadline:    updated.SLADeadline,
		Reroute:        true,
	}))
	if updated.NeedsManualTriage {
		events.Emit(ctx, s.dispatcher, s.logger, events.New(events.EventIssueNeedsTriage, updated.ID, actor, now,
			events.IssueNeedsTriagePayload{Reasons: updated.TriageReasons}))
	}

	s.logger.Info("issue rerouted",
		zap.String("issue_id", updated.ID),
		zap.String("tracking_id", updated.TrackingID),
		zap.String("jurisdiction_id", derefString(updated.JurisdictionID)),
		zap.String("department_id", derefString(updated.AssignedDepartmentID)),
		zap.String("operator_id", operatorID))
	return &updated, true, nil
}

// Resolve runs the jurisdiction resolver against the current snapshot.
func (s *IntakeService) Resolve(lat, lng *float64, declaredRegion string) (jurisdiction.Result, error) {
	snap := s.reference.Current()
	if snap == nil {
		return jurisdiction.Result{}, escalation.ErrNoReferenceData
	}
	point, malformed := parseCoordinates(lat, lng)
	if malformed {
		return jurisdiction.Result{}, fmt.Errorf("%w: malformed coordinates", ErrInvalidInput)
	}
	return snap.Resolver.Resolve(point, strings.TrimSpace(declaredRegion), s.now()), nil
}

// placement returns the resolver result and router to use. Without a
// snapshot the issue is routed on rule defaults alone.
func (s *IntakeService) placement(issue *domain.Issue, now time.Time) (jurisdiction.Result, *routing.Router) {
	snap := s.reference.Current()
	if snap == nil {
		s.logger.Warn("no reference snapshot; routing on rule defaults",
			zap.String("tracking_id", issue.TrackingID))
		return jurisdiction.Result{Method: jurisdiction.MethodNone}, routing.NewRouter(nil, nil, s.reference.Rules())
	}
	return snap.Resolver.Resolve(issue.Coordinates, issue.DeclaredRegion, now), snap.Router
}

func (s *IntakeService) recordRouting(ctx context.Context, issue, previous *domain.Issue, operatorID string, method jurisdiction.Method, at time.Time) {
	if s.history == nil {
		return
	}
	actorType, actorID, _ := actorFor(operatorID)
	entry := &domain.IssueHistory{
		IssueID:       issue.ID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    domain.ChangeTypeRouting,
		NewValue:      routingValue(issue, method),
		CreatedAt:     at,
	}
	if previous != nil {
		entry.OldValue = routingValue(previous, "")
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("record routing history failed", zap.String("issue_id", issue.ID), zap.Error(err))
	}
}

func (s *IntakeService) publishIntake(ctx context.Context, issue *domain.Issue, candidates []duplicate.Candidate, at time.Time) {
	actor := events.SystemActor
	events.Emit(ctx, s.dispatcher, s.logger, events.New(events.EventIssueSubmitted, issue.ID, actor, at, events.IssueSubmittedPayload{
		TrackingID:     issue.TrackingID,
		Category:       issue.Category,
		JurisdictionID: issue.JurisdictionID,
		Approximate:    issue.JurisdictionApproximate,
	}))
	if issue.AssignedDepartmentID != nil {
		events.Emit(ctx, s.dispatcher, s.logger, events.New(events.EventIssueRouted, issue.ID, actor, at, events.IssueRoutedPayload{
			DepartmentID:   issue.AssignedDepartmentID,
			JurisdictionID: issue.JurisdictionID,
			Priority:       issue.Priority,
			SLADeadline:    issue.SLADeadline,
		}))
	}
	if issue.NeedsManualTriage {
		events.Emit(ctx, s.dispatcher, s.logger, events.New(events.EventIssueNeedsTriage, issue.ID, actor, at,
			events.IssueNeedsTriagePayload{Reasons: issue.TriageReasons}))
	}
	if len(candidates) > 0 {
		radius := duplicate.DefaultRadiusMeters
		if s.detector != nil {
			radius = s.detector.Radius()
		}
		events.Emit(ctx, s.dispatcher, s.logger, events.New(events.EventDuplicateSuggested, issue.ID, actor, at,
			events.DuplicateSuggestedPayload{CandidateIDs: issue.DuplicateCandidates, RadiusMeters: radius}))
	}
}

func applyAssignment(issue *domain.Issue, resolution jurisdiction.Result, assignment routing.Assignment, malformed bool) {
	issue.JurisdictionID = resolution.Ref()
	issue.JurisdictionApproximate = resolution.Approximate
	issue.AssignedDepartmentID = assignment.DepartmentID
	issue.Priority = assignment.Priority
	issue.SLADeadline = assignment.SLADeadline
	issue.NeedsManualTriage = assignment.NeedsManualTriage
	issue.TriageReasons = nil
	if malformed {
		issue.NeedsManualTriage = true
		issue.TriageReasons = append(issue.TriageReasons, domain.TriageMalformedCoordinates)
	}
	issue.TriageReasons = append(issue.TriageReasons, assignment.TriageReasons...)
}

// parseCoordinates returns nil without malformed when both values are absent.
// A half-supplied or out of range pair is dropped and reported malformed.
func parseCoordinates(lat, lng *float64) (*geo.Point, bool) {
	if lat == nil && lng == nil {
		return nil, false
	}
	if lat == nil || lng == nil {
		return nil, true
	}
	p := geo.Point{Lat: *lat, Lng: *lng}
	if !p.Valid() {
		return nil, true
	}
	return &p, false
}

func routingValue(issue *domain.Issue, method jurisdiction.Method) map[string]any {
	value := map[string]any{
		"jurisdiction_id":          derefString(issue.JurisdictionID),
		"jurisdiction_approximate": issue.JurisdictionApproximate,
		"department_id":            derefString(issue.AssignedDepartmentID),
		"priority":                 string(issue.Priority),
		"sla_deadline":             issue.SLADeadline.UTC().Format(time.RFC3339),
		"needs_manual_triage":      issue.NeedsManualTriage,
	}
	if method != "" {
		value["method"] = string(method)
	}
	return value
}

func sameRouting(a, b *domain.Issue) bool {
	return sameString(a.JurisdictionID, b.JurisdictionID) &&
		a.JurisdictionApproximate == b.JurisdictionApproximate &&
		sameString(a.AssignedDepartmentID, b.AssignedDepartmentID) &&
		a.Priority == b.Priority &&
		a.SLADeadline.Equal(b.SLADeadline) &&
		a.NeedsManualTriage == b.NeedsManualTriage &&
		sameStrings(a.TriageReasons, b.TriageReasons)
}

func hasReason(reasons []string, reason string) bool {
	for _, r := range reasons {
		if r == reason {
			return true
		}
	}
	return false
}
