package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/events"
	"github.com/emmanuelfore/tarisa-sub001/internal/refdata"
	"github.com/emmanuelfore/tarisa-sub001/internal/routing"
)

// ReferenceData exposes the current reference snapshot and rule table.
type ReferenceData interface {
	Current() *refdata.Snapshot
	Rules() *routing.RuleSet
}

func generateTrackingID() string {
	return "TRS-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func operatorActor(operatorID string) events.Actor {
	id := operatorID
	return events.Actor{Type: domain.ActorOperator, ID: &id}
}

func actorFor(operatorID string) (domain.ActorType, *string, events.Actor) {
	if operatorID == "" {
		return domain.ActorSystem, nil, events.SystemActor
	}
	id := operatorID
	return domain.ActorOperator, &id, operatorActor(operatorID)
}

func systemClock() time.Time {
	return time.Now().UTC()
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sameString(a, b *string) bool {
	return derefString(a) == derefString(b) && (a == nil) == (b == nil)
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
