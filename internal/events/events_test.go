package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	bodies   [][]byte
	err      error
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.bodies = append(p.bodies, data)
	return p.err
}

func TestInMemoryDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(EventIssueEscalated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventIssueEscalated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventIssueRouted, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), New(EventIssueEscalated, "i-1", SystemActor, time.Now(), nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestNATSDispatcherPublishesJSON(t *testing.T) {
	pub := &recordingPublisher{}
	d := newNATSDispatcher(nil, pub, "tarisa.events", nil)

	var local int
	d.Subscribe(EventIssueEscalated, func(context.Context, Event) error {
		local++
		return nil
	})

	at := time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)
	event := New(EventIssueEscalated, "i-1", SystemActor, at, IssueEscalatedPayload{
		OldLevel: domain.EscalationL1, NewLevel: domain.EscalationL2, Timestamp: at,
	})
	require.NoError(t, d.Publish(context.Background(), event))

	assert.Equal(t, 1, local)
	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "tarisa.events.issue_escalated", pub.subjects[0])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(pub.bodies[0], &decoded))
	assert.Equal(t, "i-1", decoded["issue_id"])
	payload := decoded["payload"].(map[string]any)
	assert.EqualValues(t, 1, payload["old_level"])
	assert.EqualValues(t, 2, payload["new_level"])
}

func TestNATSDispatcherSurfacesBrokerErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("no responders")}
	d := newNATSDispatcher(nil, pub, "", nil)
	assert.Equal(t, "issue_routed", d.Subject(EventIssueRouted))

	err := d.Publish(context.Background(), New(EventIssueRouted, "i-2", SystemActor, time.Now(), nil))
	assert.Error(t, err)
}
