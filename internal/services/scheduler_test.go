package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dueQueue struct {
	fakeQueue
	due    []Alert
	dueErr error
	asked  time.Time
}

func (q *dueQueue) Due(ctx context.Context, now time.Time) ([]Alert, error) {
	q.asked = now
	if q.dueErr != nil {
		return nil, q.dueErr
	}
	due := q.due
	q.due = nil
	return due, nil
}

type captureNotifier struct {
	sent []Alert
	err  error
}

func (n *captureNotifier) Notify(ctx context.Context, alert Alert) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, alert)
	return nil
}

func TestDispatcher_DeliversDueAlerts(t *testing.T) {
	queue := &dueQueue{due: []Alert{
		{TaskID: "T1", OwnerID: "U1", Title: "Buy milk", FireAt: testNow},
		{TaskID: "T2", OwnerID: "U2", Title: "Call home", FireAt: testNow},
	}}
	notifier := &captureNotifier{}

	d := NewDispatcher(queue, notifier, time.Second)
	d.now = func() time.Time { return testNow }

	d.DispatchDue(context.Background())

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, "T1", notifier.sent[0].TaskID)
	assert.Equal(t, "T2", notifier.sent[1].TaskID)
	assert.Equal(t, testNow, queue.asked)
}

func TestDispatcher_NotifyFailureIsNotFatal(t *testing.T) {
	queue := &dueQueue{due: []Alert{{TaskID: "T1", OwnerID: "U1", Title: "Buy milk"}}}
	notifier := &captureNotifier{err: errors.New("push failed")}

	d := NewDispatcher(queue, notifier, time.Second)
	d.now = func() time.Time { return testNow }

	// must not panic or abort; the alert is dropped
	d.DispatchDue(context.Background())
	assert.Empty(t, notifier.sent)
}

func TestDispatcher_QueueFailureIsNotFatal(t *testing.T) {
	queue := &dueQueue{dueErr: errors.New("redis down")}
	notifier := &captureNotifier{}

	d := NewDispatcher(queue, notifier, time.Second)
	d.now = func() time.Time { return testNow }

	d.DispatchDue(context.Background())
	assert.Empty(t, notifier.sent)
}

func TestDispatcher_RunStopsOnContextCancel(t *testing.T) {
	queue := &dueQueue{}
	notifier := &captureNotifier{}

	d := NewDispatcher(queue, notifier, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after context cancel")
	}
}
