package services

import (
	"context"
	"log"
	"time"
)

// Dispatcher polls the alert queue and delivers due reminders. Delivery
// failures are logged and the alert is dropped; reminders are best effort.
type Dispatcher struct {
	queue    AlertQueue
	notifier Notifier
	interval time.Duration
	now      func() time.Time
}

func NewDispatcher(queue AlertQueue, notifier Notifier, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		queue:    queue,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.DispatchDue(ctx)
		}
	}
}

// DispatchDue delivers every alert that has come due.
func (d *Dispatcher) DispatchDue(ctx context.Context) {
	alerts, err := d.queue.Due(ctx, d.now())
	if err != nil {
		log.Printf("Failed to read due alerts: %v", err)
		return
	}

	for _, alert := range alerts {
		if err := d.notifier.Notify(ctx, alert); err != nil {
			log.Printf("Failed to deliver reminder for task %s: %v", alert.TaskID, err)
		}
	}
}
