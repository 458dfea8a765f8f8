package notifications

import (
	"context"
	"sync"
	"time"

	"tracker/src/config"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

// Dispatcher delivers post-commit events asynchronously. Dispatch never blocks
// the caller and never reports failure back to it; a transaction that already
// committed stays committed whatever happens to its email.
type Dispatcher struct {
	mailer  MailClient
	logger  *logrus.Logger
	events  chan Event
	retries uint64

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewDispatcher(cfg config.NotificationsConfig, mailer MailClient, logger *logrus.Logger) *Dispatcher {
	d := &Dispatcher{
		mailer:  mailer,
		logger:  logger,
		events:  make(chan Event, cfg.BufferSize),
		retries: uint64(cfg.MaxRetries),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Dispatch enqueues an event for delivery. When the buffer is full the event is
// dropped and logged; delivery is best-effort.
func (d *Dispatcher) Dispatch(e Event) {
	select {
	case d.events <- e:
	default:
		d.logger.WithFields(logrus.Fields{
			"event_id": e.ID,
			"kind":     e.Kind,
		}).Warn("notification buffer full, dropping event")
	}
}

// Close stops accepting events and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.events)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for e := range d.events {
		d.deliver(e)
	}
}

func (d *Dispatcher) deliver(e Event) {
	subject, body := ComposeMessage(e)

	backoff := retry.WithMaxRetries(d.retries, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		if sendErr := d.mailer.Send(e.UserEmail, subject, body); sendErr != nil {
			return retry.RetryableError(sendErr)
		}
		return nil
	})
	if err != nil {
		d.logger.WithFields(logrus.Fields{
			"event_id": e.ID,
			"kind":     e.Kind,
			"to":       e.UserEmail,
		}).WithError(err).Error("failed to deliver notification")
		return
	}
	d.logger.WithFields(logrus.Fields{
		"event_id": e.ID,
		"kind":     e.Kind,
	}).Debug("notification delivered")
}
