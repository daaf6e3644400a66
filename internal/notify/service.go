package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"trekbook/internal/booking"
	"trekbook/internal/logger"
	"trekbook/internal/metrics"
	"trekbook/internal/refund"
)

const (
	QueueKey  = "notifications"
	FailedKey = "notifications:failed"

	maxTries    = 3
	pollTimeout = 2 * time.Second
)

type Kind string

const (
	KindBookingConfirmation Kind = "booking_confirmation"
	KindBookingCancellation Kind = "booking_cancellation"
)

type Job struct {
	Kind      Kind      `json:"kind"`
	BookingID int       `json:"booking_id"`
	To        string    `json:"to"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Tries     int       `json:"tries"`
	Created   time.Time `json:"created"`
}

// ConfirmationRecorder stamps a booking once its confirmation went out.
type ConfirmationRecorder interface {
	MarkConfirmationSent(ctx context.Context, bookingID int) error
}

// Service queues customer messages in Redis and delivers them from a worker
// loop. It satisfies booking.Notifier.
type Service struct {
	redis      *redis.Client
	sender     Sender
	recorder   ConfirmationRecorder
	retryDelay time.Duration
	now        func() time.Time
}

type Option func(*Service)

func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) { s.retryDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(client *redis.Client, sender Sender, recorder ConfirmationRecorder, opts ...Option) *Service {
	s := &Service{
		redis:      client,
		sender:     sender,
		recorder:   recorder,
		retryDelay: 5 * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ booking.Notifier = (*Service)(nil)

func (s *Service) NotifyBookingCreated(ctx context.Context, b *booking.Booking) error {
	subject, body := confirmationMessage(b)
	return s.enqueue(ctx, s.newJob(KindBookingConfirmation, b, subject, body))
}

func (s *Service) NotifyBookingCancelled(ctx context.Context, b *booking.Booking, q refund.Quote) error {
	subject, body := cancellationMessage(b, q)
	return s.enqueue(ctx, s.newJob(KindBookingCancellation, b, subject, body))
}

func (s *Service) newJob(kind Kind, b *booking.Booking, subject, body string) Job {
	return Job{
		Kind:      kind,
		BookingID: b.ID,
		To:        b.CustomerEmail,
		Name:      b.CustomerName,
		Subject:   subject,
		Body:      body,
		Created:   s.now(),
	}
}

func (s *Service) enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal notification job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, QueueKey, string(data)).Err(); err != nil {
		logger.Error("failed to queue notification", "kind", job.Kind, "booking_id", job.BookingID, "error", err)
		metrics.RecordNotification(string(job.Kind), "enqueue_failed")
		return err
	}

	metrics.RecordNotification(string(job.Kind), "queued")
	logger.Info("notification queued", "kind", job.Kind, "booking_id", job.BookingID)
	return nil
}

// Start runs the delivery loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, pollTimeout, QueueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad notification data: %v", err)
		return
	}

	job.Tries++
	logger.Debug("sending notification", "kind", job.Kind, "booking_id", job.BookingID, "attempt", job.Tries)
	if err := s.sender.Send(ctx, job.To, job.Name, job.Subject, job.Body); err != nil {
		logger.Error("failed to send notification", "kind", job.Kind, "booking_id", job.BookingID, "error", err)

		if job.Tries < maxTries {
			s.retry(ctx, job)
		} else {
			metrics.RecordNotification(string(job.Kind), "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordNotification(string(job.Kind), "sent")
	logger.Info("notification sent", "kind", job.Kind, "booking_id", job.BookingID)

	if job.Kind == KindBookingConfirmation && s.recorder != nil {
		if err := s.recorder.MarkConfirmationSent(ctx, job.BookingID); err != nil {
			logger.Error("failed to record confirmation", "booking_id", job.BookingID, "error", err)
		}
	}
}

func (s *Service) retry(ctx context.Context, job Job) {
	if s.retryDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(s.retryDelay):
		}
	}

	data, _ := json.Marshal(job)
	s.redis.LPush(context.WithoutCancel(ctx), QueueKey, string(data))
	metrics.RecordNotification(string(job.Kind), "retried")
	logger.Info("notification requeued", "kind", job.Kind, "booking_id", job.BookingID, "next_attempt", job.Tries+1)
}

func (s *Service) saveFailed(job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  s.now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), FailedKey, string(data))
	logger.Error("notification moved to failed queue", "kind", job.Kind, "booking_id", job.BookingID, "tries", job.Tries)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, QueueKey).Result()
	metrics.NotificationQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
