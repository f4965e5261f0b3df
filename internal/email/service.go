package email

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"speakbook/internal/logger"
	"speakbook/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
)

const (
	TypeBookingConfirmation = "booking_confirmation"
	TypeCancellation        = "cancellation"
)

type Job struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Service queues mail in Redis and drains the queue through a Transport.
type Service struct {
	redis      *redis.Client
	transport  Transport
	from       string
	fromName   string
	retryDelay time.Duration
}

func New(rdb *redis.Client, transport Transport, fromEmail, fromName string) *Service {
	return &Service{
		redis:      rdb,
		transport:  transport,
		from:       fromEmail,
		fromName:   fromName,
		retryDelay: 5 * time.Second,
	}
}

func (s *Service) enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	length, err := s.redis.LPush(ctx, queueKey, data).Result()
	if err != nil {
		logger.Errorf("Failed to queue email to %s: %v", job.To, err)
		return err
	}
	metrics.EmailQueueLength.Set(float64(length))
	return nil
}

func (s *Service) Send(ctx context.Context, emailType, to, name, subject, body string) error {
	job := Job{
		Type:    emailType,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	}

	if err := s.enqueue(ctx, job); err != nil {
		return err
	}

	logger.Infof("Email queued: %s to %s", subject, to)
	return nil
}

// Start drains the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}
	metrics.EmailQueueLength.Dec()

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return
	}

	job.Tries++
	logger.Debugf("Sending email to %s (attempt %d)", job.To, job.Tries)
	if err := s.transport.Deliver(ctx, s.from, s.fromName, job); err != nil {
		logger.Errorf("Failed to send email to %s: %v", job.To, err)

		if job.Tries < maxTries {
			time.Sleep(s.retryDelay)
			if err := s.enqueue(context.Background(), job); err == nil {
				logger.Infof("Retrying email to %s (attempt %d)", job.To, job.Tries+1)
			}
			return
		}

		metrics.RecordEmail(job.Type, "failed")
		s.saveFailed(job, err)
		return
	}

	metrics.RecordEmail(job.Type, "sent")
	logger.Infof("Email sent successfully to %s", job.To)
}

func (s *Service) saveFailed(job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)
	logger.Errorf("Email to %s failed after %d attempts, moved to failed queue", job.To, maxTries)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) SendBookingConfirmation(ctx context.Context, to, name, providerName, bookingID string, when time.Time) error {
	subject := "Session Booked with " + providerName
	body := fmt.Sprintf(`Hi %s,

Your speaking session is confirmed!

Provider: %s
Booking ID: %s
Time: %s

Your invoice is available from your dashboard.

- SpeakBook Team`, name, providerName, bookingID, when.Format("Jan 2, 2006 at 3:04 PM MST"))

	return s.Send(ctx, TypeBookingConfirmation, to, name, subject, body)
}

func (s *Service) SendCancellation(ctx context.Context, to, name, providerName, bookingID string, when time.Time) error {
	subject := "Session Cancelled - Refund Issued"
	body := fmt.Sprintf(`Hi %s,

Your session has been cancelled and a full refund was issued:

Provider: %s
Booking ID: %s
Time: %s

- SpeakBook Team`, name, providerName, bookingID, when.Format("Jan 2, 2006 at 3:04 PM MST"))

	return s.Send(ctx, TypeCancellation, to, name, subject, body)
}
