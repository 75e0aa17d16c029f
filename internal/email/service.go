// Package email queues notification mail in Redis and delivers it over SMTP
// from a background worker.
package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"tokenbook/internal/logger"
	"tokenbook/internal/metrics"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
)

type Job struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Kind    string    `json:"kind"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Config struct {
	From     string
	FromName string
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
}

type Service struct {
	redis      *redis.Client
	cfg        Config
	retryDelay time.Duration
	send       func(job Job) error
}

func New(cfg Config, rdb *redis.Client) *Service {
	s := &Service{redis: rdb, cfg: cfg, retryDelay: 5 * time.Second}
	s.send = s.sendSMTP
	return s
}

// Enqueue pushes a job onto the queue; delivery happens in Start.
func (s *Service) Enqueue(ctx context.Context, kind, to, name, subject, body string) error {
	job := Job{
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Kind:    kind,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		metrics.RecordEmail(kind, "queue_failed")
		return fmt.Errorf("queue email to %s: %w", to, err)
	}

	logger.Debug("email queued", "kind", kind, "to", to)
	return nil
}

// Start runs the delivery loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker stopped")
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

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.WithError(err).Error("bad email job")
		return
	}

	job.Tries++
	if err := s.send(job); err != nil {
		logger.WithError(err).Warn("send email", "to", job.To, "attempt", job.Tries)
		s.retry(ctx, job, err)
		return
	}

	metrics.RecordEmail(job.Kind, "sent")
	logger.Info("email sent", "kind", job.Kind, "to", job.To)
}

func (s *Service) retry(ctx context.Context, job Job, sendErr error) {
	if job.Tries >= maxTries {
		metrics.RecordEmail(job.Kind, "failed")
		s.saveFailed(ctx, job, sendErr)
		return
	}

	select {
	case <-time.After(s.retryDelay):
	case <-ctx.Done():
	}

	data, _ := json.Marshal(job)
	if err := s.redis.LPush(context.WithoutCancel(ctx), queueKey, string(data)).Err(); err != nil {
		logger.WithError(err).Error("requeue email", "to", job.To)
		return
	}
	metrics.RecordEmail(job.Kind, "retried")
}

func (s *Service) saveFailed(ctx context.Context, job Job, sendErr error) {
	data, _ := json.Marshal(map[string]interface{}{
		"job":   job,
		"error": sendErr.Error(),
		"time":  time.Now(),
	})
	if err := s.redis.LPush(context.WithoutCancel(ctx), failedQueueKey, string(data)).Err(); err != nil {
		logger.WithError(err).Error("store failed email", "to", job.To)
		return
	}
	logger.Error("email moved to failed queue", "to", job.To, "tries", job.Tries)
}

func (s *Service) sendSMTP(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" && s.cfg.SMTPPass != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	return smtp.SendMail(addr, auth, s.cfg.From, []string{job.To}, []byte(message))
}

// QueueLength reports the pending job count and mirrors it to the gauge.
func (s *Service) QueueLength(ctx context.Context) int64 {
	length, err := s.redis.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0
	}
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
