package notify

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/assembleme/platform_be_assembly/internal/apperrors"
	"github.com/assembleme/platform_be_assembly/internal/models"
)

// Service posts newly created tasks to an external fan-out endpoint that
// emails approved taskers. Everything here is best-effort: a failed POST is
// logged and swallowed, never rolling back the task that triggered it.
type Service struct {
	Client     *http.Client
	WebhookURL string
	Secret     string
}

func New(webhookURL, secret string) *Service {
	return &Service{
		Client:     &http.Client{Timeout: 10 * time.Second},
		WebhookURL: webhookURL,
		Secret:     secret,
	}
}

type taskCreatedPayload struct {
	Task    *models.TaskRequest `json:"task"`
	Subject string              `json:"subject"`
}

// TaskCreated fires the fan-out POST for a fresh task. Callers usually run
// it in a goroutine via TaskCreatedAsync.
func (s *Service) TaskCreated(task *models.TaskRequest) error {
	if s.WebhookURL == "" {
		return nil
	}

	body, err := json.Marshal(taskCreatedPayload{
		Task:    task,
		Subject: "New Task Available: " + task.Title,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Secret != "" {
		req.Header.Set("X-Notify-Signature", s.sign(body))
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return apperrors.ExternalService("notification dispatch failed: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apperrors.ExternalService(fmt.Sprintf("notification endpoint returned %d", resp.StatusCode))
	}

	return nil
}

func (s *Service) TaskCreatedAsync(task *models.TaskRequest) {
	go func() {
		if err := s.TaskCreated(task); err != nil {
			log.Printf("[Notify] Task %s fan-out failed: %v", task.ID, err)
		}
	}()
}

// sign computes HMAC-SHA256(body, secret) so the consumer can verify the
// POST came from us.
func (s *Service) sign(body []byte) string {
	h := hmac.New(sha256.New, []byte(s.Secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
