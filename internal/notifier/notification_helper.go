package notifier

import (
	"context"
	"os"
	"time"

	"github.com/aleister1102/neveridle/internal/config"
	"github.com/aleister1102/neveridle/internal/models"
	"github.com/rs/zerolog"
)

// Sender delivers a payload to a webhook
type Sender interface {
	SendNotification(ctx context.Context, webhookURL string, payload models.DiscordMessagePayload) error
}

// NotificationHelper decides whether a cycle is worth reporting and sends it
type NotificationHelper struct {
	sender   Sender
	cfg      config.NotificationConfig
	hostname string
	logger   zerolog.Logger
}

// NewNotificationHelper creates a new NotificationHelper
func NewNotificationHelper(sender Sender, cfg config.NotificationConfig, logger zerolog.Logger) *NotificationHelper {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &NotificationHelper{
		sender:   sender,
		cfg:      cfg,
		hostname: hostname,
		logger:   logger.With().Str("module", "NotificationHelper").Logger(),
	}
}

// ShouldNotify applies the webhook and warning-only settings
func (nh *NotificationHelper) ShouldNotify(report models.CycleReport) bool {
	if !nh.cfg.Enabled() {
		return false
	}
	if nh.cfg.NotifyOnWarningOnly && report.Outcome() == models.OutcomeSuccess {
		return false
	}
	return true
}

// NotifyCycle sends the cycle summary. Failures are logged and never returned.
func (nh *NotificationHelper) NotifyCycle(ctx context.Context, report models.CycleReport) {
	if !nh.ShouldNotify(report) {
		return
	}

	timeout := time.Duration(nh.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = config.DefaultNotificationTimeoutSeconds * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload := FormatCycleReport(nh.hostname, report)
	if err := nh.sender.SendNotification(ctx, nh.cfg.DiscordWebhookURL, payload); err != nil {
		nh.logger.Error().Err(err).Int("cycle", report.Number).Msg("Failed to send cycle notification")
	}
}
