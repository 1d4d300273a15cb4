package config

// NotificationConfig defines configuration for cycle notifications
type NotificationConfig struct {
	DiscordWebhookURL   string `json:"discord_webhook_url,omitempty" yaml:"discord_webhook_url,omitempty" validate:"omitempty,url"`
	NotifyOnWarningOnly bool   `json:"notify_on_warning_only" yaml:"notify_on_warning_only"`
	TimeoutSeconds      int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"min=1,max=3600"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		DiscordWebhookURL:   "",
		NotifyOnWarningOnly: false,
		TimeoutSeconds:      DefaultNotificationTimeoutSeconds,
	}
}

// Enabled reports whether a webhook is configured
func (nc NotificationConfig) Enabled() bool {
	return nc.DiscordWebhookURL != ""
}
