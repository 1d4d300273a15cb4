package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/aleister1102/neveridle/internal/common"
	"github.com/aleister1102/neveridle/internal/httpclient"
	"github.com/aleister1102/neveridle/internal/models"
	"github.com/rs/zerolog"
)

// DiscordNotifier posts messages to a Discord webhook.
type DiscordNotifier struct {
	logger     zerolog.Logger
	httpClient *httpclient.HTTPClient
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(logger zerolog.Logger, httpClient *httpclient.HTTPClient) *DiscordNotifier {
	return &DiscordNotifier{
		logger:     logger.With().Str("module", "DiscordNotifier").Logger(),
		httpClient: httpClient,
	}
}

// SendNotification posts payload as multipart payload_json.
func (dn *DiscordNotifier) SendNotification(ctx context.Context, webhookURL string, payload models.DiscordMessagePayload) error {
	if webhookURL == "" {
		return nil
	}
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return common.NewConfigurationError("notification_settings", "discord_webhook_url", "invalid URL", err)
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return common.WrapError(err, "failed to marshal discord payload")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("payload_json", string(payloadJSON)); err != nil {
		return common.WrapError(err, "failed to write payload_json to multipart")
	}
	if err := writer.Close(); err != nil {
		return common.WrapError(err, "failed to close multipart writer")
	}

	resp, err := dn.httpClient.Do(&httpclient.HTTPRequest{
		Method:  http.MethodPost,
		URL:     webhookURL,
		Headers: map[string]string{"Content-Type": writer.FormDataContentType()},
		Body:    body.Bytes(),
		Context: ctx,
	})
	if err != nil {
		return common.WrapError(err, "failed to send discord notification")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return common.WrapError(httpclient.NewHTTPError(resp.StatusCode, resp.Body), "discord notification rejected")
	}

	dn.logger.Debug().Int("status_code", resp.StatusCode).Msg("Discord notification sent")
	return nil
}
