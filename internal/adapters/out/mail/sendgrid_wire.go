// internal/adapters/out/mail/sendgrid_wire.go
package mail

import (
	"context"
	"log"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	appcfg "threadline/internal/infra/config"
)

// NewAbandonmentMailerWithSendGrid builds the production AbandonmentMailer.
//
// API key resolution order:
//  1. SENDGRID_API_KEY (env, via cfg)
//  2. Secret Manager: projects/<project>/secrets/<SENDGRID_API_KEY_SECRET_ID>/versions/latest
//     (sm may be nil when Secret Manager is unavailable; then only env works)
//
// A missing key is a warning, not an error: the mailer is constructed and
// every Send fails loudly instead, which keeps boot behavior predictable.
func NewAbandonmentMailerWithSendGrid(ctx context.Context, cfg *appcfg.Config, sm *secretmanager.Client) *AbandonmentMailer {
	apiKey := strings.TrimSpace(cfg.SendGridAPIKey)

	if apiKey == "" && strings.TrimSpace(cfg.SendGridAPIKeySecretID) != "" && sm != nil {
		name := "projects/" + cfg.ProjectID + "/secrets/" + strings.TrimSpace(cfg.SendGridAPIKeySecretID) + "/versions/latest"
		resp, err := sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		if err != nil {
			log.Printf("[mail] WARN: AccessSecretVersion failed (%s): %v", name, err)
		} else if resp != nil && resp.Payload != nil {
			apiKey = strings.TrimSpace(string(resp.Payload.Data))
			log.Printf("[mail] SendGrid API key loaded from Secret Manager")
		}
	}

	if apiKey == "" {
		log.Printf("[mail] WARN: SendGrid API key is empty. AbandonmentMailer will fail to send mail.")
	}
	if strings.TrimSpace(cfg.SendGridFrom) == "" {
		log.Printf("[mail] WARN: SENDGRID_FROM is empty. AbandonmentMailer will fail to send mail.")
	}

	mallBaseURL := strings.TrimSpace(cfg.MallBaseURL)
	if mallBaseURL == "" {
		mallBaseURL = "https://shop.threadline.jp"
		log.Printf("[mail] INFO: MALL_BASE_URL is empty. default=%s", mallBaseURL)
	}

	client := NewSendGridClient(apiKey)
	mailer := NewAbandonmentMailer(client, cfg.SendGridFrom, mallBaseURL)

	log.Printf("[mail] AbandonmentMailerWithSendGrid initialized. from=%s baseURL=%s",
		cfg.SendGridFrom, mallBaseURL)

	return mailer
}
