// internal/platform/di/worker/container.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"google.golang.org/api/option"

	fsrepo "threadline/internal/adapters/out/firestore"
	"threadline/internal/adapters/out/mail"
	uc "threadline/internal/application/usecase"
	cartdom "threadline/internal/domain/cart"
	appcfg "threadline/internal/infra/config"
	"threadline/internal/platform/schedule"
)

// Container is the worker's runtime wiring.
// - owns external clients (Firestore / SecretManager; Close-managed)
// - owns the abandonment usecase and its scheduler
//
// Firestore is strict (boot fails without it); Secret Manager is best-effort
// (only the SendGrid key fallback depends on it).
type Container struct {
	Config *appcfg.Config

	// Clients (owned)
	Firestore     *firestore.Client
	SecretManager *secretmanager.Client

	// Core
	Abandonment *uc.AbandonmentUsecase
	Scheduler   *schedule.AbandonmentScheduler
}

// NewContainer initializes clients and wires the abandonment core.
func NewContainer(ctx context.Context, cfg *appcfg.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di.worker: cfg is nil")
	}
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("di.worker: projectID is empty (set FIRESTORE_PROJECT_ID or GOOGLE_CLOUD_PROJECT)")
	}

	c := &Container{Config: cfg}

	// Credentials file (optional; mainly for local dev)
	var clientOpts []option.ClientOption
	if credFile := strings.TrimSpace(cfg.CredentialsFile); credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Printf("[di.worker] Using credentials file for GCP clients")
	} else {
		log.Printf("[di.worker] Using Application Default Credentials")
	}

	// 1) Firestore (strict)
	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("di.worker: firestore.NewClient failed (project=%s): %w", cfg.ProjectID, err)
	}
	c.Firestore = fsClient
	log.Printf("[di.worker] Firestore connected project=%s", cfg.ProjectID)

	// 2) Secret Manager (best-effort; used by the SendGrid key fallback)
	sm, err := secretmanager.NewClient(ctx, clientOpts...)
	if err != nil {
		log.Printf("[di.worker] WARN: secretmanager.NewClient failed: %v (SendGrid key must come from env)", err)
		sm = nil
	}
	c.SecretManager = sm

	// 3) Adapters
	cartRepo := fsrepo.NewCartRepositoryFS(fsClient, cfg.CartsCollection)
	userDir := fsrepo.NewUserDirectoryFS(fsClient, cfg.UsersCollection)
	mailer := mail.NewAbandonmentMailerWithSendGrid(ctx, cfg, sm)

	// 4) Usecase
	policy := cartdom.AbandonmentPolicy{
		Threshold:        cfg.Threshold(),
		Cooldown:         cfg.Cooldown(),
		MaxNotifications: cfg.MaxNotifications,
	}
	abandonment, err := uc.NewAbandonmentUsecase(cartRepo, userDir, mailer, policy, uc.AbandonmentOptions{
		SendDelay:      cfg.SendDelay,
		MaxRunDuration: cfg.MaxRunDuration,
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("di.worker: abandonment usecase wiring failed: %w", err)
	}
	c.Abandonment = abandonment

	// 5) Scheduler (cron specs validated at Start)
	scheduler, err := schedule.NewAbandonmentScheduler(abandonment, schedule.Config{
		PrimaryCronSpec:  cfg.PrimaryCronSpec,
		FallbackCronSpec: cfg.FallbackCronSpec,
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("di.worker: scheduler wiring failed: %w", err)
	}
	c.Scheduler = scheduler

	return c, nil
}

// Close releases the owned clients. Safe to call more than once.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}

	var firstErr error
	if c.SecretManager != nil {
		if err := c.SecretManager.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.SecretManager = nil
	}
	if c.Firestore != nil {
		if err := c.Firestore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.Firestore = nil
	}
	return firstErr
}
