package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/akakabu/akakabu-server/internal/common"
	"github.com/akakabu/akakabu-server/internal/interfaces"
)

// Scheduler runs the nightly credential refresh. Refreshing access tokens
// proactively keeps the first request of the day off the 401-retry path.
type Scheduler struct {
	quotes      interfaces.QuotesClient
	credentials interfaces.CredentialStore
	logger      *common.Logger
	cron        *cron.Cron
}

// NewScheduler creates a new scheduler.
func NewScheduler(quotes interfaces.QuotesClient, credentials interfaces.CredentialStore, logger *common.Logger) *Scheduler {
	return &Scheduler{
		quotes:      quotes,
		credentials: credentials,
		logger:      logger,
		cron:        cron.New(),
	}
}

// Start registers the refresh job with the given cron spec and starts the
// scheduler. An empty spec disables the job.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		s.logger.Info().Msg("Credential refresh schedule disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(spec, s.refreshAll); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", spec).Msg("Credential refresh scheduled")
	return nil
}

// Stop stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// refreshAll walks every stored credential and refreshes its access token.
// Per-credential failures are logged and skipped; one bad refresh token must
// not stall the rest of the walk.
func (s *Scheduler) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	creds, err := s.credentials.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Credential refresh walk failed to list credentials")
		return
	}

	refreshed := 0
	for _, cred := range creds {
		token, err := s.quotes.RefreshAccessToken(ctx, cred)
		if err != nil || token == "" {
			s.logger.Warn().
				Err(err).
				Str("user_id", cred.UserID).
				Msg("Credential refresh failed, skipping")
			continue
		}
		refreshed++
	}

	s.logger.Info().
		Int("total", len(creds)).
		Int("refreshed", refreshed).
		Msg("Nightly credential refresh complete")
}
