// internal/platform/schedule/scheduler.go
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

var (
	ErrNilProcessor = errors.New("schedule: processor is nil")
)

// Default cadences (5-field cron, evaluated in UTC).
const (
	// DefaultPrimaryCronSpec fires four times a day.
	DefaultPrimaryCronSpec = "0 8,12,16,20 * * *"
	// DefaultFallbackCronSpec is the independent every-12h safety net.
	DefaultFallbackCronSpec = "0 */12 * * *"
)

// Processor is the batch entry point the scheduler drives
// (implemented by usecase.AbandonmentUsecase).
type Processor interface {
	ProcessAbandonedCarts(ctx context.Context) int
}

// Config holds the two cadence expressions. Empty fields fall back to the
// defaults; invalid expressions fail Start() so the host process dies at boot
// instead of silently never running.
type Config struct {
	PrimaryCronSpec  string
	FallbackCronSpec string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.PrimaryCronSpec) == "" {
		c.PrimaryCronSpec = DefaultPrimaryCronSpec
	}
	if strings.TrimSpace(c.FallbackCronSpec) == "" {
		c.FallbackCronSpec = DefaultFallbackCronSpec
	}
	return c
}

// Status is the operational snapshot for the ops surface.
type Status struct {
	IsRunning    bool       `json:"isRunning"`
	IsProcessing bool       `json:"isProcessing"`
	NextRun      *time.Time `json:"nextRun,omitempty"`
}

// AbandonmentScheduler owns recurring, non-overlapping execution of the
// abandonment pass.
//
// Two independent cron timers (primary + fallback) and the manual trigger all
// converge on RunAbandonmentCheck, which is guarded by a single reentrancy
// flag: a firing that arrives while a run is in flight is skipped entirely,
// never queued. The flag is released via defer so a failed run cannot wedge
// the scheduler in "processing forever".
type AbandonmentScheduler struct {
	processor Processor
	cfg       Config

	mu         sync.Mutex
	cron       *cron.Cron
	primaryID  cron.EntryID
	running    bool
	processing bool
}

func NewAbandonmentScheduler(processor Processor, cfg Config) (*AbandonmentScheduler, error) {
	if processor == nil {
		return nil, ErrNilProcessor
	}
	return &AbandonmentScheduler{
		processor: processor,
		cfg:       cfg.withDefaults(),
	}, nil
}

// Start registers both cadences and begins firing. Calling Start on a
// running scheduler is a logged no-op. An invalid cron expression is a
// configuration error and propagates.
func (s *AbandonmentScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Printf("[scheduler] Start ignored: already running")
		return nil
	}

	c := cron.New(cron.WithLocation(time.UTC))

	primaryID, err := c.AddFunc(s.cfg.PrimaryCronSpec, func() { s.runScheduled("primary") })
	if err != nil {
		return fmt.Errorf("schedule: invalid primary cron spec %q: %w", s.cfg.PrimaryCronSpec, err)
	}
	if _, err := c.AddFunc(s.cfg.FallbackCronSpec, func() { s.runScheduled("fallback") }); err != nil {
		return fmt.Errorf("schedule: invalid fallback cron spec %q: %w", s.cfg.FallbackCronSpec, err)
	}

	c.Start()

	s.cron = c
	s.primaryID = primaryID
	s.running = true

	log.Printf("[scheduler] started primary=%q fallback=%q", s.cfg.PrimaryCronSpec, s.cfg.FallbackCronSpec)
	return nil
}

// Stop halts future firings. An in-flight run is not cancelled; it completes
// and clears the processing flag normally. Stop on a stopped scheduler is a
// no-op.
func (s *AbandonmentScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cron.Stop()
	s.cron = nil
	s.running = false

	log.Printf("[scheduler] stopped")
}

// Status reports the running / processing flags and the primary timer's next
// firing (nil when stopped).
func (s *AbandonmentScheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		IsRunning:    s.running,
		IsProcessing: s.processing,
	}
	if s.running && s.cron != nil {
		if next := s.cron.Entry(s.primaryID).Next; !next.IsZero() {
			st.NextRun = &next
		}
	}
	return st
}

// RunAbandonmentCheck executes one guarded pass and returns the best-effort
// notification count. When a run is already in flight the call is skipped
// (returns 0). Safe to call on a stopped scheduler (manual / ops trigger).
func (s *AbandonmentScheduler) RunAbandonmentCheck(ctx context.Context) int {
	if !s.beginRun() {
		log.Printf("[scheduler] run skipped: previous run still processing")
		return 0
	}
	defer s.endRun()

	runID := uuid.NewString()

	sent := 0
	func() {
		// A panic escaping the processor must not kill the cron goroutine
		// or leave the processing flag set.
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[scheduler] WARN: run %s panicked: %v", runID, r)
			}
		}()

		start := time.Now()
		log.Printf("[scheduler] run %s started", runID)
		sent = s.processor.ProcessAbandonedCarts(ctx)
		log.Printf("[scheduler] run %s finished sent=%d took=%s", runID, sent, time.Since(start).Round(time.Millisecond))
	}()

	return sent
}

func (s *AbandonmentScheduler) runScheduled(trigger string) {
	log.Printf("[scheduler] %s timer fired", trigger)
	s.RunAbandonmentCheck(context.Background())
}

func (s *AbandonmentScheduler) beginRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processing {
		return false
	}
	s.processing = true
	return true
}

func (s *AbandonmentScheduler) endRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
}
