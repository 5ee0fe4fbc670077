package lease

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrLeaseWrite = errors.New("lease write failed")

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusDone       Status = "DONE"
	StatusFailed     Status = "FAILED"
)

// Record field names in the lease table. The external reaper reads
// lockTTL to decide whether a job was abandoned.
const (
	fieldStatus    = "status"
	fieldLockTTL   = "lockTTL"
	fieldLockedBy  = "lockedBy"
	fieldUpdatedAt = "updatedAt"
)

// Table is the lease table: one record per content id.
type Table interface {
	// Upsert writes the given fields into the record, creating it if needed.
	Upsert(ctx context.Context, id string, fields map[string]string) error
	// SetAndClear atomically writes set and removes clear from the record.
	SetAndClear(ctx context.Context, id string, set map[string]string, clear []string) error
}

// Manager owns the distributed lease for one job. Refreshes are
// idempotent upserts, so last write wins and no further coordination is
// needed between the heartbeat and the main sequence.
type Manager struct {
	table    Table
	ttl      time.Duration
	interval time.Duration
	ownerID  string
	clock    func() time.Time
	logger   zerolog.Logger
}

func NewManager(table Table, ttl, interval time.Duration, ownerID string, logger zerolog.Logger) *Manager {
	return &Manager{
		table:    table,
		ttl:      ttl,
		interval: interval,
		ownerID:  ownerID,
		clock:    time.Now,
		logger:   logger.With().Str("component", "lease").Logger(),
	}
}

// Acquire claims the lease and marks the job processing. Safe to call
// again; it degenerates into a refresh.
func (m *Manager) Acquire(ctx context.Context, id string) error {
	now := m.clock()
	err := m.table.Upsert(ctx, id, map[string]string{
		fieldStatus:    string(StatusProcessing),
		fieldLockTTL:   epoch(now.Add(m.ttl)),
		fieldLockedBy:  m.ownerID,
		fieldUpdatedAt: epoch(now),
	})
	if err != nil {
		return fmt.Errorf("%w: acquire %s: %v", ErrLeaseWrite, id, err)
	}
	return nil
}

// Refresh extends the lease expiry. Idempotent; the record always ends
// up with the TTL from the most recent call.
func (m *Manager) Refresh(ctx context.Context, id string) error {
	now := m.clock()
	err := m.table.Upsert(ctx, id, map[string]string{
		fieldLockTTL:   epoch(now.Add(m.ttl)),
		fieldLockedBy:  m.ownerID,
		fieldUpdatedAt: epoch(now),
	})
	if err != nil {
		return fmt.Errorf("%w: refresh %s: %v", ErrLeaseWrite, id, err)
	}
	return nil
}

// StartHeartbeat refreshes the lease every interval until the returned
// stop function is called. The interval must stay well under the TTL so
// at least two refreshes land before expiry. A failed refresh is logged
// and swallowed: the next beat may succeed, and aborting a minutes-long
// encode over one missed write would be worse than a late lease.
//
// Stop is idempotent and waits for the goroutine to exit; callers must
// invoke it on every exit path.
func (m *Manager) StartHeartbeat(ctx context.Context, id string) (stop func()) {
	hbCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				if err := m.Refresh(hbCtx, id); err != nil {
					m.logger.Warn().Err(err).Str("content_id", id).Msg("heartbeat refresh failed")
					continue
				}
				m.logger.Debug().Str("content_id", id).Msg("lease refreshed")
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

// MarkTerminal records the final job status and clears the lock fields
// in one atomic write, so the record no longer competes for
// re-acquisition.
func (m *Manager) MarkTerminal(ctx context.Context, id string, status Status) error {
	err := m.table.SetAndClear(ctx, id,
		map[string]string{
			fieldStatus:    string(status),
			fieldUpdatedAt: epoch(m.clock()),
		},
		[]string{fieldLockTTL, fieldLockedBy},
	)
	if err != nil {
		return fmt.Errorf("%w: mark %s %s: %v", ErrLeaseWrite, id, status, err)
	}
	return nil
}

func epoch(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
