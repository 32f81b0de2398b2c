package service

import (
	"context"
	"time"
)

const ledgerAttempts = 3

// record appends an audit entry, retrying transient failures. The balance
// change it describes is already committed, so a final failure is counted
// and logged with the whole entry for reconciliation.
func (s *RewardsService) record(ctx context.Context, kind string, entry any, write func(context.Context) error) {
	// The entry must land even when the caller hangs up
	ctx = context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= ledgerAttempts; attempt++ {
		if err = write(ctx); err == nil {
			return
		}
		if attempt < ledgerAttempts {
			s.logger.Debug("ledger write failed, retrying", "kind", kind, "attempt", attempt, "error", err)
			time.Sleep(time.Duration(attempt) * s.ledgerBackoff)
		}
	}

	s.metrics.LedgerFailure(kind)
	s.logger.Error("failed to record ledger entry", "kind", kind, "entry", entry, "error", err)
}
