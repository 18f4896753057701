package domain

import (
	"context"
)

// StateRepository persists the processing state between runs.
type StateRepository interface {
	GetState(ctx context.Context, path string) (*ProcessingState, error)
	StoreState(ctx context.Context, path string, state *ProcessingState) error
}

// LedgerRepository persists the not-found ledger.
type LedgerRepository interface {
	GetLedger(ctx context.Context, path string) (*NotFoundLedger, error)
	StoreLedger(ctx context.Context, path string, ledger *NotFoundLedger) error
}

// OverrideRepository persists the manual match-overrides file.
type OverrideRepository interface {
	GetOverrides(ctx context.Context, path string) (*MatchOverrides, error)
	StoreOverrides(ctx context.Context, path string, overrides *MatchOverrides) error
}
