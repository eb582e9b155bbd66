package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "flightsurety/pkg/domain-errors"
	audit "flightsurety/pkg/platform/audit"
	txcontext "flightsurety/pkg/platform/tx"
)

const defaultAuditTxTimeout = 5 * time.Second

// auditPostgresTx appends each consumed event inside its own transaction so
// the store's insert picks up the tx from context.
type auditPostgresTx struct {
	db      *sql.DB
	store   audit.Store
	timeout time.Duration
}

func newAuditPostgresTx(db *sql.DB, store audit.Store) *auditPostgresTx {
	return &auditPostgresTx{db: db, store: store}
}

func (t *auditPostgresTx) Handle(ctx context.Context, event audit.Event) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultAuditTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return txcontext.Run(ctx, t.db, func(ctx context.Context) error {
		return t.store.Append(ctx, event)
	})
}
