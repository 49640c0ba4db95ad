// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physai/fieldbook/pkg/uuid"
)

// PostgresSink persists audit events into the system.auditlog table.
//
// It honors the package durability contract: insert failures are logged at
// ERROR level and dropped, never surfaced to the caller.
type PostgresSink struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresSink creates a PostgresSink backed by the given pool.
func NewPostgresSink(pool *pgxpool.Pool, logger *slog.Logger) *PostgresSink {
	return &PostgresSink{
		pool:   pool,
		logger: logger,
	}
}

// Record implements [Sink]. It fills in the event ID and timestamp when the
// caller left them zero, then appends the row.
func (s *PostgresSink) Record(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	var detail []byte
	if len(event.Detail) > 0 {
		encoded, err := json.Marshal(event.Detail)
		if err != nil {
			// Drop the detail payload but still record the event itself.
			s.logger.Error("audit_detail_encode_failed",
				slog.String("kind", string(event.Kind)),
				slog.Any("error", err),
			)
		} else {
			detail = encoded
		}
	}

	query := `
		INSERT INTO system.auditlog (id, accountid, kind, sourceip, useragent, detail, createdat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		event.ID,
		event.AccountID,
		string(event.Kind),
		event.SourceIP,
		event.UserAgent,
		detail,
		event.CreatedAt,
	)
	if err != nil {
		s.logger.Error("audit_write_failed",
			slog.String("event_id", event.ID),
			slog.String("kind", string(event.Kind)),
			slog.Any("error", err),
		)
		return
	}

	s.logger.Debug("audit_event_recorded",
		slog.String("event_id", event.ID),
		slog.String("kind", string(event.Kind)),
	)
}
