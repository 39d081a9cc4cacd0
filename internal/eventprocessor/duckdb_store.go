// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build nats

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/slbailey/retrovue/internal/logging"
	"github.com/slbailey/retrovue/internal/models"
)

// HorizonAuditInserter defines the interface for inserting horizon audit
// rows. This abstraction lets DuckDBStore work with the database package
// without importing it directly, avoiding an import cycle (internal/database
// already imports internal/eventprocessor's config for wiring).
type HorizonAuditInserter interface {
	InsertHorizonAuditRow(row models.HorizonAuditRow) error
}

// BatchHorizonAuditInserter extends HorizonAuditInserter with an
// all-or-nothing batch insert. Implementations must use a transaction.
type BatchHorizonAuditInserter interface {
	HorizonAuditInserter

	// InsertHorizonAuditRowsBatch atomically inserts a batch of rows.
	InsertHorizonAuditRowsBatch(ctx context.Context, rows []models.HorizonAuditRow) (inserted int, err error)
}

// DuckDBStore implements EventStore using the DuckDB-backed
// horizon_audit_log table. It converts HorizonAuditEvent to
// models.HorizonAuditRow and delegates to the database layer.
type DuckDBStore struct {
	db      HorizonAuditInserter
	batchDB BatchHorizonAuditInserter // nil if db doesn't support batch ops
}

// NewDuckDBStore creates a new DuckDBStore with the given database.
func NewDuckDBStore(db HorizonAuditInserter) (*DuckDBStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}

	store := &DuckDBStore{db: db}
	if batchDB, ok := db.(BatchHorizonAuditInserter); ok {
		store.batchDB = batchDB
		logging.Info().Msg("STORE: atomic batch insert support enabled")
	} else {
		logging.Warn().Msg("STORE: database does not support atomic batch inserts, using individual inserts")
	}

	return store, nil
}

// InsertEvents converts and inserts a batch of horizon audit events. Uses
// atomic batch insert when available; falls back to individual inserts.
func (s *DuckDBStore) InsertEvents(ctx context.Context, events []*HorizonAuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]models.HorizonAuditRow, len(events))
	for i, event := range events {
		rows[i] = horizonAuditEventToRow(event)
	}

	if s.batchDB != nil {
		inserted, err := s.batchDB.InsertHorizonAuditRowsBatch(ctx, rows)
		if err != nil {
			return fmt.Errorf("atomic batch insert failed: %w", err)
		}
		logging.Debug().Int("inserted", inserted).Int("total", len(events)).Msg("STORE: atomic batch success")
		return nil
	}

	logging.Warn().Msg("STORE: using non-atomic individual inserts (partial state possible on failure)")
	for i, row := range rows {
		if err := s.db.InsertHorizonAuditRow(row); err != nil {
			return fmt.Errorf("insert event %d (%s): %w", i, events[i].EventID, err)
		}
	}
	return nil
}

// horizonAuditEventToRow converts a HorizonAuditEvent to its database row
// representation.
func horizonAuditEventToRow(event *HorizonAuditEvent) models.HorizonAuditRow {
	return models.HorizonAuditRow{
		ChannelID:     event.ChannelID,
		EventType:     event.EventType,
		BroadcastDay:  event.BroadcastDay,
		FrontierUTCMS: event.FrontierUTCMS,
		ReasonCode:    event.ReasonCode,
		Detail:        event.Detail,
		RecordedAtUTC: event.RecordedAtUTC,
	}
}
