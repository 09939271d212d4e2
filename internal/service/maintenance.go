package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lcrowe/ledgerline/internal/database"
)

// Maintenance houses destructive ops actions.
type Maintenance struct {
	DB  *sql.DB
	Log zerolog.Logger
}

// Reset wipes every row the owner has, in an order that respects the link
// foreign keys. The schema stays intact so the next import starts clean.
func (s *Maintenance) Reset(ctx context.Context, ownerID string) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if ownerID == "" {
		return fmt.Errorf("maintenance: owner id is required")
	}
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		tables := []string{
			"transfer_links",
			"ledger_entries",
			"import_batches",
			"accounts",
			"institutions",
		}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t+" WHERE owner_id = ?", ownerID); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	// VACUUM cannot run inside a transaction
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	s.Log.Info().Str("owner_id", ownerID).Msg("data reset")
	return nil
}
