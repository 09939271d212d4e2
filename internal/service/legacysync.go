package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lcrowe/ledgerline/internal/database"
	"github.com/lcrowe/ledgerline/internal/database/repository"
)

// LegacyTransaction is the upstream shape of a transaction managed outside
// the import pipeline.
type LegacyTransaction struct {
	ID          string
	AccountID   string
	PostedAt    time.Time
	AmountCents int64
	Description string
	Category    *string
	Excluded    bool
}

// LegacySource fetches upstream transactions by id.
type LegacySource interface {
	FetchByIDs(ctx context.Context, ownerID string, ids []string) ([]LegacyTransaction, error)
}

// LegacySyncer keeps the ledger mirrored 1:1 with transactions created and
// edited outside the import pipeline.
type LegacySyncer struct {
	DB        *sql.DB
	Entries   *repository.EntryRepo
	Transfers *repository.TransferRepo
	Source    LegacySource
	Log       zerolog.Logger
}

// SyncForTransactions upserts the mirror entry of each upstream transaction,
// matched by external ref. An edit that moves the amount, date or account
// breaks any transfer link the mirror carried, since the pairing no longer
// holds; everything runs in one transaction.
func (s *LegacySyncer) SyncForTransactions(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	txs, err := s.Source.FetchByIDs(ctx, ownerID, ids)
	if err != nil {
		return fmt.Errorf("fetch source transactions: %w", err)
	}

	return database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		entries := repository.NewEntryRepo(tx)
		transfers := repository.NewTransferRepo(tx)
		for _, t := range txs {
			if err := s.upsert(ctx, entries, transfers, ownerID, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *LegacySyncer) upsert(ctx context.Context, entries *repository.EntryRepo, transfers *repository.TransferRepo, ownerID string, t LegacyTransaction) error {
	if t.AmountCents == 0 {
		s.Log.Warn().Str("external_ref", t.ID).Msg("zero-amount source transaction, not mirrored")
		return nil
	}

	existing, err := entries.GetByExternalRef(ctx, ownerID, t.ID)
	if err != nil {
		return fmt.Errorf("load mirror %s: %w", t.ID, err)
	}

	ref := t.ID
	next := buildEntry(ownerID, t.AccountID, ImportRow{
		PostedAt:    t.PostedAt,
		AmountCents: t.AmountCents,
		Description: t.Description,
		Category:    t.Category,
		ExternalRef: &ref,
	})
	next.Manual = true
	next.Excluded = t.Excluded

	if existing == nil {
		if err := entries.Insert(ctx, next); err != nil {
			if isUniqueViolation(err) {
				s.Log.Warn().Str("external_ref", t.ID).Msg("mirror collides with an existing entry, skipped")
				return nil
			}
			return fmt.Errorf("insert mirror %s: %w", t.ID, err)
		}
		return nil
	}

	moved := existing.AmountCents != next.AmountCents ||
		!existing.PostedAt.Equal(next.PostedAt) ||
		existing.AccountID != next.AccountID
	switch {
	case moved && existing.TransferLinkID != nil:
		link, err := transfers.Get(ctx, ownerID, *existing.TransferLinkID)
		if err != nil {
			return fmt.Errorf("load link: %w", err)
		}
		if link != nil {
			if err := unlinkPair(ctx, entries, transfers, ownerID, *link); err != nil {
				return err
			}
		}
	case !moved && existing.Type == repository.EntryTransfer:
		// pairing still holds, keep the reclassification
		next.Type = repository.EntryTransfer
	}

	next.ID = existing.ID
	if err := entries.Update(ctx, next); err != nil {
		if isUniqueViolation(err) {
			s.Log.Warn().Str("external_ref", t.ID).Msg("mirror update collides with an existing entry, skipped")
			return nil
		}
		return fmt.Errorf("update mirror %s: %w", t.ID, err)
	}
	return nil
}

// DeleteForTransactions removes the mirror of each upstream transaction. A
// linked mirror takes its link down with it and the partner entry reverts to
// its original type.
func (s *LegacySyncer) DeleteForTransactions(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		entries := repository.NewEntryRepo(tx)
		transfers := repository.NewTransferRepo(tx)
		for _, id := range ids {
			e, err := entries.GetByExternalRef(ctx, ownerID, id)
			if err != nil {
				return fmt.Errorf("load mirror %s: %w", id, err)
			}
			if e == nil {
				continue
			}

			links, err := transfers.ListByEntry(ctx, ownerID, e.ID)
			if err != nil {
				return fmt.Errorf("list links for %s: %w", id, err)
			}
			for _, link := range links {
				if err := unlinkPair(ctx, entries, transfers, ownerID, link); err != nil {
					return err
				}
			}

			if err := entries.Delete(ctx, ownerID, e.ID); err != nil {
				return fmt.Errorf("delete mirror %s: %w", id, err)
			}
		}
		return nil
	})
}

// unlinkPair tears a link down completely: both legs revert to their original
// types and the link row goes away.
func unlinkPair(ctx context.Context, entries *repository.EntryRepo, transfers *repository.TransferRepo, ownerID string, link repository.TransferLink) error {
	if err := entries.DetachLink(ctx, link.OutEntryID); err != nil {
		return fmt.Errorf("detach out leg: %w", err)
	}
	if err := entries.DetachLink(ctx, link.InEntryID); err != nil {
		return fmt.Errorf("detach in leg: %w", err)
	}
	if err := transfers.Delete(ctx, ownerID, link.ID); err != nil {
		return fmt.Errorf("delete link %s: %w", link.ID, err)
	}
	return nil
}
