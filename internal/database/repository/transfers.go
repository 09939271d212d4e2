package repository

import (
	"context"
	"database/sql"
)

// TransferRepo handles transfer links.
type TransferRepo struct {
	db DBTX
}

func NewTransferRepo(db DBTX) *TransferRepo { return &TransferRepo{db: db} }

func (r *TransferRepo) Insert(ctx context.Context, l TransferLink) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transfer_links(id, owner_id, out_entry_id, in_entry_id, match_kind, status, confidence, fee_delta_cents, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, l.ID, l.OwnerID, l.OutEntryID, l.InEntryID, l.MatchKind, l.Status, l.Confidence, l.FeeDeltaCents)
	return err
}

func (r *TransferRepo) Get(ctx context.Context, ownerID, id string) (*TransferLink, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+linkCols+` FROM transfer_links WHERE owner_id = ? AND id = ?`, ownerID, id)
	return scanLink(row)
}

// GetConfirmedByEntry finds the confirmed link an entry participates in,
// on either side.
func (r *TransferRepo) GetConfirmedByEntry(ctx context.Context, ownerID, entryID string) (*TransferLink, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+linkCols+` FROM transfer_links WHERE owner_id = ? AND status = ? AND (out_entry_id = ? OR in_entry_id = ?)`, ownerID, LinkConfirmed, entryID, entryID)
	return scanLink(row)
}

// ListByEntry returns every link row touching the entry regardless of
// status. Callers removing an entry must clear all of these first.
func (r *TransferRepo) ListByEntry(ctx context.Context, ownerID, entryID string) ([]TransferLink, error) {
	return r.list(ctx, `SELECT `+linkCols+` FROM transfer_links WHERE owner_id = ? AND (out_entry_id = ? OR in_entry_id = ?) ORDER BY created_at DESC, id`, ownerID, entryID, entryID)
}

// ListPending returns the reconciliation inbox, newest suggestions first.
func (r *TransferRepo) ListPending(ctx context.Context, ownerID string) ([]TransferLink, error) {
	return r.list(ctx, `SELECT `+linkCols+` FROM transfer_links WHERE owner_id = ? AND status = ? ORDER BY created_at DESC, id`, ownerID, LinkPending)
}

func (r *TransferRepo) ListByStatus(ctx context.Context, ownerID, status string) ([]TransferLink, error) {
	return r.list(ctx, `SELECT `+linkCols+` FROM transfer_links WHERE owner_id = ? AND status = ? ORDER BY created_at DESC, id`, ownerID, status)
}

// HasPair reports whether any link, whatever its status, already covers the
// pair. Dismissed suggestions count, so re-runs never resurrect them.
func (r *TransferRepo) HasPair(ctx context.Context, outEntryID, inEntryID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transfer_links WHERE out_entry_id = ? AND in_entry_id = ?`, outEntryID, inEntryID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *TransferRepo) UpdateStatus(ctx context.Context, ownerID, id, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transfer_links SET status = ?, updated_at=CURRENT_TIMESTAMP WHERE owner_id = ? AND id = ?`, status, ownerID, id)
	return err
}

func (r *TransferRepo) Delete(ctx context.Context, ownerID, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transfer_links WHERE owner_id = ? AND id = ?`, ownerID, id)
	return err
}

const linkCols = `id, owner_id, out_entry_id, in_entry_id, match_kind, status, confidence, fee_delta_cents, created_at, updated_at`

func (r *TransferRepo) list(ctx context.Context, query string, args ...interface{}) ([]TransferLink, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TransferLink
	for rows.Next() {
		l, err := scanLinkRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLink(row scanner) (*TransferLink, error) {
	l, err := scanLinkRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func scanLinkRow(row scanner) (TransferLink, error) {
	var l TransferLink
	var confidence sql.NullFloat64
	var feeDelta sql.NullInt64
	if err := row.Scan(&l.ID, &l.OwnerID, &l.OutEntryID, &l.InEntryID, &l.MatchKind, &l.Status, &confidence, &feeDelta, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return TransferLink{}, err
	}
	if confidence.Valid {
		l.Confidence = &confidence.Float64
	}
	if feeDelta.Valid {
		l.FeeDeltaCents = &feeDelta.Int64
	}
	return l, nil
}
