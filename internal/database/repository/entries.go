package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// EntryFilters defines the uniform filter set applied to entry reads and
// aggregates. Zero values mean "no filter".
type EntryFilters struct {
	AccountID    string
	Type         string
	Category     string
	Search       string
	ExcludedOnly bool
	Direction    string
	Unlinked     bool // only entries with no transfer link
	From         time.Time
	To           time.Time
}

func (f EntryFilters) clauses() ([]string, []interface{}) {
	var where []string
	var args []interface{}

	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Search != "" {
		where = append(where, "normalized_description LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
	}
	if f.ExcludedOnly {
		where = append(where, "excluded = 1")
	}
	if f.Direction != "" {
		where = append(where, "direction = ?")
		args = append(args, f.Direction)
	}
	if f.Unlinked {
		where = append(where, "transfer_link_id IS NULL")
	}
	if !f.From.IsZero() {
		where = append(where, "posted_at >= ?")
		args = append(args, FormatDate(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "posted_at <= ?")
		args = append(args, FormatDate(f.To))
	}
	return where, args
}

const entryCols = `id, owner_id, account_id, posted_at, amount_cents, type, original_type, direction, description, normalized_description, category, external_ref, fingerprint, transfer_link_id, import_batch_id, manual, excluded, created_at, updated_at`

// EntryRepo handles ledger entries.
type EntryRepo struct {
	db DBTX
}

func NewEntryRepo(db DBTX) *EntryRepo { return &EntryRepo{db: db} }

func (r *EntryRepo) Insert(ctx context.Context, e LedgerEntry) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO ledger_entries(
	 id, owner_id, account_id, posted_at, amount_cents, type, original_type, direction,
	 description, normalized_description, category, external_ref, fingerprint,
	 transfer_link_id, import_batch_id, manual, excluded, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		e.ID, e.OwnerID, e.AccountID, FormatDate(e.PostedAt), e.AmountCents, e.Type, e.OriginalType,
		e.Direction, e.Description, e.NormalizedDescription, e.Category, e.ExternalRef, e.Fingerprint,
		e.TransferLinkID, e.ImportBatchID, e.Manual, e.Excluded)
	return err
}

// Update rewrites every derived field of an entry, used when a mirrored
// source transaction changes.
func (r *EntryRepo) Update(ctx context.Context, e LedgerEntry) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE ledger_entries SET
	 account_id = ?, posted_at = ?, amount_cents = ?, type = ?, direction = ?,
	 description = ?, normalized_description = ?, category = ?, fingerprint = ?,
	 excluded = ?, updated_at = CURRENT_TIMESTAMP
	WHERE owner_id = ? AND id = ?;
	`,
		e.AccountID, FormatDate(e.PostedAt), e.AmountCents, e.Type, e.Direction,
		e.Description, e.NormalizedDescription, e.Category, e.Fingerprint,
		e.Excluded, e.OwnerID, e.ID)
	return err
}

func (r *EntryRepo) Get(ctx context.Context, ownerID, id string) (*LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryCols+` FROM ledger_entries WHERE owner_id = ? AND id = ?`, ownerID, id)
	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *EntryRepo) GetByExternalRef(ctx context.Context, ownerID, ref string) (*LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryCols+` FROM ledger_entries WHERE owner_id = ? AND external_ref = ?`, ownerID, ref)
	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *EntryRepo) List(ctx context.Context, ownerID string, f EntryFilters) ([]LedgerEntry, error) {
	where, args := f.clauses()
	where = append([]string{"owner_id = ?"}, where...)
	args = append([]interface{}{ownerID}, args...)

	query := `SELECT ` + entryCols + ` FROM ledger_entries WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY posted_at DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AttachLink reclassifies an entry as a transfer leg. The prior type is kept
// so DetachLink can revert it.
func (r *EntryRepo) AttachLink(ctx context.Context, entryID, linkID string) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE ledger_entries SET original_type = type, type = ?, transfer_link_id = ?, updated_at=CURRENT_TIMESTAMP
	WHERE id = ?;
	`, EntryTransfer, linkID, entryID)
	return err
}

// DetachLink reverts an entry to the type it had before being linked.
func (r *EntryRepo) DetachLink(ctx context.Context, entryID string) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE ledger_entries SET type = COALESCE(original_type, type), original_type = NULL, transfer_link_id = NULL, updated_at=CURRENT_TIMESTAMP
	WHERE id = ?;
	`, entryID)
	return err
}

func (r *EntryRepo) UpdateCategory(ctx context.Context, ownerID, id string, category *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE ledger_entries SET category = ?, updated_at=CURRENT_TIMESTAMP WHERE owner_id = ? AND id = ?`, category, ownerID, id)
	return err
}

func (r *EntryRepo) SetExcluded(ctx context.Context, ownerID, id string, excluded bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE ledger_entries SET excluded = ?, updated_at=CURRENT_TIMESTAMP WHERE owner_id = ? AND id = ?`, excluded, ownerID, id)
	return err
}

func (r *EntryRepo) Delete(ctx context.Context, ownerID, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE owner_id = ? AND id = ?`, ownerID, id)
	return err
}

// Totals carries the three aggregate buckets a summary is built from.
// Sums are raw signed cents: income is positive, expense negative.
type Totals struct {
	IncomeCents   int64
	ExpenseCents  int64
	ExcludedCents int64
}

// SumTotals aggregates the filtered range. Excluded entries land only in the
// excluded bucket; transfer legs land in neither.
func (r *EntryRepo) SumTotals(ctx context.Context, ownerID string, f EntryFilters) (Totals, error) {
	where, args := f.clauses()
	where = append([]string{"owner_id = ?"}, where...)
	args = append([]interface{}{ownerID}, args...)

	query := `
	SELECT
	 COALESCE(SUM(CASE WHEN excluded = 0 AND type = 'income' THEN amount_cents ELSE 0 END), 0),
	 COALESCE(SUM(CASE WHEN excluded = 0 AND type = 'expense' THEN amount_cents ELSE 0 END), 0),
	 COALESCE(SUM(CASE WHEN excluded = 1 THEN amount_cents ELSE 0 END), 0)
	FROM ledger_entries WHERE ` + strings.Join(where, " AND ")

	var t Totals
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&t.IncomeCents, &t.ExpenseCents, &t.ExcludedCents); err != nil {
		return Totals{}, err
	}
	return t, nil
}

// DayTotal is one posted day's aggregate movement.
type DayTotal struct {
	Date         time.Time
	IncomeCents  int64
	ExpenseCents int64
	NetCents     int64 // all non-excluded movement including transfer legs
}

// SumByDay groups the filtered range by posted date. Days with no entries are
// absent; callers zero-fill.
func (r *EntryRepo) SumByDay(ctx context.Context, ownerID string, f EntryFilters) ([]DayTotal, error) {
	where, args := f.clauses()
	where = append([]string{"owner_id = ?"}, where...)
	args = append([]interface{}{ownerID}, args...)

	query := `
	SELECT posted_at,
	 COALESCE(SUM(CASE WHEN excluded = 0 AND type = 'income' THEN amount_cents ELSE 0 END), 0),
	 COALESCE(SUM(CASE WHEN excluded = 0 AND type = 'expense' THEN amount_cents ELSE 0 END), 0),
	 COALESCE(SUM(CASE WHEN excluded = 0 THEN amount_cents ELSE 0 END), 0)
	FROM ledger_entries WHERE ` + strings.Join(where, " AND ") + `
	GROUP BY posted_at ORDER BY posted_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayTotal
	for rows.Next() {
		var dt DayTotal
		var day string
		if err := rows.Scan(&day, &dt.IncomeCents, &dt.ExpenseCents, &dt.NetCents); err != nil {
			return nil, err
		}
		if dt.Date, err = ParseDate(day); err != nil {
			return nil, err
		}
		out = append(out, dt)
	}
	return out, rows.Err()
}

// SumBefore returns the net non-excluded movement strictly before date,
// the baseline a running-balance series starts from.
func (r *EntryRepo) SumBefore(ctx context.Context, ownerID string, date time.Time, accountID string) (int64, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM ledger_entries WHERE owner_id = ? AND excluded = 0 AND posted_at < ?`
	args := []interface{}{ownerID, FormatDate(date)}
	if accountID != "" {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}
	var sum int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// AccountBalance is an account's net position up to a date.
type AccountBalance struct {
	AccountID    string
	BalanceCents int64
}

func (r *EntryRepo) BalancesByAccount(ctx context.Context, ownerID string, upTo time.Time) ([]AccountBalance, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT account_id, COALESCE(SUM(amount_cents), 0)
	FROM ledger_entries WHERE owner_id = ? AND excluded = 0 AND posted_at <= ?
	GROUP BY account_id ORDER BY account_id`, ownerID, FormatDate(upTo))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var ab AccountBalance
		if err := rows.Scan(&ab.AccountID, &ab.BalanceCents); err != nil {
			return nil, err
		}
		out = append(out, ab)
	}
	return out, rows.Err()
}

func scanEntry(row scanner) (LedgerEntry, error) {
	var e LedgerEntry
	var posted string
	var originalType, category, externalRef, fingerprint, linkID, batchID sql.NullString
	if err := row.Scan(&e.ID, &e.OwnerID, &e.AccountID, &posted, &e.AmountCents, &e.Type,
		&originalType, &e.Direction, &e.Description, &e.NormalizedDescription, &category,
		&externalRef, &fingerprint, &linkID, &batchID, &e.Manual, &e.Excluded,
		&e.CreatedAt, &e.UpdatedAt); err != nil {
		return LedgerEntry{}, err
	}
	var err error
	if e.PostedAt, err = ParseDate(posted); err != nil {
		return LedgerEntry{}, err
	}
	if originalType.Valid {
		e.OriginalType = &originalType.String
	}
	if category.Valid {
		e.Category = &category.String
	}
	if externalRef.Valid {
		e.ExternalRef = &externalRef.String
	}
	if fingerprint.Valid {
		e.Fingerprint = &fingerprint.String
	}
	if linkID.Valid {
		e.TransferLinkID = &linkID.String
	}
	if batchID.Valid {
		e.ImportBatchID = &batchID.String
	}
	return e, nil
}
