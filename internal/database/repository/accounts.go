package repository

import (
	"context"
	"database/sql"
)

// AccountRepo handles accounts.
type AccountRepo struct {
	db DBTX
}

func NewAccountRepo(db DBTX) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Insert(ctx context.Context, a Account) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, owner_id, institution_id, name, kind, currency, parent_account_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, a.ID, a.OwnerID, a.InstitutionID, a.Name, a.Kind, a.Currency, a.ParentAccountID)
	return err
}

func (r *AccountRepo) Get(ctx context.Context, ownerID, id string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, owner_id, institution_id, name, kind, currency, parent_account_id, created_at, updated_at FROM accounts WHERE owner_id = ? AND id = ?`, ownerID, id)
	return scanAccount(row)
}

func (r *AccountRepo) List(ctx context.Context, ownerID string) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, owner_id, institution_id, name, kind, currency, parent_account_id, created_at, updated_at FROM accounts WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetParent records which account settles a credit card's statement.
func (r *AccountRepo) SetParent(ctx context.Context, ownerID, id string, parentID *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET parent_account_id = ?, updated_at=CURRENT_TIMESTAMP WHERE owner_id = ? AND id = ?`, parentID, ownerID, id)
	return err
}

func scanAccount(row scanner) (*Account, error) {
	a, err := scanAccountRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func scanAccountRow(row scanner) (Account, error) {
	var a Account
	var parent sql.NullString
	if err := row.Scan(&a.ID, &a.OwnerID, &a.InstitutionID, &a.Name, &a.Kind, &a.Currency, &parent, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Account{}, err
	}
	if parent.Valid {
		a.ParentAccountID = &parent.String
	}
	return a, nil
}
