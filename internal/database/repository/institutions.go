package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/lcrowe/ledgerline/internal/textnorm"
)

// InstitutionRepo handles institutions.
type InstitutionRepo struct {
	db DBTX
}

func NewInstitutionRepo(db DBTX) *InstitutionRepo { return &InstitutionRepo{db: db} }

// Ensure returns the owner's institution with the given name, creating it on
// first reference. Identity is case and diacritic insensitive, so "Crédito
// Real" and "credito real" resolve to the same row. The ID is deterministic
// for a given owner and normalized name.
func (r *InstitutionRepo) Ensure(ctx context.Context, ownerID, name string) (*Institution, error) {
	normalized := textnorm.Fold(name)
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("institution:"+ownerID+":"+normalized)).String()
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO institutions(id, owner_id, name, normalized_name, created_at, updated_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(owner_id, normalized_name) DO NOTHING;
	`, id, ownerID, name, normalized)
	if err != nil {
		return nil, err
	}
	return r.getByNormalizedName(ctx, ownerID, normalized)
}

func (r *InstitutionRepo) Get(ctx context.Context, ownerID, id string) (*Institution, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, owner_id, name, normalized_name, created_at, updated_at FROM institutions WHERE owner_id = ? AND id = ?`, ownerID, id)
	return scanInstitution(row)
}

// GetByName resolves an institution by display name, tolerant of case and
// diacritic differences.
func (r *InstitutionRepo) GetByName(ctx context.Context, ownerID, name string) (*Institution, error) {
	return r.getByNormalizedName(ctx, ownerID, textnorm.Fold(name))
}

func (r *InstitutionRepo) getByNormalizedName(ctx context.Context, ownerID, normalized string) (*Institution, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, owner_id, name, normalized_name, created_at, updated_at FROM institutions WHERE owner_id = ? AND normalized_name = ?`, ownerID, normalized)
	return scanInstitution(row)
}

func (r *InstitutionRepo) List(ctx context.Context, ownerID string) ([]Institution, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, owner_id, name, normalized_name, created_at, updated_at FROM institutions WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Institution
	for rows.Next() {
		var inst Institution
		if err := rows.Scan(&inst.ID, &inst.OwnerID, &inst.Name, &inst.NormalizedName, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func scanInstitution(row scanner) (*Institution, error) {
	var inst Institution
	if err := row.Scan(&inst.ID, &inst.OwnerID, &inst.Name, &inst.NormalizedName, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &inst, nil
}
