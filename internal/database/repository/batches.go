package repository

import (
	"context"
	"database/sql"
)

// BatchRepo handles import batches.
type BatchRepo struct {
	db DBTX
}

func NewBatchRepo(db DBTX) *BatchRepo { return &BatchRepo{db: db} }

func (r *BatchRepo) Insert(ctx context.Context, b ImportBatch) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO import_batches(id, owner_id, institution_id, kind, file_name, file_hash, imported_rows, duplicate_rows, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`, b.ID, b.OwnerID, b.InstitutionID, b.Kind, b.FileName, b.FileHash, b.ImportedRows, b.DuplicateRows)
	return err
}

// GetByHash looks up a prior import of the same file content for this owner
// and institution. A hit short-circuits re-imports before any row is written.
func (r *BatchRepo) GetByHash(ctx context.Context, ownerID, institutionID, fileHash string) (*ImportBatch, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, owner_id, institution_id, kind, file_name, file_hash, imported_rows, duplicate_rows, created_at FROM import_batches WHERE owner_id = ? AND institution_id = ? AND file_hash = ?`, ownerID, institutionID, fileHash)
	return scanBatch(row)
}

func (r *BatchRepo) Get(ctx context.Context, ownerID, id string) (*ImportBatch, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, owner_id, institution_id, kind, file_name, file_hash, imported_rows, duplicate_rows, created_at FROM import_batches WHERE owner_id = ? AND id = ?`, ownerID, id)
	return scanBatch(row)
}

func (r *BatchRepo) List(ctx context.Context, ownerID string) ([]ImportBatch, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, owner_id, institution_id, kind, file_name, file_hash, imported_rows, duplicate_rows, created_at FROM import_batches WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ImportBatch
	for rows.Next() {
		var b ImportBatch
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.InstitutionID, &b.Kind, &b.FileName, &b.FileHash, &b.ImportedRows, &b.DuplicateRows, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateCounts records the outcome tallies once a batch finishes.
func (r *BatchRepo) UpdateCounts(ctx context.Context, id string, imported, duplicates int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE import_batches SET imported_rows = ?, duplicate_rows = ? WHERE id = ?`, imported, duplicates, id)
	return err
}

func scanBatch(row scanner) (*ImportBatch, error) {
	var b ImportBatch
	if err := row.Scan(&b.ID, &b.OwnerID, &b.InstitutionID, &b.Kind, &b.FileName, &b.FileHash, &b.ImportedRows, &b.DuplicateRows, &b.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}
