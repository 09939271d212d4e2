package repository

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is the query surface repositories run against, satisfied by both
// *sql.DB and *sql.Tx so callers can scope a repo to a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Account kinds.
const (
	AccountChecking   = "checking"
	AccountCredit     = "credit"
	AccountCash       = "cash"
	AccountInvestment = "investment"
)

// Entry types.
const (
	EntryIncome   = "income"
	EntryExpense  = "expense"
	EntryTransfer = "transfer"
)

// Entry directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Import batch kinds.
const (
	BatchBankStatement = "BANK_STATEMENT"
	BatchCardStatement = "CC_STATEMENT"
)

// Transfer link match kinds.
const (
	MatchAuto        = "auto"
	MatchCardPayment = "card_payment"
	MatchSuggested   = "suggested"
)

// Transfer link statuses.
const (
	LinkPending   = "pending"
	LinkConfirmed = "confirmed"
	LinkDismissed = "dismissed"
)

// Institution represents a financial institution row.
type Institution struct {
	ID             string
	OwnerID        string
	Name           string
	NormalizedName string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Account represents an account row. ParentAccountID links a credit card
// to the account its statement balance is settled from.
type Account struct {
	ID              string
	OwnerID         string
	InstitutionID   string
	Name            string
	Kind            string
	Currency        string
	ParentAccountID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ImportBatch represents one ingested statement file.
type ImportBatch struct {
	ID            string
	OwnerID       string
	InstitutionID string
	Kind          string
	FileName      string
	FileHash      string
	ImportedRows  int
	DuplicateRows int
	CreatedAt     time.Time
}

// LedgerEntry represents a canonical ledger row. AmountCents is signed:
// negative for outflows, positive for inflows.
type LedgerEntry struct {
	ID                    string
	OwnerID               string
	AccountID             string
	PostedAt              time.Time
	AmountCents           int64
	Type                  string
	OriginalType          *string
	Direction             string
	Description           string
	NormalizedDescription string
	Category              *string
	ExternalRef           *string
	Fingerprint           *string
	TransferLinkID        *string
	ImportBatchID         *string
	Manual                bool
	Excluded              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// TransferLink pairs the two sides of an internal transfer. Suggested links
// start pending and form the reconciliation inbox; auto and card_payment
// links are created confirmed.
type TransferLink struct {
	ID            string
	OwnerID       string
	OutEntryID    string
	InEntryID     string
	MatchKind     string
	Status        string
	Confidence    *float64
	FeeDeltaCents *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// scanner handles both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

const dateLayout = "2006-01-02"

// FormatDate serializes a civil date the way posted_at is stored.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate reads a stored posted_at value back into a UTC civil date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
