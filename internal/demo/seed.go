package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lcrowe/ledgerline/internal/database/repository"
	"github.com/lcrowe/ledgerline/internal/service"
	"github.com/lcrowe/ledgerline/internal/textnorm"
)

// Services bundles what Seed needs to build the sample ledger.
type Services struct {
	Institutions *repository.InstitutionRepo
	Accounts     *repository.AccountRepo
	Importer     *service.Importer
	Matcher      *service.Matcher
}

// Result summarizes what Seed did.
type Result struct {
	AlreadySeeded bool
	Imported      int
	Matched       int
	CardPayments  int
	Suggested     int
}

const institutionName = "Demo Bank"

// Seed loads three past months of sample activity: accounts, a bank and a
// card statement, and a matching pass over them. The statements carry fixed
// file hashes, so running it twice imports nothing new.
func Seed(ctx context.Context, ownerID, currency string, s Services) (*Result, error) {
	checking, card, savings, err := ensureAccounts(ctx, ownerID, currency, s)
	if err != nil {
		return nil, err
	}

	// previous three full months, oldest first, so every entry is in the past
	now := time.Now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := []time.Time{first.AddDate(0, -3, 0), first.AddDate(0, -2, 0), first.AddDate(0, -1, 0)}

	bank, err := s.Importer.Import(ctx, bankStatement(ownerID, checking.ID, savings.Name, months))
	if err != nil {
		return nil, fmt.Errorf("seed bank statement: %w", err)
	}
	if bank.DuplicateImportSource {
		return &Result{AlreadySeeded: true}, nil
	}

	cardRes, err := s.Importer.Import(ctx, cardStatement(ownerID, card.ID, months))
	if err != nil {
		return nil, fmt.Errorf("seed card statement: %w", err)
	}

	match, err := s.Matcher.Match(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("seed matching pass: %w", err)
	}

	return &Result{
		Imported:     bank.Imported + cardRes.Imported,
		Matched:      match.Matched,
		CardPayments: match.CardPayments,
		Suggested:    match.Suggested,
	}, nil
}

func ensureAccounts(ctx context.Context, ownerID, currency string, s Services) (checking, card, savings *repository.Account, err error) {
	inst, err := s.Institutions.Ensure(ctx, ownerID, institutionName)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("seed institution: %w", err)
	}

	existing, err := s.Accounts.List(ctx, ownerID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list accounts: %w", err)
	}
	byName := make(map[string]*repository.Account, len(existing))
	for i := range existing {
		byName[textnorm.Fold(existing[i].Name)] = &existing[i]
	}

	ensure := func(name, kind string, parentID *string) (*repository.Account, error) {
		if acct, ok := byName[textnorm.Fold(name)]; ok {
			return acct, nil
		}
		acct := repository.Account{
			ID:              uuid.NewString(),
			OwnerID:         ownerID,
			InstitutionID:   inst.ID,
			Name:            name,
			Kind:            kind,
			Currency:        currency,
			ParentAccountID: parentID,
		}
		if err := s.Accounts.Insert(ctx, acct); err != nil {
			return nil, fmt.Errorf("create account %s: %w", name, err)
		}
		return &acct, nil
	}

	if checking, err = ensure("Demo Checking", repository.AccountChecking, nil); err != nil {
		return nil, nil, nil, err
	}
	if card, err = ensure("Demo Card", repository.AccountCredit, &checking.ID); err != nil {
		return nil, nil, nil, err
	}
	if savings, err = ensure("Demo Savings", repository.AccountInvestment, nil); err != nil {
		return nil, nil, nil, err
	}
	return checking, card, savings, nil
}

func bankStatement(ownerID, checkingID, savingsName string, months []time.Time) service.ImportRequest {
	var rows []service.ImportRow
	add := func(month time.Time, day int, cents int64, desc, category, hint string) {
		var cat *string
		if category != "" {
			cat = &category
		}
		rows = append(rows, service.ImportRow{
			Line:        len(rows) + 1,
			PostedAt:    month.AddDate(0, 0, day-1),
			AmountCents: cents,
			Description: desc,
			Category:    cat,
			AccountHint: hint,
		})
	}

	for _, m := range months {
		add(m, 5, 450000, "SALARY ACME CORP", "Salary", "")
		add(m, 8, -180000, "RENT CASAVERDE IMOVEIS", "Housing", "")
		add(m, 12, -23450, "SUPERMERCADO PAULISTA", "Groceries", "")
		add(m, 15, -3990, "NETFLIX.COM", "Subscriptions", "")
		add(m, 18, -8725, "UBER EATS* SUSHI", "Dining", "")
		// both legs of a savings transfer, paired by the matcher
		add(m, 20, -50000, "TRANSFER TO SAVINGS", "", "")
		add(m, 20, 50000, "TRANSFER FROM CHECKING", "", savingsName)
		add(m, 22, -120000, "CARD BILL PAYMENT", "", "")
	}
	// a wire whose fee keeps the legs from matching exactly
	last := months[len(months)-1]
	add(last, 25, -100000, "WIRE TO BROKER", "", "")
	add(last, 26, 99850, "INCOMING WIRE", "", savingsName)

	return service.ImportRequest{
		OwnerID:          ownerID,
		InstitutionName:  institutionName,
		Kind:             repository.BatchBankStatement,
		FileName:         "demo-bank.csv",
		FileHash:         service.HashContent([]byte("ledgerline-demo-bank")),
		DefaultAccountID: checkingID,
		Rows:             rows,
	}
}

func cardStatement(ownerID, cardID string, months []time.Time) service.ImportRequest {
	var rows []service.ImportRow
	add := func(month time.Time, day int, cents int64, desc, category string) {
		var cat *string
		if category != "" {
			cat = &category
		}
		rows = append(rows, service.ImportRow{
			Line:        len(rows) + 1,
			PostedAt:    month.AddDate(0, 0, day-1),
			AmountCents: cents,
			Description: desc,
			Category:    cat,
		})
	}

	for _, m := range months {
		add(m, 3, -45900, "AMAZON.COM*XYZ", "Shopping")
		add(m, 10, -15990, "POSTO SHELL JARDINS", "Transport")
		add(m, 16, -2190, "SPOTIFY", "Subscriptions")
		add(m, 22, 120000, "PAGAMENTO RECEBIDO", "")
	}

	return service.ImportRequest{
		OwnerID:              ownerID,
		InstitutionName:      institutionName,
		Kind:                 repository.BatchCardStatement,
		FileName:             "demo-card.csv",
		FileHash:             service.HashContent([]byte("ledgerline-demo-card")),
		DefaultCardAccountID: cardID,
		Rows:                 rows,
	}
}
