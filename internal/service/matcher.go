package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lcrowe/ledgerline/internal/database"
	"github.com/lcrowe/ledgerline/internal/database/repository"
)

// Matcher pairs outgoing entries with their incoming counterparts across
// accounts. Exact pairs become confirmed transfer links immediately; pairs
// that differ by a plausible fee are queued as suggestions for review.
type Matcher struct {
	DB        *sql.DB
	Entries   *repository.EntryRepo
	Accounts  *repository.AccountRepo
	Transfers *repository.TransferRepo
	Log       zerolog.Logger

	// WindowDays bounds how far apart the two legs may post.
	// FeeToleranceCents bounds the amount gap a suggestion may carry.
	WindowDays        int
	FeeToleranceCents int64
}

// MatchResult counts what one matching run produced.
type MatchResult struct {
	Matched      int
	CardPayments int
	Suggested    int
}

type candidate struct {
	in       *repository.LedgerEntry
	exact    bool
	dayDelta int
	feeDelta int64
}

// Match scans the owner's unlinked entries and links or queues every pair it
// finds. Running it again over the same data is a no-op: linked entries are
// skipped and previously dismissed pairs are never resurrected.
func (m *Matcher) Match(ctx context.Context, ownerID string) (*MatchResult, error) {
	unlinked, err := m.Entries.List(ctx, ownerID, repository.EntryFilters{Unlinked: true})
	if err != nil {
		return nil, fmt.Errorf("list unlinked entries: %w", err)
	}

	accounts, err := m.accountsByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var outs, ins []*repository.LedgerEntry
	for i := range unlinked {
		e := &unlinked[i]
		if e.Type == repository.EntryTransfer {
			continue
		}
		if e.Direction == repository.DirectionOut {
			outs = append(outs, e)
		} else {
			ins = append(ins, e)
		}
	}

	res := &MatchResult{}
	taken := make(map[string]bool)

	for _, out := range outs {
		if taken[out.ID] {
			continue
		}
		best := m.bestCandidate(out, ins, taken)
		if best == nil {
			continue
		}

		in := best.in
		kind := repository.MatchAuto
		if isCardPayment(accounts, out, in) {
			kind = repository.MatchCardPayment
		}

		if best.exact {
			created, err := m.createLink(ctx, ownerID, out, in, kind, repository.LinkConfirmed, nil, nil)
			if err != nil {
				return nil, err
			}
			if !created {
				continue
			}
			taken[out.ID], taken[in.ID] = true, true
			if kind == repository.MatchCardPayment {
				res.CardPayments++
			} else {
				res.Matched++
			}
			continue
		}

		conf := m.suggestionConfidence(out, in, best.dayDelta, best.feeDelta)
		fee := best.feeDelta
		created, err := m.createLink(ctx, ownerID, out, in, repository.MatchSuggested, repository.LinkPending, &conf, &fee)
		if err != nil {
			return nil, err
		}
		if !created {
			continue
		}
		taken[out.ID], taken[in.ID] = true, true
		res.Suggested++
	}

	m.Log.Info().
		Int("matched", res.Matched).
		Int("card_payments", res.CardPayments).
		Int("suggested", res.Suggested).
		Msg("matching run complete")
	return res, nil
}

// bestCandidate picks the strongest partner for an outgoing entry. Exact
// amounts beat fee-tolerant ones, then the closer date wins, then the smaller
// amount gap.
func (m *Matcher) bestCandidate(out *repository.LedgerEntry, ins []*repository.LedgerEntry, taken map[string]bool) *candidate {
	var best *candidate
	for _, in := range ins {
		if taken[in.ID] || in.AccountID == out.AccountID {
			continue
		}
		dayDelta := daysApart(out.PostedAt, in.PostedAt)
		if dayDelta > m.WindowDays {
			continue
		}
		feeDelta := abs64(abs64(in.AmountCents) - abs64(out.AmountCents))
		if feeDelta > m.FeeToleranceCents {
			continue
		}
		c := &candidate{in: in, exact: feeDelta == 0, dayDelta: dayDelta, feeDelta: feeDelta}
		if best == nil || c.beats(best) {
			best = c
		}
	}
	return best
}

func (c *candidate) beats(o *candidate) bool {
	if c.exact != o.exact {
		return c.exact
	}
	if c.dayDelta != o.dayDelta {
		return c.dayDelta < o.dayDelta
	}
	return c.feeDelta < o.feeDelta
}

// createLink persists a link and, when confirmed, reclassifies both legs, all
// in one transaction. Returns false when the pair already has a link row,
// which covers dismissed suggestions for the same pair.
func (m *Matcher) createLink(ctx context.Context, ownerID string, out, in *repository.LedgerEntry, kind, status string, confidence *float64, feeDelta *int64) (bool, error) {
	exists, err := m.Transfers.HasPair(ctx, out.ID, in.ID)
	if err != nil {
		return false, fmt.Errorf("check pair: %w", err)
	}
	if exists {
		return false, nil
	}

	link := repository.TransferLink{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		OutEntryID:    out.ID,
		InEntryID:     in.ID,
		MatchKind:     kind,
		Status:        status,
		Confidence:    confidence,
		FeeDeltaCents: feeDelta,
	}
	err = database.WithTx(ctx, m.DB, func(tx *sql.Tx) error {
		transfers := repository.NewTransferRepo(tx)
		entries := repository.NewEntryRepo(tx)
		if err := transfers.Insert(ctx, link); err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
		if status == repository.LinkConfirmed {
			if err := entries.AttachLink(ctx, out.ID, link.ID); err != nil {
				return fmt.Errorf("attach out leg: %w", err)
			}
			if err := entries.AttachLink(ctx, in.ID, link.ID); err != nil {
				return fmt.Errorf("attach in leg: %w", err)
			}
		}
		return nil
	})
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Confirm accepts a pending suggestion and reclassifies both legs.
func (m *Matcher) Confirm(ctx context.Context, ownerID, linkID string) error {
	link, err := m.Transfers.Get(ctx, ownerID, linkID)
	if err != nil {
		return fmt.Errorf("load link: %w", err)
	}
	if link == nil {
		return fmt.Errorf("suggestion %s not found", linkID)
	}
	if link.Status != repository.LinkPending {
		return fmt.Errorf("suggestion %s is %s, not pending", linkID, link.Status)
	}

	return database.WithTx(ctx, m.DB, func(tx *sql.Tx) error {
		transfers := repository.NewTransferRepo(tx)
		entries := repository.NewEntryRepo(tx)
		if err := transfers.UpdateStatus(ctx, ownerID, linkID, repository.LinkConfirmed); err != nil {
			return fmt.Errorf("confirm link: %w", err)
		}
		if err := entries.AttachLink(ctx, link.OutEntryID, linkID); err != nil {
			return fmt.Errorf("attach out leg: %w", err)
		}
		if err := entries.AttachLink(ctx, link.InEntryID, linkID); err != nil {
			return fmt.Errorf("attach in leg: %w", err)
		}
		return nil
	})
}

// Dismiss rejects a pending suggestion. The link row stays behind so later
// runs do not offer the same pair again.
func (m *Matcher) Dismiss(ctx context.Context, ownerID, linkID string) error {
	link, err := m.Transfers.Get(ctx, ownerID, linkID)
	if err != nil {
		return fmt.Errorf("load link: %w", err)
	}
	if link == nil {
		return fmt.Errorf("suggestion %s not found", linkID)
	}
	if link.Status != repository.LinkPending {
		return fmt.Errorf("suggestion %s is %s, not pending", linkID, link.Status)
	}
	return m.Transfers.UpdateStatus(ctx, ownerID, linkID, repository.LinkDismissed)
}

// Unlink breaks the confirmed link touching the given entry and reverts both
// legs to their original types. The link row stays behind dismissed so the
// next matching run does not immediately redo what the user undid. No-op when
// the entry is not linked.
func (m *Matcher) Unlink(ctx context.Context, ownerID, entryID string) error {
	link, err := m.Transfers.GetConfirmedByEntry(ctx, ownerID, entryID)
	if err != nil {
		return fmt.Errorf("load link: %w", err)
	}
	if link == nil {
		return nil
	}

	return database.WithTx(ctx, m.DB, func(tx *sql.Tx) error {
		transfers := repository.NewTransferRepo(tx)
		entries := repository.NewEntryRepo(tx)
		if err := entries.DetachLink(ctx, link.OutEntryID); err != nil {
			return fmt.Errorf("detach out leg: %w", err)
		}
		if err := entries.DetachLink(ctx, link.InEntryID); err != nil {
			return fmt.Errorf("detach in leg: %w", err)
		}
		if err := transfers.UpdateStatus(ctx, ownerID, link.ID, repository.LinkDismissed); err != nil {
			return fmt.Errorf("dismiss link: %w", err)
		}
		return nil
	})
}

// InboxItem is a pending suggestion with both legs loaded for display.
type InboxItem struct {
	Link repository.TransferLink
	Out  repository.LedgerEntry
	In   repository.LedgerEntry
}

// Inbox lists pending suggestions, newest first.
func (m *Matcher) Inbox(ctx context.Context, ownerID string) ([]InboxItem, error) {
	links, err := m.Transfers.ListPending(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list pending links: %w", err)
	}

	items := make([]InboxItem, 0, len(links))
	for _, link := range links {
		out, err := m.Entries.Get(ctx, ownerID, link.OutEntryID)
		if err != nil {
			return nil, fmt.Errorf("load out leg: %w", err)
		}
		in, err := m.Entries.Get(ctx, ownerID, link.InEntryID)
		if err != nil {
			return nil, fmt.Errorf("load in leg: %w", err)
		}
		if out == nil || in == nil {
			continue
		}
		items = append(items, InboxItem{Link: link, Out: *out, In: *in})
	}
	return items, nil
}

func (m *Matcher) accountsByID(ctx context.Context, ownerID string) (map[string]*repository.Account, error) {
	accounts, err := m.Accounts.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	byID := make(map[string]*repository.Account, len(accounts))
	for i := range accounts {
		byID[accounts[i].ID] = &accounts[i]
	}
	return byID, nil
}

// isCardPayment reports whether the pair is a card bill settlement: money
// leaving a non-credit account and arriving on a credit account that belongs
// to it.
func isCardPayment(accounts map[string]*repository.Account, out, in *repository.LedgerEntry) bool {
	outAcct, inAcct := accounts[out.AccountID], accounts[in.AccountID]
	if outAcct == nil || inAcct == nil {
		return false
	}
	if outAcct.Kind == repository.AccountCredit || inAcct.Kind != repository.AccountCredit {
		return false
	}
	return inAcct.ParentAccountID != nil && *inAcct.ParentAccountID == out.AccountID
}

// suggestionConfidence blends amount closeness, date proximity and
// description similarity into a 0..1 score.
func (m *Matcher) suggestionConfidence(out, in *repository.LedgerEntry, dayDelta int, feeDelta int64) float64 {
	amountScore := 1 - float64(feeDelta)/float64(m.FeeToleranceCents+1)
	dateScore := 1 - float64(dayDelta)/float64(m.WindowDays+1)
	sim := similarity(out.NormalizedDescription, in.NormalizedDescription)
	return 0.5*amountScore + 0.3*dateScore + 0.2*sim
}

func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

func daysApart(a, b time.Time) int {
	return int(math.Abs(a.Sub(b).Hours()) / 24)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
