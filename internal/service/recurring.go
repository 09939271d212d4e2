package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/lcrowe/ledgerline/internal/database/repository"
	"github.com/lcrowe/ledgerline/internal/textnorm"
)

// Recurring flags merchants whose expense pattern looks like a subscription.
type Recurring struct {
	Entries *repository.EntryRepo
	Log     zerolog.Logger

	// MinOccurrences is the smallest qualifying group. AmountTolerancePct
	// bounds how far a charge may drift from the group median, DayTolerance
	// how far its posting day may drift from the median day.
	MinOccurrences     int
	AmountTolerancePct float64
	DayTolerance       int
}

// RecurringSignal is one detected periodic charge. Derived on demand, never
// persisted.
type RecurringSignal struct {
	MerchantKey      string
	DisplayName      string
	Occurrences      int
	MonthsSpanned    int
	MonthlyCostCents int64
	MedianDay        int
	LastSeen         time.Time
	NextExpected     time.Time
	EntryIDs         []string
}

type occurrence struct {
	id       string
	postedAt time.Time
	cents    int64 // magnitude
	desc     string
}

// Installment phrasings that mark a finite payment plan rather than a
// subscription. Checked against the folded description, where separators
// survive.
var (
	installmentWord = regexp.MustCompile(`\b(?:parcela|prestacao|installment|parc)\.?\s*\d{1,2}\s*(?:/|de|of)\s*\d{1,2}\b`)
	installmentBare = regexp.MustCompile(`\b(\d{1,2})\s*(?:/|\s(?:de|of)\s)\s*(\d{1,2})\b`)
)

var merchantSuffixes = []string{" ltda", " ltd", " llc", " inc", " sa", " s a", " me", " eireli"}

// Detect scans the owner's expenses for periodic merchants. A merchant
// qualifies when, after dropping charges that drift too far from the group
// median in amount or posting day, at least MinOccurrences remain across at
// least two distinct calendar months. Installment charges never qualify.
func (r *Recurring) Detect(ctx context.Context, ownerID string) ([]RecurringSignal, error) {
	entries, err := r.Entries.List(ctx, ownerID, repository.EntryFilters{Type: repository.EntryExpense})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	groups := make(map[string][]occurrence)
	for _, e := range entries {
		if e.Excluded {
			continue
		}
		folded := textnorm.Fold(e.Description)
		if hasInstallmentMarker(folded) {
			continue
		}
		key := merchantKey(folded)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], occurrence{
			id:       e.ID,
			postedAt: e.PostedAt,
			cents:    abs64(e.AmountCents),
			desc:     strings.TrimSpace(e.Description),
		})
	}
	mergeSimilarKeys(groups)

	var signals []RecurringSignal
	for key, occs := range groups {
		if sig := r.evaluate(key, occs); sig != nil {
			signals = append(signals, *sig)
		}
	}

	sort.Slice(signals, func(i, j int) bool {
		if signals[i].MonthlyCostCents != signals[j].MonthlyCostCents {
			return signals[i].MonthlyCostCents > signals[j].MonthlyCostCents
		}
		return signals[i].MerchantKey < signals[j].MerchantKey
	})

	r.Log.Debug().Int("signals", len(signals)).Msg("recurring detection complete")
	return signals, nil
}

func (r *Recurring) evaluate(key string, occs []occurrence) *RecurringSignal {
	if len(occs) < r.MinOccurrences {
		return nil
	}
	sort.Slice(occs, func(i, j int) bool { return occs[i].postedAt.Before(occs[j].postedAt) })

	amounts := make([]int64, len(occs))
	for i, o := range occs {
		amounts[i] = o.cents
	}
	medAmount := median(amounts)
	if medAmount == 0 {
		return nil
	}
	tolerance := int64(float64(medAmount) * r.AmountTolerancePct / 100)

	var kept []occurrence
	for _, o := range occs {
		if abs64(o.cents-medAmount) <= tolerance {
			kept = append(kept, o)
		}
	}
	if len(kept) < r.MinOccurrences {
		return nil
	}

	days := make([]int64, len(kept))
	for i, o := range kept {
		days[i] = int64(o.postedAt.Day())
	}
	medDay := int(median(days))

	var steady []occurrence
	for _, o := range kept {
		if abs64(int64(o.postedAt.Day()-medDay)) <= int64(r.DayTolerance) {
			steady = append(steady, o)
		}
	}
	if len(steady) < r.MinOccurrences {
		return nil
	}

	months := distinctMonths(steady)
	if months < 2 {
		return nil
	}

	finalAmounts := make([]int64, len(steady))
	ids := make([]string, len(steady))
	for i, o := range steady {
		finalAmounts[i] = o.cents
		ids[i] = o.id
	}
	last := steady[len(steady)-1]

	return &RecurringSignal{
		MerchantKey:      key,
		DisplayName:      last.desc,
		Occurrences:      len(steady),
		MonthsSpanned:    months,
		MonthlyCostCents: median(finalAmounts),
		MedianDay:        medDay,
		LastSeen:         last.postedAt,
		NextExpected:     addMonthClamped(last.postedAt),
		EntryIDs:         ids,
	}
}

// hasInstallmentMarker spots "parcela 2/6", "installment 2 of 6" and bare
// fractions. A bare pair only counts when it reads as part-of-total, which
// keeps dd/mm dates inside descriptions from matching.
func hasInstallmentMarker(folded string) bool {
	if installmentWord.MatchString(folded) {
		return true
	}
	for _, m := range installmentBare.FindAllStringSubmatch(folded, -1) {
		cur, _ := strconv.Atoi(m[1])
		total, _ := strconv.Atoi(m[2])
		if total > 1 && cur <= total {
			return true
		}
	}
	return false
}

// merchantKey reduces a folded description to a grouping key: corporate
// suffixes and trailing reference digits carry no merchant identity.
func merchantKey(folded string) string {
	key := textnorm.ForHash(folded)
	for _, suffix := range merchantSuffixes {
		key = strings.TrimSuffix(key, suffix)
	}
	fields := strings.Fields(key)
	for len(fields) > 1 && isDigits(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// mergeSimilarKeys folds near-identical merchant keys into one group so
// "netflix com" and "netflixcom" count together.
func mergeSimilarKeys(groups map[string][]occurrence) {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, a := range keys {
		if _, ok := groups[a]; !ok {
			continue
		}
		for _, b := range keys[i+1:] {
			if _, ok := groups[b]; !ok {
				continue
			}
			if keySimilarity(a, b) >= 0.8 {
				groups[a] = append(groups[a], groups[b]...)
				delete(groups, b)
			}
		}
	}
}

func keySimilarity(a, b string) float64 {
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(dist)/float64(maxLen)
}

func distinctMonths(occs []occurrence) int {
	seen := make(map[string]bool)
	for _, o := range occs {
		seen[o.postedAt.Format("2006-01")] = true
	}
	return len(seen)
}

func median(vals []int64) int64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]int64, len(vals))
	copy(sorted, vals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// addMonthClamped steps one month forward, pinning day 31 to day 30, 29 or 28
// when the target month is shorter.
func addMonthClamped(t time.Time) time.Time {
	first := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
