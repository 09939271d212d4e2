package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/lcrowe/ledgerline/internal/textnorm"
)

// Fingerprint derives the stable identity of a ledger entry. Two entries with
// the same owner, posted date, normalized description, amount, type and
// category are the same movement no matter which file or sync delivered them.
// The storage layer enforces uniqueness per owner on this value.
func Fingerprint(ownerID string, postedAt time.Time, description string, amountCents int64, entryType string, category *string) string {
	cat := "none"
	if category != nil && strings.TrimSpace(*category) != "" {
		cat = textnorm.Fold(*category)
	}
	parts := []string{
		"owner:" + ownerID,
		"date:" + postedAt.Format("2006-01-02"),
		"desc:" + textnorm.ForHash(description),
		"amount:" + strconv.FormatInt(amountCents, 10),
		"type:" + entryType,
		"category:" + cat,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// HashContent fingerprints a whole statement file, the key behind the
// duplicate-import short circuit.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
