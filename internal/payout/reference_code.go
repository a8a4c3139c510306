package payout

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generateReferenceCode builds the external payment reference format
// from §6: "9W" + last 6 of rider id (upper hex) + last 6 of unix-ms
// timestamp + 2 random uppercase base36 chars. Collisions are handled
// by the caller retrying with a fresh call (time-based entropy plus two
// random characters makes a same-millisecond collision for the same
// rider exceedingly unlikely, but the format does not itself guarantee
// uniqueness — that is an index-enforced property of the repository).
func generateReferenceCode(riderID string, now time.Time) (string, error) {
	riderPart := lastNUpper(riderID, 6)

	ts := fmt.Sprintf("%d", now.UnixMilli())
	tsPart := lastN(ts, 6)

	randPart, err := randomBase36(2)
	if err != nil {
		return "", err
	}

	return "9W" + riderPart + tsPart + randPart, nil
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return strings.Repeat("0", n-len(s)) + s
	}
	return s[len(s)-n:]
}

func lastNUpper(s string, n int) string {
	return strings.ToUpper(lastN(s, n))
}

func randomBase36(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36Alphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(base36Alphabet[idx.Int64()])
	}
	return b.String(), nil
}
