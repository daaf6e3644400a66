package booking

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const referenceSuffixLen = 4

// ReferenceFunc builds a human-facing booking reference. It is only a hint at
// uniqueness; the store constraint decides.
type ReferenceFunc func(trekID, batchID int, startDate time.Time) string

// NewReference formats TRK{trek}-B{batch}-{yyyymmdd}-{XXXX} with a random
// base-36 suffix.
func NewReference(trekID, batchID int, startDate time.Time) string {
	return fmt.Sprintf("TRK%d-B%d-%s-%s", trekID, batchID, startDate.UTC().Format("20060102"), randomSuffix())
}

func randomSuffix() string {
	id := uuid.New()
	s := strings.ToUpper(new(big.Int).SetBytes(id[:]).Text(36))
	if len(s) < referenceSuffixLen {
		s = strings.Repeat("0", referenceSuffixLen-len(s)) + s
	}
	return s[len(s)-referenceSuffixLen:]
}
