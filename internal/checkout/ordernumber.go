package checkout

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderNumber builds a human-readable order number from the current
// time plus a random numeric suffix. Collisions are not detected here; the
// unique index on orders.order_number rejects the rare duplicate and the
// caller retries.
func GenerateOrderNumber(now time.Time, randomDigits int) string {
	if randomDigits <= 0 {
		randomDigits = 4
	}
	max := big.NewInt(1)
	for i := 0; i < randomDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		// crypto/rand failures are effectively fatal; fall back to the clock.
		n = big.NewInt(now.UnixNano() % max.Int64())
	}
	return fmt.Sprintf("ORD-%s-%0*d", now.Format("20060102150405"), randomDigits, n.Int64())
}
