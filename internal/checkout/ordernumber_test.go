package checkout

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2025, 8, 10, 14, 30, 5, 0, time.UTC)

	number := GenerateOrderNumber(now, 4)
	assert.Regexp(t, regexp.MustCompile(`^ORD-20250810143005-\d{4}$`), number)

	wide := GenerateOrderNumber(now, 6)
	assert.Regexp(t, regexp.MustCompile(`^ORD-20250810143005-\d{6}$`), wide)

	// zero digits falls back to the default width
	fallback := GenerateOrderNumber(now, 0)
	assert.Regexp(t, regexp.MustCompile(`^ORD-20250810143005-\d{4}$`), fallback)
}

func TestGenerateOrderNumberVaries(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[GenerateOrderNumber(now, 8)] = true
	}
	// 8 random digits over 50 draws should essentially never collide
	assert.Greater(t, len(seen), 45)
}
