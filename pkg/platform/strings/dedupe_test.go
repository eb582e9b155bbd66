package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	assert.Nil(t, DedupeAndTrim(nil))
	assert.Empty(t, DedupeAndTrim([]string{}))
	assert.Equal(t,
		[]string{"broker-1:9092", "broker-2:9092"},
		DedupeAndTrim([]string{" broker-1:9092", "", "broker-2:9092 ", "broker-1:9092", "   "}),
	)
	assert.Equal(t, []string{"A", "a"}, DedupeAndTrim([]string{"A", "a"}), "case is preserved")
}

func TestDedupeAndTrimLower(t *testing.T) {
	got := DedupeAndTrimLower([]string{
		"0xAbC0000000000000000000000000000000000001",
		" 0xabc0000000000000000000000000000000000001 ",
		"0x0000000000000000000000000000000000000002",
		"",
	})
	assert.Equal(t, []string{
		"0xabc0000000000000000000000000000000000001",
		"0x0000000000000000000000000000000000000002",
	}, got)
}
