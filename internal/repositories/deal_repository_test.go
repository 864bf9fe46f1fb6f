package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDealIDPrefix(t *testing.T) {
	// 15 March in IST
	day := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		customer string
		want     string
	}{
		{"four letter name", "Rahul Sharma", "RAHU1503"},
		{"short name", "Raj", "RAJ1503"},
		{"lowercase", "priya", "PRIY1503"},
		{"digits and spaces skipped", "A1 B2 C3 D4 E5", "ABCD1503"},
		{"single letter", "X", "X1503"},
		{"empty name", "", "1503"},
		{"punctuation only counts letters", "M/s. Gupta & Sons", "MSGU1503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DealIDPrefix(tt.customer, day))
		})
	}
}

func TestDealIDPrefixUsesISTDate(t *testing.T) {
	// 18:45 UTC on 31 Jan is already 00:15 on 1 Feb in IST
	day := time.Date(2025, 1, 31, 18, 45, 0, 0, time.UTC)
	assert.Equal(t, "TEST0102", DealIDPrefix("Test", day))
}

func TestDealSortColumnsRejectUnknownKeys(t *testing.T) {
	_, ok := dealSortColumns["createdAt"]
	assert.True(t, ok)

	_, ok = dealSortColumns["1; DROP TABLE deals"]
	assert.False(t, ok)

	_, ok = dealSortColumns[""]
	assert.False(t, ok)
}
