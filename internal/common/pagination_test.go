package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMetadata(t *testing.T) {
	testCases := []struct {
		name  string
		total int
		page  int
		limit int
		pages int
	}{
		{"empty listing", 0, 1, 10, 0},
		{"single partial page", 3, 1, 10, 1},
		{"exact page boundary", 20, 1, 10, 2},
		{"one past the boundary", 21, 1, 10, 3},
		{"limit of one", 5, 3, 1, 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			metadata := NewMetadata(tc.total, tc.page, tc.limit)
			assert.Equal(t, tc.total, metadata.Total)
			assert.Equal(t, tc.page, metadata.Page)
			assert.Equal(t, tc.pages, metadata.Pages)
		})
	}
}
