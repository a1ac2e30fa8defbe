package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		size     int
		total    int64
		count    int
		expected Pagination
	}{
		{"first page", 1, 10, 25, 10, Pagination{Page: 1, PageSize: 10, TotalItems: 25, TotalPages: 3, HasMore: true, From: 1, To: 10}},
		{"last partial page", 3, 10, 25, 5, Pagination{Page: 3, PageSize: 10, TotalItems: 25, TotalPages: 3, From: 21, To: 25}},
		{"beyond the end", 4, 10, 25, 0, Pagination{Page: 4, PageSize: 10, TotalItems: 25, TotalPages: 3}},
		{"empty", 1, 20, 0, 0, Pagination{Page: 1, PageSize: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, *NewPagination(tt.page, tt.size, tt.total, tt.count))
		})
	}
}
