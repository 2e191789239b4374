package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePagination(t *testing.T) {
	cases := []struct {
		name         string
		page         string
		pageSize     string
		wantPage     int
		wantPageSize int
	}{
		{"defaults pass through", "1", "10", 1, 10},
		{"zero page clamps to first", "0", "10", 1, 10},
		{"negative page clamps to first", "-3", "10", 1, 10},
		{"garbage page clamps to first", "abc", "10", 1, 10},
		{"zero page size clamps to default", "2", "0", 2, 10},
		{"negative page size clamps to default", "2", "-5", 2, 10},
		{"garbage page size clamps to default", "2", "lots", 2, 10},
		{"oversized page size caps at 100", "1", "5000", 1, 100},
		{"in-range values kept", "7", "25", 7, 25},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			page, pageSize := normalizePagination(c.page, c.pageSize)
			assert.Equal(t, c.wantPage, page)
			assert.Equal(t, c.wantPageSize, pageSize)

			// the derived offset can never go negative
			assert.GreaterOrEqual(t, (page-1)*pageSize, 0)
		})
	}
}
