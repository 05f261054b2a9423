package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasknexus/server/internal/constants"
)

func TestGenerateInviteCode(t *testing.T) {
	code, err := GenerateInviteCode()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}$`), code)

	other, err := GenerateInviteCode()
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestNormalizeInviteCode(t *testing.T) {
	assert.Equal(t, "ab12-cd34-ef56", NormalizeInviteCode("  AB12-CD34-EF56 "))
}

func TestNewPaginationParams(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults for zero values", 0, 0, 1, constants.DefaultPageSize, 0},
		{"second page", 2, 10, 2, 10, 10},
		{"limit above max", 1, constants.MaxPageSize + 1, 1, constants.DefaultPageSize, 0},
		{"negative page", -3, 5, 1, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := NewPaginationParams(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
			assert.Equal(t, tt.wantOffset, params.Offset)
		})
	}
}

func TestPaginationResponse_TotalPages(t *testing.T) {
	params := NewPaginationParams(1, 10)

	assert.Equal(t, 0, params.Response(0).TotalPages)
	assert.Equal(t, 1, params.Response(10).TotalPages)
	assert.Equal(t, 3, params.Response(21).TotalPages)
}

func TestSinglePage(t *testing.T) {
	assert.Equal(t, PaginationResponse{Page: 1, Limit: 60, Total: 60, TotalPages: 1}, SinglePage(60))
	assert.Equal(t, 0, SinglePage(0).TotalPages)
}
