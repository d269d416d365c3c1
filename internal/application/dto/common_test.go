package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
)

func TestPageRequest_Normalize(t *testing.T) {
	cases := []struct {
		name          string
		in            dto.PageRequest
		limit, offset int
	}{
		{"vacío", dto.PageRequest{}, dto.DefaultLimit, 0},
		{"sobre el tope", dto.PageRequest{Limit: 500, Offset: 10}, dto.MaxLimit, 10},
		{"offset negativo", dto.PageRequest{Limit: 5, Offset: -3}, 5, 0},
		{"límite negativo", dto.PageRequest{Limit: -1}, dto.DefaultLimit, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.in
			p.Normalize()
			assert.Equal(t, tc.limit, p.Limit)
			assert.Equal(t, tc.offset, p.Offset)
		})
	}
}
