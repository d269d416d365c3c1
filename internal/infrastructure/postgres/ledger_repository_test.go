package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

func TestLedgerWhere(t *testing.T) {
	where, args := ledgerWhere(repository.LedgerFilter{Limit: 10})
	assert.Empty(t, where)
	assert.Empty(t, args)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	where, args = ledgerWhere(repository.LedgerFilter{
		WarehouseID: "w1",
		Type:        entity.TypeDelivery,
		Status:      entity.StatusShipping,
		From:        &from,
	})
	assert.Equal(t, " WHERE warehouse_id = $1 AND type = $2 AND status = $3 AND created_at >= $4", where)
	assert.Equal(t, []any{"w1", "delivery", "SHIPPING", from}, args)
}
