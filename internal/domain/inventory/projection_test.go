package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/inventory"
)

func entry(seq int64, typ entity.TransactionType, wh string, qty int64, status entity.Status) *entity.Transaction {
	return &entity.Transaction{
		ID: "tx", Seq: seq, Type: typ, ProductID: "p1", WarehouseID: wh,
		Quantity: decimal.NewFromInt(qty), Status: status,
	}
}

func TestEffect_SegunTipoYEstado(t *testing.T) {
	assert.True(t, inventory.Effect(entry(1, entity.TypeReceipt, "A", 10, entity.StatusOrderPlaced)).IsZero())
	assert.True(t, inventory.Effect(entry(1, entity.TypeReceipt, "A", 10, entity.StatusInTransit)).IsZero())
	assert.Equal(t, "10", inventory.Effect(entry(1, entity.TypeReceipt, "A", 10, entity.StatusCompleted)).String())

	assert.True(t, inventory.Effect(entry(1, entity.TypeDelivery, "A", 4, entity.StatusShipping)).IsZero())
	assert.Equal(t, "-4", inventory.Effect(entry(1, entity.TypeDelivery, "A", 4, entity.StatusShipped)).String())

	assert.Equal(t, "5", inventory.Effect(entry(1, entity.TypeTransferIn, "B", 5, entity.StatusDone)).String())
	assert.Equal(t, "-5", inventory.Effect(entry(1, entity.TypeTransferOut, "A", 5, entity.StatusDone)).String())

	adj := entry(1, entity.TypeAdjustment, "A", 3, entity.StatusDone)
	assert.Equal(t, "3", inventory.Effect(adj).String())
	adj.Negative = true
	assert.Equal(t, "-3", inventory.Effect(adj).String())
}

func TestFold_EscenarioBodegas(t *testing.T) {
	entries := []*entity.Transaction{
		entry(1, entity.TypeReceipt, "A", 100, entity.StatusCompleted),
		entry(3, entity.TypeTransferOut, "A", 30, entity.StatusDone),
		entry(4, entity.TypeTransferIn, "B", 30, entity.StatusDone),
		entry(5, entity.TypeDelivery, "A", 20, entity.StatusShipped),
		entry(7, entity.TypeReceipt, "A", 500, entity.StatusOrderPlaced), // pendiente, no cuenta
	}
	dmg := entry(8, entity.TypeAdjustment, "A", 3, entity.StatusDone)
	dmg.Negative = true
	entries = append(entries, dmg)

	got := inventory.Fold(entries)
	assert.Equal(t, "47", got[entity.StockKey{ProductID: "p1", WarehouseID: "A"}].String())
	assert.Equal(t, "30", got[entity.StockKey{ProductID: "p1", WarehouseID: "B"}].String())
}

func TestFold_IndependienteDelOrdenDeEntrada(t *testing.T) {
	a := []*entity.Transaction{
		entry(1, entity.TypeReceipt, "A", 10, entity.StatusCompleted),
		entry(2, entity.TypeReceipt, "B", 7, entity.StatusCompleted),
		entry(3, entity.TypeTransferOut, "A", 2, entity.StatusDone),
	}
	b := []*entity.Transaction{a[2], a[1], a[0]}
	assert.Equal(t, inventory.Fold(a), inventory.Fold(b))
}

func TestFoldUntil_ConsultaEnElTiempo(t *testing.T) {
	t0 := time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t0.Add(2 * time.Hour)

	rcpt := entry(1, entity.TypeReceipt, "A", 100, entity.StatusCompleted)
	rcpt.CommitSeq, rcpt.CommittedAt = 4, &t2 // creado en t0, completado en t2
	adj := entry(2, entity.TypeAdjustment, "A", 5, entity.StatusDone)
	adj.CommitSeq, adj.CommittedAt = 2, &t1

	key := entity.StockKey{ProductID: "p1", WarehouseID: "A"}
	assert.Equal(t, "5", inventory.FoldUntil([]*entity.Transaction{rcpt, adj}, &t1)[key].String())
	assert.Equal(t, "105", inventory.FoldUntil([]*entity.Transaction{rcpt, adj}, &t2)[key].String())
	_, ok := inventory.FoldUntil([]*entity.Transaction{rcpt, adj}, &t0)[key]
	assert.False(t, ok)
}
