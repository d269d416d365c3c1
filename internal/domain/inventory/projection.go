package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
)

// Counts indica si el asiento cuenta para la cantidad según su tipo y estado:
// recepción en COMPLETED, entrega en SHIPPED, traslados y ajustes siempre.
func Counts(tx *entity.Transaction) bool {
	w, ok := WorkflowFor(tx.Type)
	if !ok {
		return false
	}
	return w.IsTerminal(tx.Status)
}

// Effect aporte del asiento a la cantidad del par (cero si aún no cuenta).
func Effect(tx *entity.Transaction) decimal.Decimal {
	if !Counts(tx) {
		return decimal.Zero
	}
	return tx.SignedQuantity()
}

// Fold calcula la cantidad por par replicando el libro. Dentro de cada par se pliega en orden
// de CommitSeq (el momento lógico en que el asiento empezó a contar), de modo que el
// resultado no depende del orden en que lleguen los asientos de pares distintos.
func Fold(entries []*entity.Transaction) map[entity.StockKey]decimal.Decimal {
	return FoldUntil(entries, nil)
}

// FoldUntil igual que Fold pero solo con asientos comprometidos hasta at (inclusive).
// at nil = sin límite.
func FoldUntil(entries []*entity.Transaction, at *time.Time) map[entity.StockKey]decimal.Decimal {
	byKey := make(map[entity.StockKey][]*entity.Transaction)
	for _, tx := range entries {
		if !Counts(tx) {
			continue
		}
		if at != nil && tx.CommittedAt != nil && tx.CommittedAt.After(*at) {
			continue
		}
		byKey[tx.Key()] = append(byKey[tx.Key()], tx)
	}
	out := make(map[entity.StockKey]decimal.Decimal, len(byKey))
	for k, list := range byKey {
		sort.SliceStable(list, func(i, j int) bool { return commitOrder(list[i]) < commitOrder(list[j]) })
		qty := decimal.Zero
		for _, tx := range list {
			qty = qty.Add(tx.SignedQuantity())
		}
		out[k] = qty
	}
	return out
}

func commitOrder(tx *entity.Transaction) int64 {
	if tx.CommitSeq > 0 {
		return tx.CommitSeq
	}
	return tx.Seq
}
