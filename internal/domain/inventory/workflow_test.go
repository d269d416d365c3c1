package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/inventory"
)

func TestWorkflow_TodosLosTiposTienenFlujo(t *testing.T) {
	for _, typ := range []entity.TransactionType{
		entity.TypeReceipt, entity.TypeDelivery, entity.TypeTransferIn, entity.TypeTransferOut, entity.TypeAdjustment,
	} {
		_, ok := inventory.WorkflowFor(typ)
		assert.True(t, ok, "tipo %s sin flujo", typ)
	}
	_, ok := inventory.WorkflowFor("refund")
	assert.False(t, ok)
}

func TestWorkflow_Receipt(t *testing.T) {
	w, _ := inventory.WorkflowFor(entity.TypeReceipt)
	assert.Equal(t, entity.StatusOrderPlaced, w.Initial())
	assert.Equal(t, entity.StatusCompleted, w.Terminal())

	cases := []struct {
		name     string
		from, to entity.Status
		changed  bool
		commits  bool
		wantErr  bool
	}{
		{"avanza a tránsito", entity.StatusOrderPlaced, entity.StatusInTransit, true, false, false},
		{"tránsito a completado", entity.StatusInTransit, entity.StatusCompleted, true, true, false},
		{"salta a completado", entity.StatusOrderPlaced, entity.StatusCompleted, true, true, false},
		{"completado repetido es no-op", entity.StatusCompleted, entity.StatusCompleted, false, false, false},
		{"mismo estado no terminal es no-op", entity.StatusInTransit, entity.StatusInTransit, false, false, false},
		{"retroceso", entity.StatusCompleted, entity.StatusInTransit, false, false, true},
		{"retroceso al inicial", entity.StatusInTransit, entity.StatusOrderPlaced, false, false, true},
		{"estado de otro flujo", entity.StatusOrderPlaced, entity.StatusShipped, false, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := w.Transition("tx-1", tc.from, tc.to)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
				var ite *domain.InvalidTransitionError
				require.ErrorAs(t, err, &ite)
				assert.Equal(t, "tx-1", ite.TransactionID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.changed, tr.Changed)
			assert.Equal(t, tc.commits, tr.Commits)
		})
	}
}

func TestWorkflow_Delivery(t *testing.T) {
	w, _ := inventory.WorkflowFor(entity.TypeDelivery)
	assert.Equal(t, entity.StatusOrderReceived, w.Initial())
	assert.Equal(t, entity.StatusShipped, w.Terminal())

	tr, err := w.Transition("d", entity.StatusOrderReceived, entity.StatusShipping)
	require.NoError(t, err)
	assert.False(t, tr.Commits)

	tr, err = w.Transition("d", entity.StatusShipping, entity.StatusShipped)
	require.NoError(t, err)
	assert.True(t, tr.Commits)

	_, err = w.Transition("d", entity.StatusShipped, entity.StatusShipping)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestWorkflow_TrasladosYAjustesNoAdmitenCambios(t *testing.T) {
	for _, typ := range []entity.TransactionType{entity.TypeTransferIn, entity.TypeTransferOut, entity.TypeAdjustment} {
		w, _ := inventory.WorkflowFor(typ)
		assert.True(t, w.TerminalOnCreation())
		assert.Equal(t, entity.StatusDone, w.Initial())
		_, err := w.Transition("x", entity.StatusDone, entity.StatusDone)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "tipo %s", typ)
	}
}

func TestIsPending(t *testing.T) {
	assert.True(t, inventory.IsPending(&entity.Transaction{Type: entity.TypeReceipt, Status: entity.StatusInTransit}))
	assert.True(t, inventory.IsPending(&entity.Transaction{Type: entity.TypeDelivery, Status: entity.StatusOrderReceived}))
	assert.False(t, inventory.IsPending(&entity.Transaction{Type: entity.TypeDelivery, Status: entity.StatusShipped}))
	assert.False(t, inventory.IsPending(&entity.Transaction{Type: entity.TypeAdjustment, Status: entity.StatusDone}))
}
