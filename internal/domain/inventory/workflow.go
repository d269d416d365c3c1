package inventory

import (
	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
)

// Workflow máquina de estados de un tipo de transacción (servicio de dominio).
// Los estados están en orden: el primero es el inicial y el último el terminal.
// Solo se avanza; se permite saltar estados intermedios.
type Workflow struct {
	Type   entity.TransactionType
	states []entity.Status
}

var workflows = map[entity.TransactionType]Workflow{
	entity.TypeReceipt: {
		Type:   entity.TypeReceipt,
		states: []entity.Status{entity.StatusOrderPlaced, entity.StatusInTransit, entity.StatusCompleted},
	},
	entity.TypeDelivery: {
		Type:   entity.TypeDelivery,
		states: []entity.Status{entity.StatusOrderReceived, entity.StatusShipping, entity.StatusShipped},
	},
	entity.TypeTransferIn:  {Type: entity.TypeTransferIn, states: []entity.Status{entity.StatusDone}},
	entity.TypeTransferOut: {Type: entity.TypeTransferOut, states: []entity.Status{entity.StatusDone}},
	entity.TypeAdjustment:  {Type: entity.TypeAdjustment, states: []entity.Status{entity.StatusDone}},
}

// WorkflowFor devuelve la máquina de estados del tipo. Todos los tipos válidos tienen una.
func WorkflowFor(t entity.TransactionType) (Workflow, bool) {
	w, ok := workflows[t]
	return w, ok
}

// Initial estado con el que se crea el asiento.
func (w Workflow) Initial() entity.Status { return w.states[0] }

// Terminal estado en el que el asiento afecta la cantidad.
func (w Workflow) Terminal() entity.Status { return w.states[len(w.states)-1] }

// IsTerminal indica si s es el estado terminal del flujo.
func (w Workflow) IsTerminal(s entity.Status) bool { return s == w.Terminal() }

// TerminalOnCreation true para traslados y ajustes: nacen en su único estado.
func (w Workflow) TerminalOnCreation() bool { return len(w.states) == 1 }

// Statuses estados del flujo en orden.
func (w Workflow) Statuses() []entity.Status {
	out := make([]entity.Status, len(w.states))
	copy(out, w.states)
	return out
}

func (w Workflow) index(s entity.Status) int {
	for i, st := range w.states {
		if st == s {
			return i
		}
	}
	return -1
}

// Transition resultado de evaluar un cambio de estado.
type Transition struct {
	From    entity.Status
	To      entity.Status
	Changed bool // false: se pidió el estado actual (no-op idempotente)
	Commits bool // el cambio alcanza el terminal y debe aplicar el efecto en cantidad
}

// Transition valida from -> to para el asiento id.
func (w Workflow) Transition(id string, from, to entity.Status) (Transition, error) {
	invalid := &domain.InvalidTransitionError{TransactionID: id, Type: string(w.Type), From: string(from), To: string(to)}
	if w.TerminalOnCreation() {
		return Transition{}, invalid
	}
	fi, ti := w.index(from), w.index(to)
	if fi < 0 || ti < 0 || ti < fi {
		return Transition{}, invalid
	}
	if ti == fi {
		return Transition{From: from, To: to}, nil
	}
	return Transition{From: from, To: to, Changed: true, Commits: w.IsTerminal(to)}, nil
}

// IsPending true si el asiento es una recepción o entrega aún no terminal.
func IsPending(tx *entity.Transaction) bool {
	w, ok := WorkflowFor(tx.Type)
	if !ok || w.TerminalOnCreation() {
		return false
	}
	return !w.IsTerminal(tx.Status)
}
