// Package ws difunde por WebSocket los eventos confirmados del libro de stock.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
)

var _ inventory.EventPublisher = (*Hub)(nil)

// Client lo que el hub necesita de una conexión; *websocket.Conn lo cumple.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Converter arma los DTO de asientos con nombres de producto y bodega.
type Converter interface {
	ToDTOs(ctx context.Context, list []*entity.Transaction) ([]dto.TransactionDTO, error)
}

// Hub mantiene los clientes conectados y reparte los mensajes.
type Hub struct {
	clients    map[Client]bool
	unregister chan Client
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.Mutex
	conv       Converter
	log        zerolog.Logger
}

// NewHub construye el hub. buffer es la cola de mensajes pendientes; si se llena, Publish descarta.
func NewHub(conv Converter, buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		clients:    make(map[Client]bool),
		unregister: make(chan Client),
		broadcast:  make(chan []byte, buffer),
		done:       make(chan struct{}),
		conv:       conv,
		log:        log,
	}
}

// Run atiende bajas y difusiones hasta que ctx termine; al salir cierra todos los clientes.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for c := range h.clients {
				_ = c.Close()
				delete(h.clients, c)
			}
			close(h.done)
			h.mutex.Unlock()
			return

		case c := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				_ = c.Close()
			}
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for c := range h.clients {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					h.log.Debug().Err(err).Msg("cliente WS descartado")
					_ = c.Close()
					delete(h.clients, c)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register agrega un cliente; al volver ya recibe las difusiones siguientes.
// Si Run ya terminó, cierra el cliente.
func (h *Hub) Register(c Client) {
	h.mutex.Lock()
	select {
	case <-h.done:
		h.mutex.Unlock()
		_ = c.Close()
		return
	default:
	}
	h.clients[c] = true
	n := len(h.clients)
	h.mutex.Unlock()
	h.log.Debug().Int("clients", n).Msg("cliente WS conectado")
}

// Unregister retira y cierra un cliente.
func (h *Hub) Unregister(c Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Clients cantidad de clientes conectados.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish serializa el evento y lo encola sin bloquear.
func (h *Hub) Publish(ctx context.Context, event inventory.LedgerEvent) {
	msg := dto.LedgerEventDTO{Type: event.Kind}
	if len(event.Transactions) > 0 {
		txs, err := h.conv.ToDTOs(ctx, event.Transactions)
		if err != nil {
			h.log.Warn().Err(err).Str("event", event.Kind).Msg("no se pudo armar el evento")
			return
		}
		msg.Transactions = txs
	}
	if event.Change != nil {
		c := inventory.ToStatusChangeDTO(event.Change)
		msg.Change = &c
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		h.log.Warn().Err(err).Msg("serializar evento")
		return
	}
	select {
	case h.broadcast <- raw:
	default:
		h.log.Warn().Str("event", event.Kind).Msg("cola WS llena, evento descartado")
	}
}
