package infra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const canalPrefix = "eventos:"

// Evento announces that a collection changed. Subscribers refetch; the
// payload does not carry the document.
type Evento struct {
	Coleccion string    `json:"coleccion"`
	Accion    string    `json:"accion"` // crear | actualizar | eliminar
	ID        string    `json:"id,omitempty"`
	Fecha     time.Time `json:"fecha"`
}

// Canal returns the Pub/Sub channel for a collection.
func Canal(coleccion string) string { return canalPrefix + coleccion }

// EventBus publishes and subscribes to collection change events over Redis
// Pub/Sub. Publishing goes through a circuit breaker.
type EventBus struct {
	rdb *redis.Client
	cb  *CircuitBreaker
}

func NewEventBus(rdb *redis.Client, cb *CircuitBreaker) *EventBus {
	if cb == nil {
		cb = NewCircuitBreaker(DefaultCBConfig())
	}
	return &EventBus{rdb: rdb, cb: cb}
}

// Publicar sends ev on its collection channel. Callers treat failures as
// best effort.
func (b *EventBus) Publicar(ctx context.Context, ev Evento) error {
	if b == nil || b.rdb == nil {
		return errors.New("eventos: redis no configurado")
	}
	if ev.Fecha.IsZero() {
		ev.Fecha = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.cb.Execute(func() error {
		return b.rdb.Publish(ctx, Canal(ev.Coleccion), data).Err()
	})
}

// Suscribir streams events for coleccion until ctx is cancelled. The returned
// channel is closed when the subscription ends.
func (b *EventBus) Suscribir(ctx context.Context, coleccion string) (<-chan Evento, error) {
	if b == nil || b.rdb == nil {
		return nil, errors.New("eventos: redis no configurado")
	}
	ps := b.rdb.Subscribe(ctx, Canal(coleccion))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan Evento, 16)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Evento
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Str("canal", msg.Channel).Msg("eventos: payload invalido")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Estado exposes the breaker state for /health.
func (b *EventBus) Estado() string {
	if b == nil {
		return "disabled"
	}
	return b.cb.State().String()
}
