// Package events publishes domain events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/vendorcredit/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	TypeTierChanged        = "tier.changed"
	TypeRepaymentCompleted = "repayment.completed"
	TypePurchaseApproved   = "purchase.approved"
)

var Module = fx.Module("events",
	fx.Provide(New),
)

// Event is one domain fact. Type doubles as the routing key.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Key        string    `json:"key,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher delivers events. Delivery is best effort; callers publish after
// their transaction has committed and only log failures.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Params struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg config.Config
	Log *zap.Logger
}

// New dials RabbitMQ when AMQP_URL is set. A broker that cannot be reached at
// startup downgrades to the no-op publisher instead of failing the process.
func New(p Params) Publisher {
	log := p.Log.Named("events")
	if p.Cfg.AMQPURL == "" {
		log.Info("amqp not configured, events are dropped")
		return NewNoop(log)
	}

	producer, err := NewAMQPPublisher(p.Cfg.AMQPURL, p.Cfg.AMQPExchange, log)
	if err != nil {
		log.Warn("amqp unavailable, events are dropped", zap.Error(err))
		return NewNoop(log)
	}

	p.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			producer.Close()
			return nil
		},
	})
	return producer
}

type noop struct {
	log *zap.Logger
}

func NewNoop(log *zap.Logger) Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &noop{log: log}
}

func (n *noop) Publish(_ context.Context, event Event) error {
	n.log.Debug("publish skipped", zap.String("type", event.Type), zap.String("key", event.Key))
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
