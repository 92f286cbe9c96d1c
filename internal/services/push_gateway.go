package services

import (
	"context"
	"regexp"

	"groops-notifier/internal/metrics"

	"go.uber.org/zap"
)

// DefaultPushChunkSize is the most messages the push provider accepts per call
const DefaultPushChunkSize = 100

// TicketStatusOK marks a ticket for a message the provider accepted
const TicketStatusOK = "ok"

var pushTokenPattern = regexp.MustCompile(`^(ExponentPushToken|ExpoPushToken)\[[^\[\]\s]+\]$`)

// ValidPushToken reports whether token has the provider's device token shape
func ValidPushToken(token string) bool {
	return pushTokenPattern.MatchString(token)
}

// PushMessage is one notification addressed to one device
type PushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

// Ticket is the provider's per-message answer to a send call
type Ticket struct {
	Status  string                 `json:"status"`
	ID      string                 `json:"id,omitempty"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Transport sends one chunk and returns one ticket per message, in order
type Transport interface {
	Send(ctx context.Context, messages []PushMessage) ([]Ticket, error)
}

// TicketFailure is a message the provider rejected
type TicketFailure struct {
	Token   string
	Message string
	Details map[string]interface{}
}

// SendResult summarizes one logical send
type SendResult struct {
	Attempted int
	Accepted  int
	Failures  []TicketFailure
}

// PushGateway fans a list of messages out to the transport in provider-sized
// chunks. Delivery is best effort: ticket errors and failed chunks are logged
// and reported, never returned as an error.
type PushGateway struct {
	transport Transport
	chunkSize int
	log       *zap.Logger
}

func NewPushGateway(transport Transport, chunkSize int, log *zap.Logger) *PushGateway {
	if chunkSize <= 0 || chunkSize > DefaultPushChunkSize {
		chunkSize = DefaultPushChunkSize
	}
	return &PushGateway{
		transport: transport,
		chunkSize: chunkSize,
		log:       log.Named("push"),
	}
}

// Send validates tokens, chunks the messages and sends every chunk
func (g *PushGateway) Send(ctx context.Context, messages []PushMessage) SendResult {
	var result SendResult

	valid := make([]PushMessage, 0, len(messages))
	for _, m := range messages {
		if !ValidPushToken(m.To) {
			g.log.Warn("dropping message with invalid push token", zap.String("token", m.To))
			continue
		}
		valid = append(valid, m)
	}

	for start := 0; start < len(valid); start += g.chunkSize {
		end := start + g.chunkSize
		if end > len(valid) {
			end = len(valid)
		}
		chunk := valid[start:end]
		result.Attempted += len(chunk)

		tickets, err := g.transport.Send(ctx, chunk)
		if err != nil {
			metrics.PushChunkErrors.Inc()
			g.log.Error("push chunk failed", zap.Int("messages", len(chunk)), zap.Error(err))
			continue
		}
		if len(tickets) != len(chunk) {
			g.log.Warn("ticket count does not match chunk size",
				zap.Int("messages", len(chunk)), zap.Int("tickets", len(tickets)))
		}

		for idx, ticket := range tickets {
			if idx >= len(chunk) {
				break
			}
			if ticket.Status == TicketStatusOK {
				result.Accepted++
				metrics.PushMessages.WithLabelValues(TicketStatusOK).Inc()
				continue
			}
			metrics.PushMessages.WithLabelValues("error").Inc()
			g.log.Warn("push ticket error",
				zap.String("token", chunk[idx].To),
				zap.String("message", ticket.Message),
				zap.Any("details", ticket.Details),
			)
			result.Failures = append(result.Failures, TicketFailure{
				Token:   chunk[idx].To,
				Message: ticket.Message,
				Details: ticket.Details,
			})
		}
	}

	return result
}
