// Package notification implements the collaborator that delivers
// customer-facing email. Messages go through a Redis stream so that delivery
// happens outside the reservation transaction; a failed send never rolls
// back a confirmed reservation.
package notification

import (
	"context"
	"encoding/json"

	"ticket-reservation/internal/model"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
)

type Notifier interface {
	SendConfirmation(ctx context.Context, event *model.Event, reservation *model.TicketReservation) error
	SendTicketRemoved(ctx context.Context, event *model.Event, ticket *model.Ticket) error
	SendTicketAssigned(ctx context.Context, event *model.Event, reservation *model.TicketReservation, ticket *model.Ticket) error
}

type StreamNotifier struct {
	publisher message.Publisher
}

func NewStreamNotifier(redisClient *redis.Client, logger watermill.LoggerAdapter) (*StreamNotifier, error) {
	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: redisClient,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &StreamNotifier{publisher: publisher}, nil
}

// NewStreamNotifierWithPublisher is used by tests and by callers that manage
// the publisher themselves.
func NewStreamNotifierWithPublisher(publisher message.Publisher) *StreamNotifier {
	return &StreamNotifier{publisher: publisher}
}

func (n *StreamNotifier) publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	return n.publisher.Publish(topic, msg)
}

func (n *StreamNotifier) SendConfirmation(ctx context.Context, event *model.Event, reservation *model.TicketReservation) error {
	return n.publish(TopicReservationConfirmed, ReservationConfirmed{
		Header:        NewHeader(),
		ReservationID: reservation.ID,
		EventName:     event.DisplayName,
		Email:         reservation.Email,
		Language:      reservation.UserLanguage,
	})
}

func (n *StreamNotifier) SendTicketRemoved(ctx context.Context, event *model.Event, ticket *model.Ticket) error {
	return n.publish(TopicTicketRemoved, TicketRemoved{
		Header:    NewHeader(),
		TicketID:  ticket.ID,
		EventName: event.DisplayName,
		Email:     ticket.Email,
	})
}

func (n *StreamNotifier) SendTicketAssigned(ctx context.Context, event *model.Event, reservation *model.TicketReservation, ticket *model.Ticket) error {
	return n.publish(TopicTicketAssigned, TicketAssigned{
		Header:    NewHeader(),
		TicketID:  ticket.ID,
		EventName: event.DisplayName,
		Email:     ticket.Email,
		Language:  reservation.UserLanguage,
	})
}
