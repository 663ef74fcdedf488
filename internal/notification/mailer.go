package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"ticket-reservation/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Mailer delivers a single rendered email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes mail to the log instead of an SMTP relay. Default wiring
// for environments without a mail server.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, body string) error {
	logger.WithComponent("mailer").Info("sending email",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}

// MailerWorker consumes notification messages from the Redis stream and
// hands them to the Mailer one by one.
type MailerWorker struct {
	redisClient *redis.Client
	wmLogger    watermill.LoggerAdapter
	mailer      Mailer
}

func NewMailerWorker(redisClient *redis.Client, wmLogger watermill.LoggerAdapter, mailer Mailer) *MailerWorker {
	return &MailerWorker{redisClient: redisClient, wmLogger: wmLogger, mailer: mailer}
}

func (w *MailerWorker) subscribe(ctx context.Context, topic string, handle func(*message.Message) error) error {
	subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        w.redisClient,
		ConsumerGroup: "mailer." + topic,
	}, w.wmLogger)
	if err != nil {
		return err
	}

	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		log := logger.WithComponent("mailer")
		for msg := range messages {
			if err := handle(msg); err != nil {
				log.Error("failed to handle notification", zap.String("topic", topic), zap.Error(err))
				msg.Nack()
			} else {
				msg.Ack()
			}
		}
	}()
	return nil
}

func (w *MailerWorker) Start(ctx context.Context) error {
	err := w.subscribe(ctx, TopicReservationConfirmed, func(msg *message.Message) error {
		var event ReservationConfirmed
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return err
		}
		subject := fmt.Sprintf("Your reservation for %s is confirmed", event.EventName)
		body := fmt.Sprintf("Reservation %s has been confirmed.", event.ReservationID)
		return w.mailer.Send(ctx, event.Email, subject, body)
	})
	if err != nil {
		return err
	}

	err = w.subscribe(ctx, TopicTicketRemoved, func(msg *message.Message) error {
		var event TicketRemoved
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return err
		}
		subject := fmt.Sprintf("Your ticket for %s has been released", event.EventName)
		body := fmt.Sprintf("Ticket %d is no longer reserved for you.", event.TicketID)
		return w.mailer.Send(ctx, event.Email, subject, body)
	})
	if err != nil {
		return err
	}

	return w.subscribe(ctx, TopicTicketAssigned, func(msg *message.Message) error {
		var event TicketAssigned
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return err
		}
		subject := fmt.Sprintf("Your ticket for %s", event.EventName)
		body := fmt.Sprintf("Ticket %d is assigned to you.", event.TicketID)
		return w.mailer.Send(ctx, event.Email, subject, body)
	})
}
