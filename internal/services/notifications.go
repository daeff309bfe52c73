package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

// Routing keys of the published domain events.
const (
	EventReminderCreated   = "reminder.created"
	EventAssignmentCreated = "assignment.created"
	EventAssignmentRemoved = "assignment.removed"
)

const publishTimeout = 5 * time.Second

// Notifier receives domain events. Implementations must not block the
// caller for long and never report failures back.
type Notifier interface {
	ReminderCreated(r *models.Reminder)
	ProviderAssigned(patientID, providerID string)
	ProviderUnassigned(patientID, providerID string)
}

type ReminderEvent struct {
	ReminderID string    `json:"reminderId"`
	PatientID  string    `json:"patientId"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	DueDate    time.Time `json:"dueDate"`
}

type AssignmentEvent struct {
	PatientID  string    `json:"patientId"`
	ProviderID string    `json:"providerId"`
	At         time.Time `json:"at"`
}

func reminderEvent(r *models.Reminder) ReminderEvent {
	ev := ReminderEvent{
		ReminderID: r.ID.Hex(),
		PatientID:  r.User.Hex(),
		Title:      r.Title,
		Type:       r.Type,
		DueDate:    r.DueDate,
	}
	if r.CreatedBy != nil {
		ev.CreatedBy = r.CreatedBy.Hex()
	}
	return ev
}

// LogNotifier writes every event to the log.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) ReminderCreated(r *models.Reminder) {
	n.log.Info("reminder created",
		zap.String("reminderId", r.ID.Hex()),
		zap.String("patientId", r.User.Hex()),
		zap.String("type", r.Type),
		zap.Time("dueDate", r.DueDate))
}

func (n *LogNotifier) ProviderAssigned(patientID, providerID string) {
	n.log.Info("provider assigned", zap.String("patientId", patientID), zap.String("providerId", providerID))
}

func (n *LogNotifier) ProviderUnassigned(patientID, providerID string) {
	n.log.Info("provider unassigned", zap.String("patientId", patientID), zap.String("providerId", providerID))
}

// Publisher is the subset of an AMQP channel wrapper the notifier needs.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// AMQPPublisher publishes JSON messages to a topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// EventNotifier logs each event and publishes it in the background.
type EventNotifier struct {
	*LogNotifier
	pub Publisher
}

func NewEventNotifier(log *zap.Logger, pub Publisher) *EventNotifier {
	return &EventNotifier{LogNotifier: NewLogNotifier(log), pub: pub}
}

func (n *EventNotifier) publish(key string, v any) {
	// Send in a goroutine so it doesn't block the API response
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := n.pub.PublishJSON(ctx, key, v); err != nil {
			n.log.Error("publish event failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

func (n *EventNotifier) ReminderCreated(r *models.Reminder) {
	n.LogNotifier.ReminderCreated(r)
	n.publish(EventReminderCreated, reminderEvent(r))
}

func (n *EventNotifier) ProviderAssigned(patientID, providerID string) {
	n.LogNotifier.ProviderAssigned(patientID, providerID)
	n.publish(EventAssignmentCreated, AssignmentEvent{PatientID: patientID, ProviderID: providerID, At: time.Now()})
}

func (n *EventNotifier) ProviderUnassigned(patientID, providerID string) {
	n.LogNotifier.ProviderUnassigned(patientID, providerID)
	n.publish(EventAssignmentRemoved, AssignmentEvent{PatientID: patientID, ProviderID: providerID, At: time.Now()})
}
