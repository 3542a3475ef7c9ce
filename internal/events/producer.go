package events

import (
	"encoding/json"
	"strconv"
	"time"

	"plateful-backend/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	OrderCreatedTopic       = "order.created"
	OrderStatusChangedTopic = "order.status_changed"
	PaymentProcessedTopic   = "payment.processed"
)

type OrderCreatedEvent struct {
	EventID      string    `json:"event_id"`
	OrderID      int       `json:"order_id"`
	CustomerID   string    `json:"customer_id"`
	RestaurantID int       `json:"restaurant_id"`
	TotalAmount  float64   `json:"total_amount"`
	CouponCode   string    `json:"coupon_code,omitempty"`
	EventTime    time.Time `json:"event_time"`
}

type OrderStatusChangedEvent struct {
	EventID   string             `json:"event_id"`
	OrderID   int                `json:"order_id"`
	From      models.OrderStatus `json:"from"`
	To        models.OrderStatus `json:"to"`
	ActorID   string             `json:"actor_id"`
	EventTime time.Time          `json:"event_time"`
}

type PaymentProcessedEvent struct {
	EventID   string               `json:"event_id"`
	OrderID   int                  `json:"order_id"`
	PaymentID int                  `json:"payment_id"`
	Amount    float64              `json:"amount"`
	Method    models.PaymentMethod `json:"method"`
	Status    models.PaymentStatus `json:"status"`
	EventTime time.Time            `json:"event_time"`
}

// Publisher is the event surface the services depend on. A nil *KafkaProducer
// satisfies it as a no-op so the API can run without a broker in dev.
type Publisher interface {
	PublishOrderCreated(event OrderCreatedEvent) error
	PublishOrderStatusChanged(event OrderStatusChangedEvent) error
	PublishPaymentProcessed(event PaymentProcessedEvent) error
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers []string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return &KafkaProducer{
		producer: producer,
		logger:   logger,
	}, nil
}

func (p *KafkaProducer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}

func (p *KafkaProducer) PublishOrderCreated(event OrderCreatedEvent) error {
	event.EventID = uuid.New().String()
	event.EventTime = time.Now()
	return p.publish(OrderCreatedTopic, event.OrderID, event)
}

func (p *KafkaProducer) PublishOrderStatusChanged(event OrderStatusChangedEvent) error {
	event.EventID = uuid.New().String()
	event.EventTime = time.Now()
	return p.publish(OrderStatusChangedTopic, event.OrderID, event)
}

func (p *KafkaProducer) PublishPaymentProcessed(event PaymentProcessedEvent) error {
	event.EventID = uuid.New().String()
	event.EventTime = time.Now()
	return p.publish(PaymentProcessedTopic, event.OrderID, event)
}

// publish marshals and sends one message keyed by order id so all events for
// an order land on the same partition, preserving their relative order.
func (p *KafkaProducer) publish(topic string, orderID int, event interface{}) error {
	if p == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(strconv.Itoa(orderID)),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithField("topic", topic).Error("Failed to publish event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     topic,
		"partition": partition,
		"offset":    offset,
		"order_id":  orderID,
	}).Info("Event published")

	return nil
}
