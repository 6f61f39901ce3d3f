package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/event"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
)

const (
	TypeGigCreated = "gig_created"

	queueSize    = 1000
	writeTimeout = 10 * time.Second
)

type envelope struct {
	Type       string           `json:"type"`
	OccurredAt time.Time        `json:"occurred_at"`
	Gig        event.GigCreated `json:"gig"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer экспортирует события о новых сменах в Kafka. Остальные события ему не нужны.
type Producer struct {
	event.NopPublisher

	writer KafkaWriter
	events chan event.GigCreated
	log    *logrus.Entry

	closeOnce sync.Once
	closeChan chan struct{}
	done      chan struct{}
}

var _ event.Publisher = (*Producer)(nil)

func NewProducer(brokers []string, topic string) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		Topic:                  topic,
		AllowAutoTopicCreation: true,
	})
}

func NewProducerWithWriter(writer KafkaWriter) *Producer {
	p := &Producer{
		writer:    writer,
		events:    make(chan event.GigCreated, queueSize),
		log:       logger.WithComponent("kafka_producer"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.eventLoop()
	return p
}

// GigCreated ставит событие в очередь; при переполнении событие отбрасывается.
func (p *Producer) GigCreated(_ context.Context, e event.GigCreated) {
	select {
	case p.events <- e:
	default:
		p.log.WithField("gig_id", e.GigID).Warn("очередь Kafka переполнена, событие отброшено")
	}
}

func (p *Producer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case e := <-p.events:
			p.send(e)
		case <-p.closeChan:
			for {
				select {
				case e := <-p.events:
					p.send(e)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) send(e event.GigCreated) {
	value, err := json.Marshal(envelope{Type: TypeGigCreated, OccurredAt: time.Now().UTC(), Gig: e})
	if err != nil {
		p.log.WithError(err).WithField("gig_id", e.GigID).Error("не удалось сериализовать событие")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.GigID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeGigCreated)},
		},
	})
	if err != nil {
		p.log.WithError(err).WithField("gig_id", e.GigID).Error("не удалось отправить событие в Kafka")
	}
}

// Close дописывает очередь и закрывает writer.
func (p *Producer) Close() {
	p.closeOnce.Do(func() {
		close(p.closeChan)
		<-p.done
		if err := p.writer.Close(); err != nil {
			p.log.WithError(err).Error("не удалось закрыть Kafka writer")
		}
	})
}
