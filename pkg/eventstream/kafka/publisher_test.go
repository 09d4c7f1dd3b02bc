package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/driftlens/pkg/eventstream"
	"github.com/papercomputeco/driftlens/pkg/eventstream/kafka"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

type recordingWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		w *recordingWriter
		p *kafka.Publisher
	)

	BeforeEach(func() {
		w = &recordingWriter{}
		var err error
		p, err = kafka.NewPublisher(kafka.Config{Writer: w}, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires brokers when no writer is given", func() {
		_, err := kafka.NewPublisher(kafka.Config{}, nil)
		Expect(err).To(HaveOccurred())
	})

	It("creates a writer from brokers", func() {
		pub, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(pub.Close()).To(Succeed())
	})

	It("writes the event keyed by record id", func() {
		event := eventstream.NewRecordIngestedEvent(vector.Record{ID: "r1", Vector: vector.Vector{1, 2}, Label: "cat"}, false)

		Expect(p.PublishIngested(context.Background(), event)).To(Succeed())
		Expect(w.messages).To(HaveLen(1))

		msg := w.messages[0]
		Expect(string(msg.Key)).To(Equal("r1"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeRecordIngested)}))

		var decoded eventstream.RecordIngestedEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.RecordID).To(Equal("r1"))
		Expect(decoded.Dimension).To(Equal(2))
	})

	It("returns ErrNilEvent for nil events", func() {
		Expect(p.PublishIngested(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(w.messages).To(BeEmpty())
	})

	It("wraps writer failures", func() {
		w.err = errors.New("broker down")
		event := eventstream.NewRecordIngestedEvent(vector.Record{ID: "r1", Vector: vector.Vector{1}}, false)

		err := p.PublishIngested(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker down")))
	})

	It("closes the writer", func() {
		Expect(p.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})
})
