// Package kafka publishes analysis results to a sink topic for
// downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb/geojson"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
	"github.com/couchcryptid/climate-normals-etl/internal/observability"
)

// Publisher produces result messages to the sink topic: one message per
// zonal polygon, one per sampled point, and one run summary.
type Publisher struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured sink topic.
func NewPublisher(brokers []string, topic string, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// PublishResult serializes the run's zonal features, sampled points, and
// summary into a single batched WriteMessages call.
func (p *Publisher) PublishResult(ctx context.Context, result *domain.AnalysisResult) error {
	msgs, err := resultMessages(result)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	p.metrics.MessagesPublished.Add(float64(len(msgs)))
	p.logger.Info("published analysis result", "messages", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// resultMessages flattens a result into sink messages. Every message
// carries the run timestamp and a kind header so consumers can route
// without deserializing.
func resultMessages(result *domain.AnalysisResult) ([]kafkago.Message, error) {
	producedAt := result.ProducedAt.Format(time.RFC3339)

	var msgs []kafkago.Message
	add := func(kind, key string, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("serialize %s message: %w", kind, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(key),
			Value: data,
			Headers: []kafkago.Header{
				{Key: "kind", Value: []byte(kind)},
				{Key: "produced_at", Value: []byte(producedAt)},
			},
		})
		return nil
	}

	if result.Zonal != nil {
		for i, f := range result.Zonal.Features {
			if err := add("zone", featureKey("zone", i, f), f); err != nil {
				return nil, err
			}
		}
	}
	if result.Points != nil {
		for i, f := range result.Points.Features {
			if err := add("point", featureKey("point", i, f), f); err != nil {
				return nil, err
			}
		}
	}

	summary := struct {
		Regions    []string            `json:"regions"`
		Variables  []domain.Variable   `json:"variables"`
		Grid       domain.Grid         `json:"grid"`
		Global     []domain.GlobalStat `json:"global"`
		ProducedAt time.Time           `json:"produced_at"`
	}{
		Regions:    result.Regions,
		Variables:  result.Variables,
		Grid:       result.Grid,
		Global:     result.Global,
		ProducedAt: result.ProducedAt,
	}
	if err := add("summary", "summary", summary); err != nil {
		return nil, err
	}

	return msgs, nil
}

// featureKey prefers the feature's own ID or name attribute, falling
// back to a positional key.
func featureKey(kind string, i int, f *geojson.Feature) string {
	if f.ID != nil {
		return fmt.Sprintf("%s-%v", kind, f.ID)
	}
	if name, ok := f.Properties["name"].(string); ok && name != "" {
		return kind + "-" + name
	}
	return fmt.Sprintf("%s-%d", kind, i)
}
