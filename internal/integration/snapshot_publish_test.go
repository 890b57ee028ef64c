//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GSinger-Abt/commune-vi-service/internal/adapter/kafka"
	"github.com/GSinger-Abt/commune-vi-service/internal/config"
	"github.com/GSinger-Abt/commune-vi-service/internal/domain"
	"github.com/GSinger-Abt/commune-vi-service/internal/geodata"
	"github.com/GSinger-Abt/commune-vi-service/internal/observability"
	"github.com/GSinger-Abt/commune-vi-service/internal/scoring"
)

const testSinkTopic = "test-snapshots"

func integrationDataset() *geodata.Dataset {
	communes := []domain.Commune{
		{PCode: "MG24101001", Name: "Ambovombe", Region: "Androy", Population: 114842},
		{PCode: "MG25201001", Name: "Taolagnaro", Region: "Anosy", Population: 70284},
		{PCode: "MG22301001", Name: "Toliara", Region: "Atsimo Andrefana", Population: 168756},
	}
	indicators := []domain.Indicator{
		{Code: "MK_DIST", Label: "Distance To Market", Domain: domain.DomainMarket},
		{Code: "DIS_AFF", Label: "Disaster Affected", Domain: domain.DomainDisaster},
	}

	table := domain.NewIndicatorTable(communes, indicators)
	for i, v := range []float64{10, 20, 30} {
		table.Set(communes[i].PCode, "MK_DIST", v)
	}
	for i, v := range []float64{5, 1, 9} {
		table.Set(communes[i].PCode, "DIS_AFF", v)
	}

	return &geodata.Dataset{Communes: communes, Table: table, Source: "integration-test"}
}

// TestSnapshotPublishEndToEnd computes an index with the Kafka publisher
// wired in and verifies the snapshot round-trips through a real broker.
func TestSnapshotPublishEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	svc := scoring.NewService(integrationDataset(), scoring.Options{}, writer, discardLogger(), observability.NewMetricsForTesting())

	snap, err := svc.Compute(ctx, scoring.Request{
		Mode:    scoring.ModeWeighted,
		Weights: domain.Weights{"MK_DIST": 0.6, "DIS_AFF": 0.4},
	})
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	assert.Equal(t, snap.ID, string(msg.Key))

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "weighted", headers["mode"])
	_, err = time.Parse(time.RFC3339, headers["computed_at"])
	assert.NoError(t, err, "computed_at should be valid RFC3339")

	var published scoring.Snapshot
	require.NoError(t, json.Unmarshal(msg.Value, &published))
	assert.Equal(t, snap.ID, published.ID)
	require.Len(t, published.Scores, 3)
	assert.Equal(t, snap.Scores[0].Score, published.Scores[0].Score)
	assert.Len(t, published.Contributions, 9)

	// A cache hit on the same request must not publish a second message.
	_, err = svc.Compute(ctx, scoring.Request{
		Mode:    scoring.ModeWeighted,
		Weights: domain.Weights{"MK_DIST": 0.6, "DIS_AFF": 0.4},
	})
	require.NoError(t, err)

	secondCtx, secondCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(secondCtx)
	secondCancel()
	assert.Error(t, err, "expected no second message on sink topic")
}
