package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kmehta07/lastmile/core/metrics"
	"github.com/kmehta07/lastmile/infra/logger"
)

// InfluxSink writes dispatch decisions and learning cycles to an InfluxDB
// instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordDecision writes the decision as a point tagged by verdict and bucket.
func (s *InfluxSink) RecordDecision(res coremetrics.DecisionResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_decision").
		AddTag("shipment_id", res.ShipmentID).
		AddTag("decision", res.Decision.String()).
		AddTag("source", res.Source.String()).
		AddTag("bucket", res.Bucket.String()).
		AddTag("forced", strconv.FormatBool(res.Forced)).
		AddTag("component", "pipeline").
		AddField("score", res.Score).
		SetTime(res.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordLearningCycle writes one point per weight adjustment plus a cycle
// summary point.
func (s *InfluxSink) RecordLearningCycle(res coremetrics.LearningResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, adj := range res.Adjustments {
		p := write.NewPointWithMeasurement("weight_adjustment").
			AddTag("factor", string(adj.Factor)).
			AddTag("component", "learning").
			AddField("old", adj.Old).
			AddField("new", adj.New).
			AddField("failure_rate", adj.FailureRate).
			AddField("samples", adj.Samples).
			SetTime(adj.Timestamp)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	summary := write.NewPointWithMeasurement("learning_cycle").
		AddTag("component", "learning").
		AddField("outcomes", res.Outcomes).
		AddField("adjustments", len(res.Adjustments)).
		SetTime(res.Time)
	return s.writeAPI.WritePoint(ctx, summary)
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
