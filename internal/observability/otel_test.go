package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/squadfinders/bot-gateway/internal/config"
)

func TestSetup_DisabledIsNoOp(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.OTELConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("Setup disabled: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
}

func TestSetup_ExporterErrorPropagates(t *testing.T) {
	orig := newOTLPExporter
	defer func() { newOTLPExporter = orig }()

	boom := errors.New("no collector")
	newOTLPExporter = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, boom
	}

	_, err := Setup(context.Background(), config.OTELConfig{Enabled: true, Endpoint: "localhost:4317", Insecure: true, ServiceName: "t", SampleRatio: 1}, "test")
	if !errors.Is(err, boom) {
		t.Fatalf("expected exporter error, got %v", err)
	}
}

func TestSetup_ResourceErrorPropagates(t *testing.T) {
	origExp := newOTLPExporter
	origRes := newServiceResource
	defer func() {
		newOTLPExporter = origExp
		newServiceResource = origRes
	}()

	newOTLPExporter = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return &otlptrace.Exporter{}, nil
	}
	boom := errors.New("bad resource")
	newServiceResource = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return nil, boom
	}

	_, err := Setup(context.Background(), config.OTELConfig{Enabled: true, Endpoint: "localhost:4317", Insecure: true, ServiceName: "t", SampleRatio: 1}, "test")
	if !errors.Is(err, boom) {
		t.Fatalf("expected resource error, got %v", err)
	}
}
