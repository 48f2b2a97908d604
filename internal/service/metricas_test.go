package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterRoto fails every instrument it is asked for.
type meterRoto struct{ noop.Meter }

func (meterRoto) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errors.New("exporter no disponible")
}

func (meterRoto) Int64Histogram(string, ...metric.Int64HistogramOption) (metric.Int64Histogram, error) {
	return nil, errors.New("exporter no disponible")
}

func TestNuevasCajaMetricas_FalloDelMeterSeLoguea(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	m := nuevasCajaMetricas(meterRoto{})

	assert.NotPanics(t, func() {
		m.ventas.Add(context.Background(), 1)
		m.cierres.Add(context.Background(), 1)
		m.montos.Record(context.Background(), 10000)
	})
	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	for _, nombre := range []string{"ventas_registradas_total", "cajas_cerradas_total", "venta_total_gs"} {
		assert.Contains(t, out, nombre)
	}
}
