package killbuffer

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/wingops/debrief/internal/killbuffer"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
