package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogHandler returns a JSON handler that ships records to a GELF UDP
// endpoint. The returned closer releases the socket.
func NewGraylogHandler(address, level string) (slog.Handler, io.Closer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create graylog writer: %w", err)
	}
	w.Facility = ServiceName
	return slog.NewJSONHandler(w, handlerOptions(parseLevel(level))), w, nil
}
