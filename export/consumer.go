package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
)

// Consumer receives exported batches. Delivery is a single synchronous call
// with no retry.
type Consumer interface {
	Consume(Batch) error
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc func(Batch) error

func (f ConsumerFunc) Consume(b Batch) error { return f(b) }

// LogConsumer prints each bundle to a logger.
type LogConsumer struct {
	// Logger defaults to the standard logger.
	Logger *log.Logger
}

func (c LogConsumer) Consume(b Batch) error {
	logger := c.Logger
	if logger == nil {
		logger = log.Default()
	}
	for _, bundle := range b.Bundles {
		logger.Printf("placement %s: page %d of %d at (%d, %d) px, signature %dx%d px, viewport %dx%d px",
			bundle.ID, bundle.PageIndex+1, bundle.TotalDocumentPages,
			bundle.CoordX, bundle.CoordY,
			bundle.SignatureWidth, bundle.SignatureHeight,
			bundle.ViewportWidth, bundle.ViewportHeight)
	}
	return nil
}

// JSONConsumer writes each batch as indented JSON.
type JSONConsumer struct {
	w io.Writer
}

// NewJSONConsumer returns a consumer writing to w.
func NewJSONConsumer(w io.Writer) *JSONConsumer {
	return &JSONConsumer{w: w}
}

func (c *JSONConsumer) Consume(b Batch) error {
	enc := json.NewEncoder(c.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	return nil
}

// Multi delivers a batch to every consumer in order and stops at the first
// error.
func Multi(consumers ...Consumer) Consumer {
	return ConsumerFunc(func(b Batch) error {
		for _, c := range consumers {
			if err := c.Consume(b); err != nil {
				return err
			}
		}
		return nil
	})
}
