// Package ticker implements the secondary output stream: a line-delimited
// JSON feed of trade and cancellation events, written after the primary
// response for the command that produced them (spec sections 2 and 5).
package ticker

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// Event is one ticker message. Type is "trade" or "cancel"; Price/Qty are
// populated for trades, OrderID for cancels.
type Event struct {
	Type    string `json:"type"`
	Symbol  string `json:"symbol"`
	Price   int64  `json:"price,omitempty"`
	Qty     int64  `json:"qty,omitempty"`
	OrderID int64  `json:"id,omitempty"`
	TS      string `json:"ts"`
}

// Sink publishes ticker events. Engine holds one and calls it once per
// trade and once per successful cancellation; main wires it to whatever
// secondary stream the process was launched with.
type Sink interface {
	Publish(Event)
}

// Writer is the default Sink: newline-delimited JSON written to an
// io.Writer, one event per Publish call, serialized with a mutex since
// nothing else in this single-threaded engine needs concurrent access,
// but a Sink is a natural seam for future multi-consumer fanout.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter wraps w as a ticker Sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Publish writes ev as one JSON line. Write failures are logged and
// swallowed: the ticker stream is best-effort, and its loss must never
// take down command processing on the primary stream (spec section 5
// treats it as a secondary, lower-guarantee channel).
func (w *Writer) Publish(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("ticker: marshal failed")
		return
	}
	b = append(b, '\n')
	if _, err := w.w.Write(b); err != nil {
		log.Error().Err(err).Msg("ticker: write failed")
	}
}

// Discard is a Sink that drops every event. Used when the process has no
// secondary stream available (spec section 1 treats the ticker channel's
// existence as a contract with an external frontend, not a requirement
// that one always be attached for the engine to run standalone).
type Discard struct{}

// Publish implements Sink by doing nothing.
func (Discard) Publish(Event) {}
