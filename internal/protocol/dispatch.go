// Package protocol implements the line-oriented command protocol of spec
// sections 4.5 and 6: tokenizing stdin, dispatching to the matching
// engine, and serializing responses back to stdout (plus the binary
// ORDERBOOK_BINARY dump).
package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"disorderbook/internal/common"
	"disorderbook/internal/engine"
)

// ErrEOF is returned by Dispatcher.Run when stdin closes. Per spec
// section 4.5, EOF is fatal: the caller should exit the process with
// status 1 after Run returns this.
var ErrEOF = errors.New("protocol: unexpected EOF on stdin")

// Dispatcher reads commands from an input stream, drives an engine, and
// writes responses to an output stream.
type Dispatcher struct {
	Engine *engine.Engine
	Out    *bufio.Writer
}

// NewDispatcher wires a dispatcher to eng, writing responses to w.
func NewDispatcher(eng *engine.Engine, w io.Writer) *Dispatcher {
	return &Dispatcher{Engine: eng, Out: bufio.NewWriter(w)}
}

// Run reads one command per line from r until EOF or a read error,
// processing each in turn. It returns ErrEOF on clean EOF (the fatal
// condition spec section 4.5 describes) or a wrapped error on any other
// read failure.
func (d *Dispatcher) Run(r io.Reader) error {
	reader := bufio.NewReaderSize(r, 4096)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			d.dispatchLine(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.writeJSON(errorResponse("Unexpected EOF on stdin. Quitting."))
				d.end()
				return ErrEOF
			}
			return fmt.Errorf("protocol: reading stdin: %w", err)
		}
	}
}

func tokenize(line string) []string {
	raw := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == '\n'
	})
	if len(raw) > common.MaxTokens {
		raw = raw[:common.MaxTokens]
	}
	for i, t := range raw {
		if len(t) > common.MaxTokenSize {
			raw[i] = t[:common.MaxTokenSize]
		}
	}
	return raw
}

func (d *Dispatcher) dispatchLine(line string) {
	tokens := tokenize(line)
	if len(tokens) == 0 {
		d.writeJSON(errorResponse("Did not comprehend"))
		d.end()
		return
	}

	switch tokens[0] {
	case "ORDER":
		d.handleOrder(tokens)
	case "QUOTE":
		d.handleQuote()
	case "ORDERBOOK":
		d.handleOrderbook()
	case "ORDERBOOK_BINARY":
		d.handleOrderbookBinary()
	case "STATUS":
		d.handleStatus(tokens)
	case "STATUSALL":
		d.handleStatusAll(tokens)
	case "CANCEL":
		d.handleCancel(tokens)
	case "__ACC_FROM_ID__":
		d.handleAccFromID(tokens)
	case "__SCORES__":
		d.handleScores()
	case "__DEBUG_MEMORY__":
		d.handleDebugMemory()
	case "__TIMESTAMP__":
		d.handleTimestamp()
	default:
		log.Warn().Str("command", tokens[0]).Msg("unrecognized command")
		d.writeJSON(errorResponse("Did not comprehend"))
		d.end()
	}

	// Ticker messages for this command (trades, cancels) must be
	// observably ordered after its primary response (spec section 5), so
	// they're only published once every handler above has already
	// written and flushed that response.
	d.Engine.FlushTicker()
}

// writeJSON marshals v and writes it (without a trailing newline of its
// own — end() supplies the newline + END trailer every textual
// response ends with, per spec section 6).
func (d *Dispatcher) writeJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("protocol: marshal response failed")
		return
	}
	if _, err := d.Out.Write(b); err != nil {
		log.Error().Err(err).Msg("protocol: write response failed")
	}
}

// end writes the "\nEND\n" trailer and flushes, per spec section 6.
func (d *Dispatcher) end() {
	d.Out.WriteString("\nEND\n")
	if err := d.Out.Flush(); err != nil {
		log.Error().Err(err).Msg("protocol: flush failed")
	}
}

func parseInt(tok string) (int64, bool) {
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (d *Dispatcher) handleOrder(tokens []string) {
	// ORDER acct_name acct_id qty price dir kind
	if len(tokens) < 7 {
		d.writeJSON(errorResponse("Did not comprehend"))
		d.end()
		return
	}
	acctName := tokens[1]
	acctID, ok1 := parseInt(tokens[2])
	qty, ok2 := parseInt(tokens[3])
	price, ok3 := parseInt(tokens[4])
	dirRaw, ok4 := parseInt(tokens[5])
	kindRaw, ok5 := parseInt(tokens[6])
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		d.writeJSON(errorResponse(fmt.Sprintf("Backend error %d", common.ErrCodeSillyValue)))
		d.end()
		return
	}

	o, err := d.Engine.PlaceOrder(acctName, acctID, qty, price, common.Direction(dirRaw), common.Kind(kindRaw))
	if err != nil {
		code := common.BackendErrorCode(err)
		d.writeJSON(errorResponse(fmt.Sprintf("Backend error %d", code)))
		d.end()
		return
	}
	d.writeJSON(toOrderJSON(d.Engine.Venue, d.Engine.Symbol, o))
	d.end()
}

func (d *Dispatcher) handleQuote() {
	d.writeJSON(toQuoteJSON(d.Engine.Quote()))
	d.end()
}

func (d *Dispatcher) handleOrderbook() {
	ob := d.Engine.Book
	resp := orderbookJSON{
		OK:     true,
		Venue:  d.Engine.Venue,
		Symbol: d.Engine.Symbol,
		TS:     d.Engine.Clock.Now(),
		Asks:   make([]orderbookLevelJSON, 0),
		Bids:   make([]orderbookLevelJSON, 0),
	}
	for lvl := ob.BestAsk(); lvl != nil; lvl = lvl.Next() {
		for _, o := range lvl.Orders() {
			resp.Asks = append(resp.Asks, orderbookLevelJSON{Price: o.Price, Qty: o.RemainingQty, IsBuy: false})
		}
	}
	for lvl := ob.BestBid(); lvl != nil; lvl = lvl.Next() {
		for _, o := range lvl.Orders() {
			resp.Bids = append(resp.Bids, orderbookLevelJSON{Price: o.Price, Qty: o.RemainingQty, IsBuy: true})
		}
	}
	d.writeJSON(resp)
	d.end()
}

func (d *Dispatcher) handleOrderbookBinary() {
	// No END trailer for this command (spec section 6).
	if err := writeOrderbookBinary(d.Out, d.Engine.Book); err != nil {
		log.Error().Err(err).Msg("protocol: binary orderbook write failed")
		return
	}
	if err := d.Out.Flush(); err != nil {
		log.Error().Err(err).Msg("protocol: flush failed")
	}
}

func (d *Dispatcher) handleStatus(tokens []string) {
	if len(tokens) < 2 {
		d.writeJSON(errorResponse("No such ID"))
		d.end()
		return
	}
	id, ok := parseInt(tokens[1])
	if !ok {
		d.writeJSON(errorResponse("No such ID"))
		d.end()
		return
	}
	o, err := d.Engine.Status(id)
	if err != nil {
		d.writeJSON(errorResponse("No such ID"))
		d.end()
		return
	}
	d.writeJSON(toOrderJSON(d.Engine.Venue, d.Engine.Symbol, o))
	d.end()
}

func (d *Dispatcher) handleStatusAll(tokens []string) {
	if len(tokens) < 2 {
		d.writeJSON(errorResponse("Account not known on this book"))
		d.end()
		return
	}
	id, ok := parseInt(tokens[1])
	if !ok {
		d.writeJSON(errorResponse("Account not known on this book"))
		d.end()
		return
	}
	orders, err := d.Engine.StatusAll(id)
	if err != nil {
		d.writeJSON(errorResponse("Account not known on this book"))
		d.end()
		return
	}
	out := make([]orderJSON, len(orders))
	for i, o := range orders {
		out[i] = toOrderJSON(d.Engine.Venue, d.Engine.Symbol, o)
	}
	d.writeJSON(statusAllJSON{OK: true, Venue: d.Engine.Venue, Orders: out})
	d.end()
}

func (d *Dispatcher) handleCancel(tokens []string) {
	if len(tokens) < 2 {
		d.writeJSON(errorResponse("No such ID"))
		d.end()
		return
	}
	id, ok := parseInt(tokens[1])
	if !ok {
		d.writeJSON(errorResponse("No such ID"))
		d.end()
		return
	}
	o, err := d.Engine.Cancel(id)
	if err != nil {
		d.writeJSON(errorResponse("No such ID"))
		d.end()
		return
	}
	d.writeJSON(toOrderJSON(d.Engine.Venue, d.Engine.Symbol, o))
	d.end()
}

func (d *Dispatcher) handleAccFromID(tokens []string) {
	if len(tokens) < 2 {
		d.Out.WriteString("ERROR None")
		d.end()
		return
	}
	id, ok := parseInt(tokens[1])
	if !ok {
		d.Out.WriteString("ERROR None")
		d.end()
		return
	}
	name, found := d.Engine.AccountName(id)
	if !found {
		d.Out.WriteString("ERROR None")
		d.end()
		return
	}
	d.Out.WriteString("OK " + name)
	d.end()
}

func (d *Dispatcher) handleScores() {
	accts := d.Engine.Accounts.All()
	d.Out.WriteString(renderScores(accts, d.Engine.Market.LastPrice))
	d.end()
}

func (d *Dispatcher) handleDebugMemory() {
	accts := d.Engine.Accounts.All()
	fills := countFills(accts, d.Engine.Orders.Get)
	d.writeJSON(debugMemoryJSON{
		OK:       true,
		Orders:   d.Engine.Orders.HighestKnownID() + 1,
		Accounts: int64(len(accts)),
		Fills:    fills,
	})
	d.end()
}

func (d *Dispatcher) handleTimestamp() {
	d.Out.WriteString(d.Engine.Clock.Now())
	d.end()
}
