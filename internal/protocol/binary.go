package protocol

import (
	"encoding/binary"
	"io"

	"disorderbook/internal/book"
)

// writeOrderbookBinary encodes the order book in the wire format of spec
// section 6: for each resting order on a side, a big-endian uint32 qty
// then a big-endian uint32 price, in price/time traversal order, each
// side terminated by an 8-byte zero sentinel (unambiguous since a resting
// order's qty is never zero). No trailing END line follows this command.
func writeOrderbookBinary(w io.Writer, ob *book.OrderBook) error {
	if err := writeSideBinary(w, ob.Bids); err != nil {
		return err
	}
	return writeSideBinary(w, ob.Asks)
}

func writeSideBinary(w io.Writer, side *book.Side) error {
	var buf [8]byte
	for lvl := side.Head(); lvl != nil; lvl = lvl.Next() {
		for _, o := range lvl.Orders() {
			binary.BigEndian.PutUint32(buf[0:4], uint32(o.RemainingQty))
			binary.BigEndian.PutUint32(buf[4:8], uint32(o.Price))
			if _, err := w.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	// Sentinel: 8 zero bytes.
	var zero [8]byte
	_, err := w.Write(zero[:])
	return err
}
