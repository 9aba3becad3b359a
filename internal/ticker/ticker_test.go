package ticker_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disorderbook/internal/ticker"
)

func TestWriter_PublishWritesOneJSONLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	w := ticker.NewWriter(&buf)

	w.Publish(ticker.Event{Type: "trade", Symbol: "STK", Price: 100, Qty: 5, TS: "t1"})
	w.Publish(ticker.Event{Type: "cancel", Symbol: "STK", OrderID: 7, TS: "t2"})

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)

	var first ticker.Event
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "trade", first.Type)
	assert.EqualValues(t, 100, first.Price)
	assert.EqualValues(t, 5, first.Qty)

	var second ticker.Event
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "cancel", second.Type)
	assert.EqualValues(t, 7, second.OrderID)
}

func TestDiscard_DropsEverything(t *testing.T) {
	assert.NotPanics(t, func() {
		ticker.Discard{}.Publish(ticker.Event{Type: "trade"})
	})
}
