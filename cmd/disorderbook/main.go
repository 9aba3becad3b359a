// Command disorderbook runs a single venue/symbol matching engine,
// reading commands from stdin and writing responses to stdout, per spec
// section 6.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"disorderbook/internal/engine"
	"disorderbook/internal/protocol"
	"disorderbook/internal/ticker"
	"disorderbook/internal/timestamp"
)

func main() {
	logLevel := flag.String("logLevel", "info", "zerolog level: debug, info, warn, error")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	// All diagnostics go to stderr; stdout is reserved for the wire
	// protocol (spec section 5).
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: disorderbook <venue> <symbol>")
		os.Exit(1)
	}
	venue, symbol := args[0], args[1]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink := tickerSink()
	eng := engine.New(venue, symbol, timestamp.New(), sink)
	dispatcher := protocol.NewDispatcher(eng, os.Stdout)

	t, _ := tomb.WithContext(ctx)
	t.Go(func() error {
		return dispatcher.Run(os.Stdin)
	})

	log.Info().Str("venue", venue).Str("symbol", symbol).Msg("disorderbook running")

	select {
	case <-ctx.Done():
	case <-t.Dying():
	}
	if ctx.Err() != nil {
		// Run is blocked reading stdin and does not observe the kill, so
		// the process ends here instead of waiting for it.
		log.Info().Msg("shutting down on signal")
		t.Kill(nil)
		return
	}

	err = t.Wait()
	if err != nil && err != protocol.ErrEOF {
		log.Error().Err(err).Msg("dispatcher exited with error")
		os.Exit(1)
	}
	if err == protocol.ErrEOF {
		log.Error().Msg("stdin closed; exiting")
		os.Exit(1)
	}
}

// tickerSink opens the ticker stream on file descriptor 3 if the process
// was launched with one attached, matching the convention of an extra
// side-channel fd for a secondary output stream (spec sections 2 and 5).
// If fd 3 isn't open, ticker events are silently discarded rather than
// failing the process — the ticker stream is a secondary, lower-guarantee
// channel, not a requirement to run standalone.
func tickerSink() ticker.Sink {
	f := os.NewFile(3, "ticker")
	if f == nil {
		return ticker.Discard{}
	}
	if _, err := f.Stat(); err != nil {
		return ticker.Discard{}
	}
	return ticker.NewWriter(f)
}
