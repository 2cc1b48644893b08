package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/matt-steen/care-tracker/pkg/fakeapi"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var (
	fakeAPIAddress string
	fakeAPISeed    string
)

var fakeAPICmd = &cobra.Command{
	Use:   "fake-api",
	Short: "Serve an in-memory copy of the remote API for local development",
	Args:  cobra.NoArgs,
	RunE:  runFakeAPI,
}

func init() {
	fakeAPICmd.Flags().StringVar(&fakeAPIAddress, "address", ":8080", "address to listen on")
	fakeAPICmd.Flags().StringVar(&fakeAPISeed, "seed", "", "YAML seed file (defaults to built-in demo data)")
}

func runFakeAPI(cmd *cobra.Command, args []string) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	seed := fakeapi.DefaultSeed()

	if fakeAPISeed != "" {
		var err error
		if seed, err = fakeapi.LoadSeed(fakeAPISeed); err != nil {
			return err
		}
	}

	server := http.Server{
		Addr:              fakeAPIAddress,
		Handler:           fakeapi.New(seed),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("address", server.Addr).Msg("fake api listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
