package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"twitch-tmi/stream"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		perSecond float64
		burst     int
	)

	cmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "Re-serialize parsed lines in canonical form",
		Long: `Replay parses every line and writes it back with tmi.Unparse.
Lines that do not parse are skipped. --rate paces the output in lines per
second; 0 writes as fast as possible.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if perSecond < 0 {
				return fmt.Errorf("--rate must not be negative, got %v", perSecond)
			}
			if perSecond > 0 && burst < 1 {
				return fmt.Errorf("--burst must be at least 1 when --rate is set, got %d", burst)
			}

			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			var limiter *rate.Limiter
			if perSecond > 0 {
				limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
			}
			return replayLines(cmd.Context(), in, cmd.OutOrStdout(), limiter, a.logger)
		},
	}

	cmd.Flags().Float64Var(&perSecond, "rate", 0, "lines per second, 0 for unlimited")
	cmd.Flags().IntVar(&burst, "burst", 1, "lines allowed to be written at once")
	return cmd
}

func replayLines(ctx context.Context, r io.Reader, w io.Writer, limiter *rate.Limiter, logger *zap.Logger) error {
	dec := stream.NewDecoder(r)
	enc := stream.NewEncoder(w, limiter)

	for {
		msg, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return nil
		}

		var lineErr *stream.LineError
		if errors.As(err, &lineErr) {
			logger.Warn("skipping line", zap.Int("line", lineErr.Line), zap.Error(lineErr.Err))
			continue
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		if err := enc.Encode(ctx, msg); err != nil {
			return fmt.Errorf("write line %d: %w", dec.Line(), err)
		}
	}
}
