package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"twitch-tmi/stream"
	"twitch-tmi/tmi"
)

type decodedLine struct {
	Line    int         `json:"line"`
	Command string      `json:"command"`
	Message tmi.Message `json:"message"`
}

func newDecodeCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Parse TMI lines and print one JSON object per message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			return decodeLines(in, cmd.OutOrStdout(), strict, a.logger)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "stop at the first line that does not parse")
	return cmd
}

func decodeLines(r io.Reader, w io.Writer, strict bool, logger *zap.Logger) error {
	dec := stream.NewDecoder(r)
	enc := json.NewEncoder(w)

	var skipped int
	for {
		msg, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}

		var lineErr *stream.LineError
		if errors.As(err, &lineErr) {
			if strict {
				return err
			}
			skipped++
			logger.Warn("skipping line", zap.Int("line", lineErr.Line), zap.String("raw", lineErr.Raw), zap.Error(lineErr.Err))
			continue
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		if err := enc.Encode(decodedLine{Line: dec.Line(), Command: msg.Command(), Message: msg}); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if skipped > 0 {
		logger.Info("decode finished", zap.Int("skipped", skipped))
	}
	return nil
}
