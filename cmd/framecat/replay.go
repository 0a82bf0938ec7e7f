package main

import (
	"errors"
	"iter"

	"github.com/spf13/cobra"

	"github.com/teenjuna/framed"
	"github.com/teenjuna/framed/internal/sqlite"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		out     string
		journal string
		stream  string
		after   int64
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Encode journaled frames to stdout",
		Long: `Encode frames recorded in a journal to stdout.

Without --stream the frames of all streams are replayed in the order they were recorded.

Example:
  framecat replay --journal frames.db --stream cat --out lines`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if journal == "" {
				return errors.New("--journal is required")
			}

			encoder, err := newCodec(out, a.settings)
			if err != nil {
				return err
			}

			j, err := a.openJournal(journal)
			if err != nil {
				return err
			}
			defer j.Close()

			writer := framed.NewWriter(cmd.OutOrStdout(), encoder, configFuncs(a.settings, a.logger, a.registry)...)
			a.logger.Debug().Str("stream", stream).Int64("after", after).Msg("replaying journal")

			return writer.SendAll(ctx, payloads(j.Frames(ctx, stream, after)))
		},
	}

	cmd.Flags().StringVar(&out, "out", "lines", "Codec of the output")
	cmd.Flags().StringVar(&journal, "journal", "", "SQLite file to replay frames from")
	cmd.Flags().StringVar(&stream, "stream", "", "Journal stream name (all streams if empty)")
	cmd.Flags().Int64Var(&after, "after", 0, "Replay only frames with a greater sequence number")

	return cmd
}

func payloads(frames iter.Seq2[sqlite.Frame, error]) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for frame, err := range frames {
			if !yield(frame.Data, err) || err != nil {
				return
			}
		}
	}
}
