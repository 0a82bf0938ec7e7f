package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/teenjuna/framed"
)

func newCatCmd(a *app) *cobra.Command {
	var (
		in      string
		out     string
		journal string
		stream  string
	)

	cmd := &cobra.Command{
		Use:   "cat",
		Short: "Decode frames from stdin and encode them to stdout",
		Long: `Decode frames from stdin with one codec and encode them to stdout with another.

Example:
  framecat cat --in lines --out netstring < input.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			decoder, err := newCodec(in, a.settings)
			if err != nil {
				return err
			}
			encoder, err := newCodec(out, a.settings)
			if err != nil {
				return err
			}

			rec, closeRecorder, err := a.openRecorder(journal)
			if err != nil {
				return err
			}

			cfgs := configFuncs(a.settings, a.logger, a.registry)
			reader := framed.NewReader(cmd.InOrStdin(), record(ctx, decoder, rec, stream), cfgs...)
			writer := framed.NewWriter(cmd.OutOrStdout(), encoder, cfgs...)

			err = framed.Forward(ctx, reader, writer)
			return errors.Join(err, closeRecorder())
		},
	}

	cmd.Flags().StringVar(&in, "in", "lines", "Codec of the input")
	cmd.Flags().StringVar(&out, "out", "lines", "Codec of the output")
	cmd.Flags().StringVar(&journal, "journal", "", "SQLite file to record input frames into")
	cmd.Flags().StringVar(&stream, "stream", "cat", "Journal stream name")

	return cmd
}
