package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newJournalCmd(a *app) *cobra.Command {
	var journal string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the streams and totals of a journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if journal == "" {
				return errors.New("--journal is required")
			}

			j, err := a.openJournal(journal)
			if err != nil {
				return err
			}
			defer j.Close()

			streams, err := j.Streams(ctx)
			if err != nil {
				return err
			}
			stats, err := j.Stats(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, stream := range streams {
				fmt.Fprintln(out, stream)
			}
			fmt.Fprintf(out, "frames=%d bytes=%d last_seq=%d\n", stats.Frames, stats.Bytes, stats.LastSeq)

			return nil
		},
	}

	cmd.Flags().StringVar(&journal, "journal", "", "SQLite file to inspect")

	return cmd
}
