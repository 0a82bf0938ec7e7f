package main

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teenjuna/framed"
	"github.com/teenjuna/framed/codec"
	"github.com/teenjuna/framed/internal/recorder"
)

func newProxyCmd(a *app) *cobra.Command {
	var (
		listen   string
		upstream string
		name     string
		journal  string
	)

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Relay frames between TCP clients and an upstream server",
		Long: `Accept TCP connections and relay every complete frame between the client and the upstream
server. A malformed frame on either side closes both connections.

With --journal the frames are recorded into the streams "<conn>/client" and "<conn>/upstream".

Example:
  framecat proxy --listen :7000 --upstream 127.0.0.1:8000 --codec lines`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := newCodec(name, a.settings)
			if err != nil {
				return err
			}

			var lc net.ListenConfig
			ln, err := lc.Listen(ctx, "tcp", listen)
			if err != nil {
				return err
			}

			rec, closeRecorder, err := a.openRecorder(journal)
			if err != nil {
				_ = ln.Close()
				return err
			}

			a.logger.Info().Str("listen", ln.Addr().String()).Str("upstream", upstream).Msg("proxy started")

			err = a.proxy(ctx, ln, upstream, c, rec)
			return errors.Join(err, closeRecorder())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:7000", "Address to accept clients on")
	cmd.Flags().StringVar(&upstream, "upstream", "", "Address of the upstream server")
	cmd.Flags().StringVar(&name, "codec", "lines", "Codec of both directions")
	cmd.Flags().StringVar(&journal, "journal", "", "SQLite file to record frames into")
	_ = cmd.MarkFlagRequired("upstream")

	return cmd
}

// proxy serves clients accepted from ln until ctx is done. It closes ln.
func (a *app) proxy(
	ctx context.Context,
	ln net.Listener,
	upstream string,
	c codec.Codec[[]byte],
	rec *recorder.Recorder,
) error {
	group, groupCtx := errgroup.WithContext(ctx)

	stop := context.AfterFunc(groupCtx, func() {
		_ = ln.Close()
	})
	defer stop()

	dialer := net.Dialer{Timeout: a.settings.DialTimeout}
	cfgs := configFuncs(a.settings, a.logger, a.registry)

	group.Go(func() error {
		for id := 1; ; id++ {
			conn, err := ln.Accept()
			if err != nil {
				if groupCtx.Err() != nil {
					return nil
				}
				return err
			}

			group.Go(func() error {
				logger := a.logger.With().Int("conn", id).Str("client", conn.RemoteAddr().String()).Logger()

				up, err := dialer.DialContext(groupCtx, "tcp", upstream)
				if err != nil {
					logger.Warn().Err(err).Msg("dial upstream failed")
					_ = conn.Close()
					return nil
				}

				client := framed.New(conn, record(groupCtx, c.Derive(), rec, fmt.Sprintf("%d/client", id)), cfgs...)
				server := framed.New(up, record(groupCtx, c.Derive(), rec, fmt.Sprintf("%d/upstream", id)), cfgs...)

				logger.Debug().Msg("relaying")
				if err := framed.Relay(groupCtx, client, server); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn().Err(err).Msg("relay failed")
					return nil
				}
				logger.Debug().Msg("relay finished")

				return nil
			})
		}
	})

	return group.Wait()
}
