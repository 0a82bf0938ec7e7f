package framed_test

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"testing/synctest"

	"golang.org/x/sync/errgroup"

	"github.com/teenjuna/framed"
	"github.com/teenjuna/framed/codec/json"
	"github.com/teenjuna/framed/codec/lines"
	"github.com/teenjuna/framed/codec/netstring"
	"github.com/teenjuna/framed/internal/testing/mockio"
	"github.com/teenjuna/framed/internal/testing/require"
)

func TestForward(t *testing.T) {
	run(t, "All items", func(t *testing.T) {
		src := framed.NewReader(mockio.Chunks([]byte(strings.Join(Data, "\n")), 13), lines.New[string]())
		dst := mockio.NewWriter()

		require.Nil(t, framed.Forward(t.Context(), src, framed.NewWriter(dst, lines.New[string]())))
		require.Equal(t, string(dst.Bytes()), strings.Join(Data, "\n")+"\n")
		require.False(t, dst.Closed())
	})

	run(t, "Source error", func(t *testing.T) {
		failure := errors.New("failure")
		src := framed.NewReader(
			mockio.NewReader(mockio.Step{Data: []byte("a\nb\n")}, mockio.Step{Err: failure}),
			lines.New[string](),
		)
		dst := mockio.NewWriter()

		err := framed.Forward(t.Context(), src, framed.NewWriter(dst, lines.New[string]()))
		require.ErrorIs(t, err, failure)
		require.Equal(t, string(dst.Bytes()), "a\nb\n")
	})

	run(t, "Destination error", func(t *testing.T) {
		src := framed.NewReader(mockio.Chunks([]byte("a\nb\n")), lines.New[string]())
		dst := mockio.NewWriter(mockio.Step{Max: 0})

		err := framed.Forward(t.Context(), src, framed.NewWriter(dst, lines.New[string]()))
		require.ErrorIs(t, err, framed.ErrEndOfOutput)
	})

	run(t, "Open source with trailing newline", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			type doc struct {
				A int `json:"a"`
			}

			srcR, srcW := io.Pipe()
			dstR, dstW := io.Pipe()
			src := framed.NewReader(srcR, json.New[doc]())
			dst := framed.NewReader(dstR, json.New[doc]())

			var group errgroup.Group
			group.Go(func() error {
				return framed.Forward(t.Context(), src, framed.NewWriter(dstW, json.New[doc]()))
			})

			for i := range 3 {
				_, err := fmt.Fprintf(srcW, "{\"a\":%d}\n", i)
				require.Nil(t, err)

				item, err := dst.Next(t.Context())
				require.Nil(t, err)
				require.Equal(t, item, doc{A: i})
			}

			require.Nil(t, srcW.Close())
			require.Nil(t, group.Wait())
		})
	})

	run(t, "Open source with partial frame", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			srcR, srcW := io.Pipe()
			dstR, dstW := io.Pipe()
			src := framed.NewReader(srcR, netstring.New())
			dst := framed.NewReader(dstR, netstring.New())

			var group errgroup.Group
			group.Go(func() error {
				return framed.Forward(t.Context(), src, framed.NewWriter(dstW, netstring.New()))
			})

			_, err := io.WriteString(srcW, "1:a,2:b")
			require.Nil(t, err)

			item, err := dst.Next(t.Context())
			require.Nil(t, err)
			require.Equal(t, string(item), "a")

			_, err = io.WriteString(srcW, "b,")
			require.Nil(t, err)

			item, err = dst.Next(t.Context())
			require.Nil(t, err)
			require.Equal(t, string(item), "bb")

			require.Nil(t, srcW.Close())
			require.Nil(t, group.Wait())
		})
	})
}

func TestRelay(t *testing.T) {
	// client <-> (a) relay (b) <-> server
	clientConn, aConn := pipe(t)
	bConn, serverConn := pipe(t)

	a := framed.New(aConn, lines.New[string]())
	b := framed.New(bConn, lines.New[string]())
	client := framed.New(clientConn, lines.New[string]())
	server := framed.New(serverConn, lines.New[string]())

	group, ctx := errgroup.WithContext(t.Context())
	group.Go(func() error {
		return framed.Relay(ctx, a, b)
	})
	group.Go(func() error {
		for item, err := range server.All(ctx) {
			if err != nil {
				return err
			}
			if err := server.Send(ctx, strings.ToUpper(item)); err != nil {
				return err
			}
		}
		return server.Close(ctx)
	})

	for _, item := range []string{"foo", "bar", "baz"} {
		require.Nil(t, client.Send(t.Context(), item))
		reply, err := client.Next(t.Context())
		require.Nil(t, err)
		require.Equal(t, reply, strings.ToUpper(item))
	}

	_, writer := client.Split()
	require.Nil(t, writer.Close(t.Context()))

	reader, _ := client.Split()
	_, err := reader.Next(t.Context())
	require.Equal(t, err, io.EOF)

	require.Nil(t, group.Wait())

	// Both relay ends are closed by the time Relay returns.
	for _, conn := range []net.Conn{aConn, bConn} {
		_, err := conn.Write([]byte("x\n"))
		require.ErrorIs(t, err, net.ErrClosed)
	}
}

// pipe returns both ends of a TCP connection over loopback.
func pipe(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	dialed, err := net.Dial("tcp", listener.Addr().String())
	require.Nil(t, err)

	conn, ok := <-accepted
	require.True(t, ok)

	t.Cleanup(func() {
		_ = dialed.Close()
		_ = conn.Close()
	})

	return dialed, conn
}
