package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"resync/internal/catalog"
	"resync/internal/config"
	"resync/internal/protocol"
	"resync/internal/transfer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func patterned(n int, seed byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*13) ^ seed
	}
	return data
}

// startServer serves dir on a loopback port until the test ends
func startServer(t *testing.T, dir string) (string, context.CancelFunc, <-chan error) {
	t.Helper()

	cfg := config.NewDefaultConfig()
	srv := New(cfg, catalog.New(dir))

	ctx, cancel := context.WithCancel(context.Background())
	ln, err := Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()
	t.Cleanup(cancel)

	return ln.Addr().String(), cancel, errCh
}

func dial(t *testing.T, addr, dir string) *transfer.Client {
	t.Helper()
	client, err := transfer.Dial(context.Background(), addr, transfer.Options{Dir: dir, DialTimeout: time.Second})
	require.NoError(t, err)
	return client
}

func TestConcurrentDownloadsAreIsolated(t *testing.T) {
	serverDir := t.TempDir()
	const sessions = 10

	files := make(map[string][]byte, sessions)
	for i := 0; i < sessions; i++ {
		name := fmt.Sprintf("file-%02d.bin", i)
		files[name] = patterned(i*protocol.ChunkSize*3+i*97+1, byte(i))
		require.NoError(t, os.WriteFile(filepath.Join(serverDir, name), files[name], 0644))
	}

	addr, _, _ := startServer(t, serverDir)

	g, ctx := errgroup.WithContext(context.Background())
	localDirs := make(map[string]string, sessions)
	for name := range files {
		localDir := t.TempDir()
		localDirs[name] = localDir
		g.Go(func() error {
			client, err := transfer.Dial(ctx, addr, transfer.Options{Dir: localDir})
			if err != nil {
				return err
			}
			defer client.Close()

			_, err = client.Download(ctx, name)
			return err
		})
	}
	require.NoError(t, g.Wait())

	for name, data := range files {
		got, err := os.ReadFile(filepath.Join(localDirs[name], name))
		require.NoError(t, err)
		assert.Equal(t, data, got, name)

		entries, err := os.ReadDir(localDirs[name])
		require.NoError(t, err)
		assert.Len(t, entries, 1, "only %s lands in its session's directory", name)
	}
}

func TestListUploadDownloadRoundTrip(t *testing.T) {
	serverDir, localDir, otherDir := t.TempDir(), t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(serverDir, "a.txt"), []byte("old contents that are longer"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(serverDir, "b.txt"), []byte("b"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(serverDir, "dir"), 0755))

	addr, _, _ := startServer(t, serverDir)
	client := dial(t, addr, localDir)
	defer client.Close()

	listing, err := client.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a.txt\nb.txt\n", listing)

	data := patterned(5*protocol.ChunkSize+3, 0x5a)
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "a.txt"), data, 0644))
	require.NoError(t, client.Upload(context.Background(), "a.txt"))

	// a second client sees the replaced file
	other := dial(t, addr, otherDir)
	defer other.Close()

	result, err := other.Download(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.EqualValues(t, len(data), result.State.TotalSize)

	got, err := os.ReadFile(filepath.Join(otherDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestExitEndsSession(t *testing.T) {
	addr, _, _ := startServer(t, t.TempDir())

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, protocol.Send(conn, protocol.Message{Operation: protocol.OpExit}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestShutdownClosesSessions(t *testing.T) {
	addr, cancel, errCh := startServer(t, t.TempDir())

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	// make sure the session is running before shutting down
	require.NoError(t, protocol.Send(conn, protocol.Message{Operation: protocol.OpListFiles}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Read(make([]byte, protocol.DefaultListCapacity))
	require.NoError(t, err)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	_, err = conn.Read(make([]byte, 1))
	assert.Error(t, err)

	_, err = net.DialTimeout("tcp", addr, 200*time.Millisecond)
	assert.Error(t, err)
}

func TestListenAndServeLimitsConnections(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Server.Address = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.MaxConnections = 1

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
	srv := New(cfg, catalog.New(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.ListenAndServe(ctx)

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	addr := srv.Addr().String()

	first := dial(t, addr, t.TempDir())
	_, err := first.List(context.Background())
	require.NoError(t, err)

	second, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, protocol.Send(second, protocol.Message{Operation: protocol.OpListFiles}))

	// the second connection is not served while the first holds the only slot
	buf := make([]byte, protocol.DefaultListCapacity)
	require.NoError(t, second.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, err = second.Read(buf)
	require.Error(t, err)

	require.NoError(t, first.Close())

	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := second.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "a.txt\n", string(buf[:n]))
}
