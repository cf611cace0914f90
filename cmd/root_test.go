package cmd

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolvePort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no args", nil, 8117},
		{"numeric", []string{"9000"}, 9000},
		{"trailing garbage", []string{"9000abc"}, 9000},
		{"not a number", []string{"abc"}, 8117},
		{"zero", []string{"0"}, 8117},
		{"negative", []string{"-80"}, 8117},
		{"out of range", []string{"70000"}, 8117},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, resolvePort(tt.args, 8117))
		})
	}
}

func TestRootCmdRejectsExtraArgs(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()
	cmd.SetArgs([]string{"8117", "9000"})
	require.Error(t, cmd.Execute())
}

func TestRootCmdReportsMissingConfig(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", "/nonexistent/openwax.yaml"})
	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "load config")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	closer := &fakeCloser{}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, closer, time.Second, zap.NewNop()) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
	require.True(t, closer.closed)
}

func TestServeCombinesListenAndCloseErrors(t *testing.T) {
	t.Parallel()

	srv := &http.Server{Addr: "127.0.0.1:-1", ReadHeaderTimeout: time.Second}
	closer := &fakeCloser{err: errors.New("store close failed")}

	err := serve(context.Background(), srv, closer, time.Second, zap.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "http server")
	require.Contains(t, err.Error(), "store close failed")
	require.True(t, closer.closed)
}

type fakeCloser struct {
	closed bool
	err    error
}

func (f *fakeCloser) Close() error {
	f.closed = true
	return f.err
}
