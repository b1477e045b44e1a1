// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer simulates *http.Server lifecycle without binding a port.
type fakeServer struct {
	serveErr error
	done     chan struct{}
	shutdown chan struct{}
}

func newFakeServer(serveErr error) *fakeServer {
	return &fakeServer{
		serveErr: serveErr,
		done:     make(chan struct{}),
		shutdown: make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	if f.serveErr != nil {
		return f.serveErr
	}
	<-f.done
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	close(f.shutdown)
	close(f.done)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newFakeServer(nil)
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	select {
	case <-srv.shutdown:
	default:
		t.Fatal("Shutdown was not called")
	}
}

func TestHTTPServiceStartupFailure(t *testing.T) {
	boom := errors.New("listen tcp: address already in use")
	svc := NewHTTPService(newFakeServer(boom), time.Second)

	err := svc.Serve(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestHTTPServiceString(t *testing.T) {
	assert.Equal(t, "http-server", NewHTTPService(newFakeServer(nil), 0).String())
}
