package main

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/wikigest/internal/logging"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return ln
}

func TestServe_DrainsAfterShutdown(t *testing.T) {
	ln := listen(t)
	url := "http://" + ln.Addr().String() + "/"
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}

	ctx, cancel := context.WithCancel(context.Background())
	var drained atomic.Bool
	var acceptedDuringDrain atomic.Bool
	drain := func() {
		if resp, err := http.Get(url); err == nil {
			resp.Body.Close()
			acceptedDuringDrain.Store(true)
		}
		// Stand in for workers still finishing a job.
		time.Sleep(50 * time.Millisecond)
		drained.Store(true)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- serve(ctx, srv, ln, drain, logging.Discard()) }()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("expected server to be up: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
	if !drained.Load() {
		t.Error("expected serve to wait for drain")
	}
	if acceptedDuringDrain.Load() {
		t.Error("expected the listener to be closed before draining")
	}
}

func TestServe_ListenerFailure(t *testing.T) {
	ln := listen(t)
	ln.Close()

	var drained atomic.Bool
	err := serve(context.Background(), &http.Server{}, ln, func() { drained.Store(true) }, logging.Discard())
	if err == nil {
		t.Error("expected an error from a closed listener")
	}
	if !drained.Load() {
		t.Error("expected drain to run")
	}
}
