package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestServeUntilDrainsInFlightRequests(t *testing.T) {
	zlog = zap.NewNop()

	started := make(chan struct{})
	var finished atomic.Bool
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
		io.WriteString(w, "done")
	})}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- serveUntil(ctx, server, ln) }()

	respc := make(chan *http.Response, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/render")
		if err != nil {
			t.Errorf("request failed: %v", err)
			respc <- nil
			return
		}
		respc <- resp
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the handler")
	}
	cancel()

	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serveUntil: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serveUntil did not return after shutdown")
	}
	if !finished.Load() {
		t.Error("serveUntil returned before the in-flight request finished")
	}

	if resp := <-respc; resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d", resp.StatusCode)
		}
	}
}

func TestServeUntilListenerError(t *testing.T) {
	zlog = zap.NewNop()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ln.Close()

	if err := serveUntil(context.Background(), &http.Server{}, ln); err == nil {
		t.Error("expected an error from a closed listener")
	}
}
