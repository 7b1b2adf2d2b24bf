package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestServeStopsOnContextCancel(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := "http://" + ln.Addr().String()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, &http.Server{Handler: s.router}, ln, time.Second, logger)
	}()

	resp, err := http.Get(addr + "/api/scripts")
	if err != nil {
		t.Fatalf("GET before cancel: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve err=%v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Serve did not return after cancel")
	}

	client := &http.Client{Timeout: time.Second}
	if resp, err := client.Get(addr + "/api/scripts"); err == nil {
		resp.Body.Close()
		t.Fatalf("GET after shutdown succeeded, want connection error")
	}
}
