package ws

import (
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/dxlight/internal/capture"
	"github.com/example/dxlight/internal/config"
	"github.com/example/dxlight/internal/pipeline"
)

type nullSource struct{}

func (nullSource) Capture(ctx context.Context) (*image.RGBA, error) {
	return nil, capture.ErrUnavailable
}

type nullDriver struct{}

func (nullDriver) Write([]byte) error { return nil }
func (nullDriver) Close() error       { return nil }

func newTestHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	cfg := config.Default()
	cfg.Mode = "static"
	store := config.NewStore(cfg)
	pipe, err := pipeline.New(store, nullSource{}, nullDriver{})
	if err != nil {
		t.Fatal(err)
	}
	hub := NewHub(store, pipe, "")

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	mux := http.NewServeMux()
	hub.Routes(mux)
	srv := httptest.NewServer(mux)
	return hub, srv, func() {
		cancel()
		srv.Close()
	}
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

// Connection setup writes the greeting before the client joins the broadcast
// set; only the broadcast loop may write to a registered connection. Run
// under the race detector this catches any second writer sneaking in.
func TestStatusClientsSurviveConnectChurn(t *testing.T) {
	_, srv, stop := newTestHub(t)
	defer stop()
	url := wsURL(srv, "/ws")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 40; j++ {
				conn, _, err := websocket.DefaultDialer.Dial(url, nil)
				if err != nil {
					t.Errorf("dial: %v", err)
					return
				}
				if _, _, err := conn.ReadMessage(); err != nil {
					t.Errorf("greeting: %v", err)
				}
				conn.Close()
			}
		}()
	}

	// One long-lived client stays registered across broadcast ticks while
	// the churn above runs.
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 3; i++ {
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Fatalf("broadcast read %d: %v", i, err)
		}
	}
	wg.Wait()
}

func TestHealthEndpoint(t *testing.T) {
	_, srv, stop := newTestHub(t)
	defer stop()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
