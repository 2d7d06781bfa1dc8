package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn, *http.Request)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn, r)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testClientConfig(url string) ClientConfig {
	cfg := DefaultClientConfig()
	cfg.URL = url
	cfg.BufferSize = 100
	return cfg
}

func TestClientConnect(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn, _ *http.Request) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if !client.IsConnected() {
		t.Error("expected IsConnected to return true")
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if client.IsConnected() {
		t.Error("expected IsConnected to return false after Close")
	}
}

func TestClientTokenInQuery(t *testing.T) {
	var gotToken string
	var mu sync.Mutex

	server := mockWSServer(t, func(conn *websocket.Conn, r *http.Request) {
		mu.Lock()
		gotToken = r.URL.Query().Get("token")
		mu.Unlock()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	cfg := testClientConfig(wsURL(server))
	cfg.Token = "secret token/with=specials"

	client := NewClient(cfg, nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	mu.Lock()
	defer mu.Unlock()
	if gotToken != cfg.Token {
		t.Errorf("server saw token %q, want %q", gotToken, cfg.Token)
	}
}

func TestBuildEndpoint(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		token string
		want  string
	}{
		{
			name:  "plain token",
			url:   "wss://sync.example.com/console/stream",
			token: "abc123",
			want:  "wss://sync.example.com/console/stream?token=abc123",
		},
		{
			name:  "token needing escaping",
			url:   "wss://sync.example.com/console/stream",
			token: "a b&c=d",
			want:  "wss://sync.example.com/console/stream?token=a+b%26c%3Dd",
		},
		{
			name:  "no token",
			url:   "wss://sync.example.com/console/stream",
			token: "",
			want:  "wss://sync.example.com/console/stream",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildEndpoint(tt.url, tt.token)
			if err != nil {
				t.Fatalf("buildEndpoint failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("buildEndpoint = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientSend(t *testing.T) {
	var received []byte
	var mu sync.Mutex

	server := mockWSServer(t, func(conn *websocket.Conn, _ *http.Request) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			mu.Lock()
			received = msg
			mu.Unlock()
		}
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	testMsg := []byte(`{"type":"Subscribe","store_ids":[7]}`)
	if err := client.Send(testMsg); err != nil {
		t.Errorf("Send failed: %v", err)
	}

	// Wait for the frame to land server-side.
	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		got := string(received)
		mu.Unlock()
		if got == string(testMsg) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server received %q, want %q", got, testMsg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestClientSendNotConnected(t *testing.T) {
	client := NewClient(testClientConfig("ws://127.0.0.1:0"), nil)

	if err := client.Send([]byte("x")); err != ErrNotConnected {
		t.Errorf("Send = %v, want ErrNotConnected", err)
	}
}

func TestClientMessages(t *testing.T) {
	frames := []string{
		`{"type":"EdgeStatus","edge_server_id":7,"online":true}`,
		`{"type":"OrderRemoved","order_id":"X","edge_server_id":7}`,
	}

	server := mockWSServer(t, func(conn *websocket.Conn, _ *http.Request) {
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	for i, want := range frames {
		select {
		case msg := <-client.Messages():
			if string(msg.Data) != want {
				t.Errorf("frame %d = %q, want %q", i, msg.Data, want)
			}
			if msg.ReceivedAt.IsZero() {
				t.Error("ReceivedAt not set")
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for frame %d", i)
		}
	}
}

func TestClientServerCloseSurfacesError(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn, _ *http.Request) {
		// Close immediately after the handshake.
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	select {
	case <-client.Errors():
	case <-time.After(time.Second):
		t.Fatal("no error surfaced after server-initiated close")
	}
}

func TestClientCloseSuppressesReadError(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn, _ *http.Request) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	client := NewClient(testClientConfig(wsURL(server)), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A deliberate close must not be reported as a transport failure.
	select {
	case err := <-client.Errors():
		t.Errorf("unexpected error after deliberate close: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	if err := client.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}
