package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

func TestWsConnConcurrentWrites(t *testing.T) {
	const perWriter = 50

	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer raw.Close()
		conn := &wsConn{conn: raw}

		// Two writers, as in the stdout and stderr pumps.
		var wg sync.WaitGroup
		for _, stream := range []string{"stdout", "stderr"} {
			wg.Add(1)
			go func(stream string) {
				defer wg.Done()
				for i := 0; i < perWriter; i++ {
					if err := conn.WriteJSON(map[string]string{"type": stream, "data": "line"}); err != nil {
						t.Errorf("WriteJSON failed: %v", err)
						return
					}
				}
			}(stream)
		}
		wg.Wait()
		<-done
	}))
	defer server.Close()
	defer close(done)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	for i := 0; i < 2*perWriter; i++ {
		var msg map[string]string
		if err := client.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON failed after %d messages: %v", i, err)
		}
		if msg["type"] != "stdout" && msg["type"] != "stderr" {
			t.Errorf("Unexpected message type: %s", msg["type"])
		}
	}
}
