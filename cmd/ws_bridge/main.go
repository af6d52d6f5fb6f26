// The ws_bridge command bridges a WebSocket connection to the agent's ACP
// stdio interface, so a browser client can drive the agent. The command and
// arguments to launch are taken from argv, e.g.:
//
//	ws_bridge ./mcp-clockify -acp
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn serializes writes to the connection; gorilla/websocket supports at
// most one concurrent writer, and stdout and stderr are pumped from separate
// goroutines.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	cmdArgs := flag.Args()
	if len(cmdArgs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ws_bridge [-addr :8080] <agent-command> [args...]")
		os.Exit(1)
	}

	http.HandleFunc("/ws", handleWS(cmdArgs))

	fmt.Printf("WebSocket bridge running on ws://localhost%s/ws\n", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

func handleWS(cmdArgs []string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("Upgrade error:", err)
			return
		}
		defer raw.Close()
		conn := &wsConn{conn: raw}

		// One agent subprocess per connection
		cmd := exec.Command(cmdArgs[0], cmdArgs[1:]...)

		stdin, err := cmd.StdinPipe()
		if err != nil {
			log.Println("Error getting stdin:", err)
			return
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			log.Println("Error getting stdout:", err)
			return
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			log.Println("Error getting stderr:", err)
			return
		}

		if err := cmd.Start(); err != nil {
			log.Println("Error starting agent:", err)
			return
		}
		defer cmd.Process.Kill()

		// Pipe agent stdout -> WebSocket
		go func() {
			scanner := bufio.NewScanner(stdout)
			for scanner.Scan() {
				msg := map[string]string{"type": "stdout", "data": scanner.Text()}
				if err := conn.WriteJSON(msg); err != nil {
					log.Println("WS write error:", err)
					return
				}
			}
		}()

		// Pipe agent stderr -> WebSocket
		go func() {
			scanner := bufio.NewScanner(stderr)
			for scanner.Scan() {
				msg := map[string]string{"type": "stderr", "data": scanner.Text()}
				if err := conn.WriteJSON(msg); err != nil {
					log.Println("WS write error:", err)
					return
				}
			}
		}()

		// Pipe WebSocket messages -> agent stdin
		for {
			_, msg, err := raw.ReadMessage()
			if err != nil {
				log.Println("WS read error:", err)
				return
			}
			if _, err := stdin.Write(append(msg, '\n')); err != nil {
				log.Println("Stdin write error:", err)
				return
			}
		}
	}
}
