// Command simulator drives concurrent scripted conversations against a
// running engine over the transcript websocket, for load and smoke testing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type transcriptEvent struct {
	EventID    string  `json:"event_id"`
	SessionID  string  `json:"session_id"`
	RoomName   string  `json:"room_name"`
	UserID     string  `json:"user_id"`
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

type streamReply struct {
	EventID   string          `json:"event_id"`
	SessionID string          `json:"session_id"`
	Outcome   json.RawMessage `json:"outcome"`
	Error     string          `json:"error"`
}

// Scripts cover the main flows: direct execution, multi-turn slot filling,
// confirmation, cancellation and fallback.
var scripts = [][]string{
	{"turn the lights on"},
	{"what's the weather", "in Lisbon"},
	{"enable focus mode", "yes"},
	{"set the volume", "to 40"},
	{"enable focus mode", "no, forget it"},
	{"tell me a joke about compilers"},
}

func main() {
	var (
		addr     = flag.String("addr", "localhost:8080", "engine host:port")
		sessions = flag.Int("sessions", 4, "concurrent sessions")
		rounds   = flag.Int("rounds", 1, "script repetitions per session")
		delay    = flag.Duration("delay", 300*time.Millisecond, "pause between utterances")
		verbose  = flag.Bool("v", false, "print every reply")
	)
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/transcripts"}
	log.Printf("simulating %d sessions against %s", *sessions, u.String())

	var wg sync.WaitGroup
	results := make(chan sessionStats, *sessions)

	for i := 0; i < *sessions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			stats, err := runSession(u.String(), n, *rounds, *delay, *verbose)
			if err != nil {
				log.Printf("session %d: %v", n, err)
			}
			results <- stats
		}(i)
	}

	wg.Wait()
	close(results)

	var total sessionStats
	for s := range results {
		total.sent += s.sent
		total.replies += s.replies
		total.errors += s.errors
	}
	fmt.Printf("sent=%d replies=%d errors=%d\n", total.sent, total.replies, total.errors)
}

type sessionStats struct {
	sent    int
	replies int
	errors  int
}

func runSession(wsURL string, n, rounds int, delay time.Duration, verbose bool) (sessionStats, error) {
	var stats sessionStats

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return stats, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	script := scripts[n%len(scripts)]

	for r := 0; r < rounds; r++ {
		for _, text := range script {
			ev := transcriptEvent{
				EventID:    uuid.NewString(),
				SessionID:  sessionID,
				RoomName:   fmt.Sprintf("room-%d", n),
				UserID:     fmt.Sprintf("sim-user-%d", n),
				Text:       text,
				Language:   "en-US",
				Confidence: 0.96,
			}

			payload, err := json.Marshal(ev)
			if err != nil {
				return stats, err
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return stats, fmt.Errorf("write: %w", err)
			}
			stats.sent++

			conn.SetReadDeadline(time.Now().Add(20 * time.Second))
			_, data, err := conn.ReadMessage()
			if err != nil {
				return stats, fmt.Errorf("read: %w", err)
			}

			var reply streamReply
			if err := json.Unmarshal(data, &reply); err != nil {
				stats.errors++
				continue
			}
			if reply.Error != "" {
				stats.errors++
			} else {
				stats.replies++
			}
			if verbose {
				log.Printf("session %d <- %s", n, data)
			}

			time.Sleep(delay)
		}
	}

	return stats, nil
}
