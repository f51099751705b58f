// Simulator stands in for both external gateways so the bot can be run
// end-to-end on a laptop: a Signal-style messaging API that periodically
// emits messages carrying CIDs, and an IPFS-style storage API with an
// in-memory pin set. Point the bot at it:
//
//	SIGNAL_API_URL=http://127.0.0.1:18080 \
//	IPFS_API_URL=http://127.0.0.1:18080 \
//	pinbot --config config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	listenAddr     = "127.0.0.1:18080"
	accountNumber  = "+15550000000"
	senderNumber   = "+15551234567"
	messageEvery   = 15 * time.Second
	cidAlphabet    = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	contentPayload = "simulated content for %s\n"
)

type simulator struct {
	mu       sync.Mutex
	inbox    []envelope
	pinned   map[string]bool
	sent     int
	received int
}

type envelope struct {
	Source      string       `json:"source"`
	Timestamp   int64        `json:"timestamp"`
	DataMessage *dataMessage `json:"dataMessage,omitempty"`
}

type dataMessage struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func main() {
	fmt.Println("=== Pinbot Gateway Simulator ===")
	fmt.Printf("Listening on http://%s\n", listenAddr)
	fmt.Printf("Account: %s | New message every %s\n\n", accountNumber, messageEvery)

	sim := &simulator{pinned: make(map[string]bool)}

	go sim.produceMessages()

	mux := http.NewServeMux()

	// Messaging gateway surface.
	mux.HandleFunc("GET /v1/accounts", sim.accounts)
	mux.HandleFunc("GET /v1/receive/{number}", sim.receive)
	mux.HandleFunc("POST /v2/send", sim.send)

	// Storage gateway surface.
	mux.HandleFunc("POST /api/v0/pin/add", sim.pinAdd)
	mux.HandleFunc("POST /api/v0/pin/rm", sim.pinRm)
	mux.HandleFunc("POST /api/v0/pin/ls", sim.pinLs)
	mux.HandleFunc("POST /api/v0/ls", sim.ls)
	mux.HandleFunc("POST /api/v0/get", sim.get)
	mux.HandleFunc("POST /api/v0/object/stat", sim.stat)

	if err := http.ListenAndServe(listenAddr, mux); err != nil {
		fmt.Println("FAILED:", err)
	}
}

// produceMessages queues a message with a fresh fake CID on every tick, with
// the occasional duplicate delivery and CID-free message mixed in.
func (s *simulator) produceMessages() {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var last envelope

	for range time.Tick(messageEvery) {
		s.mu.Lock()
		switch {
		case last.DataMessage != nil && rng.Float64() < 0.2:
			// Redeliver the previous envelope unchanged.
			s.inbox = append(s.inbox, last)
			fmt.Printf("[sim] redelivered message ts=%d\n", last.Timestamp)
		case rng.Float64() < 0.2:
			now := time.Now()
			last = envelope{
				Source:      senderNumber,
				Timestamp:   now.UnixMilli(),
				DataMessage: &dataMessage{Message: "no link this time", Timestamp: now.UnixMilli()},
			}
			s.inbox = append(s.inbox, last)
			fmt.Println("[sim] queued message without CID")
		default:
			cid := randomCid(rng)
			now := time.Now()
			last = envelope{
				Source:      senderNumber,
				Timestamp:   now.UnixMilli(),
				DataMessage: &dataMessage{Message: "check this out: " + cid, Timestamp: now.UnixMilli()},
			}
			s.inbox = append(s.inbox, last)
			fmt.Printf("[sim] queued message with CID %s\n", cid)
		}
		s.mu.Unlock()
	}
}

func randomCid(rng *rand.Rand) string {
	var b strings.Builder
	b.WriteString("Qm")
	for i := 0; i < 44; i++ {
		b.WriteByte(cidAlphabet[rng.Intn(len(cidAlphabet))])
	}
	return b.String()
}

func (s *simulator) accounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, []string{accountNumber})
}

func (s *simulator) receive(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.inbox) == 0 {
		// Match the real gateway: empty body when nothing is queued.
		return
	}

	type item struct {
		Envelope envelope `json:"envelope"`
	}
	items := make([]item, 0, len(s.inbox))
	for _, env := range s.inbox {
		items = append(items, item{Envelope: env})
	}
	s.inbox = s.inbox[:0]
	s.received += len(items)
	writeJSON(w, items)
}

func (s *simulator) send(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message    string   `json:"message"`
		Number     string   `json:"number"`
		Recipients []string `json:"recipients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.sent++
	s.mu.Unlock()

	fmt.Printf("[sim] notification to %v: %q\n", payload.Recipients, payload.Message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]int64{"timestamp": time.Now().UnixMilli()})
}

func (s *simulator) pinAdd(w http.ResponseWriter, r *http.Request) {
	cid := r.URL.Query().Get("arg")
	s.mu.Lock()
	s.pinned[cid] = true
	total := len(s.pinned)
	s.mu.Unlock()

	fmt.Printf("[sim] pinned %s (%d total)\n", cid, total)
	writeJSON(w, map[string][]string{"Pins": {cid}})
}

func (s *simulator) pinRm(w http.ResponseWriter, r *http.Request) {
	cid := r.URL.Query().Get("arg")
	s.mu.Lock()
	pinned := s.pinned[cid]
	delete(s.pinned, cid)
	s.mu.Unlock()

	if !pinned {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]string{"Message": "pin/rm: not pinned or pinned indirectly"})
		return
	}
	fmt.Printf("[sim] unpinned %s\n", cid)
	writeJSON(w, map[string][]string{"Pins": {cid}})
}

func (s *simulator) pinLs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	keys := make(map[string]map[string]string, len(s.pinned))
	for cid := range s.pinned {
		keys[cid] = map[string]string{"Type": "recursive"}
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{"Keys": keys})
}

func (s *simulator) ls(w http.ResponseWriter, r *http.Request) {
	cid := r.URL.Query().Get("arg")
	writeJSON(w, map[string]any{
		"Objects": []map[string]any{
			{"Hash": cid, "Links": []map[string]any{{"Name": "simulated-" + cid[:8] + ".txt"}}},
		},
	})
}

func (s *simulator) get(w http.ResponseWriter, r *http.Request) {
	cid := r.URL.Query().Get("arg")
	fmt.Fprintf(w, contentPayload, cid)
}

func (s *simulator) stat(w http.ResponseWriter, r *http.Request) {
	cid := r.URL.Query().Get("arg")
	writeJSON(w, map[string]any{
		"Hash":           cid,
		"CumulativeSize": len(fmt.Sprintf(contentPayload, cid)),
	})
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}
