package results

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// NodeEvent records one finished seed node of a sweep
type NodeEvent struct {
	Network   string  `json:"network"`
	Beta      float64 `json:"beta"`
	Done      int     `json:"done"`
	Total     int     `json:"total"`
	Node      int64   `json:"node"`
	Mean      float64 `json:"mean"`
	ElapsedMS int64   `json:"elapsed_ms"`
	Timestamp int64   `json:"timestamp"`
}

// Tracker appends node events to a JSON lines file. A nil tracker is valid
// and records nothing.
type Tracker struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewTracker opens filename for appending
func NewTracker(filename string) (*Tracker, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// LogNode writes one event
func (t *Tracker) LogNode(network string, beta float64, node int64, mean float64, done, total int, elapsed time.Duration) error {
	if t == nil {
		return nil
	}

	event := NodeEvent{
		Network:   network,
		Beta:      beta,
		Done:      done,
		Total:     total,
		Node:      node,
		Mean:      mean,
		ElapsedMS: elapsed.Milliseconds(),
		Timestamp: time.Now().Unix(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.encoder.Encode(event)
}

func (t *Tracker) Close() error {
	if t == nil || t.file == nil {
		return nil
	}
	return t.file.Close()
}
