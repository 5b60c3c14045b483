// Package archive keeps a replayable audit trail of raw webhook bodies.
// Authenticated deliveries are buffered in memory and flushed to
// zstd-compressed JSON batch files on a schedule and at shutdown.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fitsink/internal/archive/interfaces"
	"fitsink/internal/providers"
	"fitsink/internal/structures"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Entry is one archived delivery. Body is the exact raw payload that
// passed signature verification.
type Entry struct {
	Provider   string          `json:"provider"`
	EventType  string          `json:"event_type"`
	ReceivedAt time.Time       `json:"received_at"`
	Body       json.RawMessage `json:"body"`
}

type BufferInterface interface {
	Append(provider, eventType string, body []byte)
	Size() int
}

type Archiver struct {
	mu         sync.Mutex
	entries    []Entry
	conf       *structures.Config
	logger     providers.Logger
	compressor interfaces.CompressorInterface
}

func NewArchiver(conf *structures.Config, logger providers.Logger, compressor interfaces.CompressorInterface) *Archiver {
	return &Archiver{
		conf:       conf,
		logger:     logger,
		compressor: compressor,
	}
}

func (a *Archiver) Append(provider, eventType string, body []byte) {
	if !a.conf.Archive.Enabled {
		return
	}
	entry := Entry{
		Provider:   provider,
		EventType:  eventType,
		ReceivedAt: time.Now().UTC(),
		Body:       append([]byte(nil), body...),
	}
	a.mu.Lock()
	a.entries = append(a.entries, entry)
	a.mu.Unlock()
}

func (a *Archiver) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Flush writes the buffered entries as one compressed batch file and
// clears the buffer. The write goes through a temp file and a rename so
// readers never observe a half-written batch.
func (a *Archiver) Flush() error {
	a.mu.Lock()
	entries := a.entries
	a.entries = nil
	a.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}

	jsonData, err := json.Marshal(entries)
	if err != nil {
		a.requeue(entries)
		return err
	}
	data, err := a.compressor.Compress(jsonData)
	if err != nil {
		a.requeue(entries)
		return err
	}

	name := fmt.Sprintf("%s-%s.json.zst",
		time.Now().UTC().Format("20060102T150405"), uuid.NewString()[:8])
	fileName := filepath.Join(a.conf.Archive.Dir, name)

	if err := writeFileAtomic(fileName, data); err != nil {
		a.requeue(entries)
		return err
	}

	a.logger.Infof(providers.TypeApp, "Archived %d deliveries to %s", len(entries), fileName)
	return nil
}

// requeue puts entries back at the front of the buffer after a failed
// flush so they get another chance on the next tick.
func (a *Archiver) requeue(entries []Entry) {
	a.mu.Lock()
	a.entries = append(entries, a.entries...)
	a.mu.Unlock()
}

func writeFileAtomic(fileName string, data []byte) error {
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

// ReadBatch decompresses one archived batch file, for replay tooling and
// tests.
func (a *Archiver) ReadBatch(fileName string) ([]Entry, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	jsonData, err := a.compressor.Decompress(data)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(jsonData, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
