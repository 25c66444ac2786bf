package auditlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/bernatvadell/muonline-sub002/internal/mix"
)

const prefix = "mix"

// Entry records the outcome of one mix evaluation.
type Entry struct {
	ID          string    `json:"id"`
	Time        time.Time `json:"time"`
	PlayerID    string    `json:"player_id"`
	Facility    string    `json:"facility"`
	Matched     *mix.Key  `json:"matched,omitempty"`
	MatchedID   int32     `json:"matched_mix_id,omitempty"`
	Similar     *mix.Key  `json:"similar,omitempty"`
	SuccessRate int       `json:"success_rate"`
	RequiredZen uint64    `json:"required_zen"`
	ItemCount   int       `json:"item_count"`
}

// NewEntry builds an entry from an evaluation result.
func NewEntry(playerID string, f mix.Facility, itemCount int, res mix.Result) Entry {
	e := Entry{
		PlayerID:    playerID,
		Facility:    string(f),
		SuccessRate: res.SuccessRate,
		RequiredZen: res.RequiredCurrency,
		ItemCount:   itemCount,
	}
	if res.Matched != nil {
		k := res.Matched.Key()
		e.Matched = &k
		e.MatchedID = res.Matched.MixID
	}
	if res.Similar != nil {
		k := res.Similar.Key()
		e.Similar = &k
	}
	return e
}

// Writer appends entries as zstd compressed JSON lines, one file per UTC
// hour. It is safe for concurrent use.
type Writer struct {
	baseDir string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewWriter creates a writer storing files under dir.
func NewWriter(dir string) *Writer {
	return &Writer{baseDir: dir, now: time.Now}
}

// Write stores one entry, assigning an ID and timestamp when missing.
func (w *Writer) Write(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = now
	}

	hour := now.Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

// Close flushes and closes the current file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create audit dir: %w", err)
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

func (w *Writer) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", prefix, hour))
}

// ReadFile decodes every entry of one audit file. The file of the current
// hour has no frame end yet; its flushed entries are returned without error.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("failed to open zstd stream: %w", err)
	}
	defer dec.Close()

	var out []Entry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("failed to decode audit line %d: %w", len(out)+1, err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return out, err
	}
	return out, nil
}
