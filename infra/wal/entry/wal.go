package entry

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const frameHeaderSize = 8

const (
	defaultSegmentSize     = 64 << 20
	defaultSegmentDuration = time.Hour
)

type Config struct {
	Dir             string
	SegmentSize     uint64
	SegmentDuration time.Duration
	Serializer      Serializer
}

func (c Config) withDefaults() Config {
	if c.SegmentSize == 0 {
		c.SegmentSize = defaultSegmentSize
	}
	if c.SegmentDuration == 0 {
		c.SegmentDuration = defaultSegmentDuration
	}
	if c.Serializer == nil {
		c.Serializer = ProtoSerializer{}
	}
	return c
}

// WAL appends framed records to current.wal and rotates full segments
// into numbered files recorded in wal_index.json. Single writer.
type WAL struct {
	cfg             Config
	file            *os.File
	writer          *bufio.Writer
	seq             uint64
	segmentID       int
	segmentStartSeq uint64
	bytesWritten    uint64
	lastRotationAt  time.Time
}

func Open(cfg Config) (*WAL, error) {
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	last, err := LoadLastIndex(cfg.Dir)
	if err != nil {
		return nil, err
	}
	var segID int
	var seq uint64
	if last != nil {
		id, _ := strconv.Atoi(strings.TrimSuffix(filepath.Base(last.File), ".wal"))
		segID = id
		seq = last.LastSeq
	}

	path := filepath.Join(cfg.Dir, "current.wal")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	w := &WAL{
		cfg:             cfg,
		file:            f,
		segmentID:       segID,
		segmentStartSeq: seq + 1,
		seq:             seq,
		lastRotationAt:  time.Now(),
	}

	if err := w.recoverCurrentState(); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, err
	}
	w.writer = bufio.NewWriterSize(f, 1<<20)

	return w, nil
}

// Seq returns the sequence number of the last appended record.
func (w *WAL) Seq() uint64 { return w.seq }

// Append assigns the next sequence number to rec and writes it to the
// current segment, rotating first if the segment is full.
func (w *WAL) Append(rec *Record) error {
	rec.Seq = w.seq + 1
	data, err := w.cfg.Serializer.Encode(rec)
	if err != nil {
		return err
	}

	recordSize := frameHeaderSize + len(data)
	if w.shouldRotate(recordSize) {
		if err := w.rotate(); err != nil {
			return err
		}
	}

	if err := writeFrame(w.writer, data); err != nil {
		return err
	}
	w.seq++
	w.bytesWritten += uint64(recordSize)
	return nil
}

func (w *WAL) shouldRotate(nextSize int) bool {
	if w.bytesWritten == 0 {
		return false
	}
	return w.bytesWritten+uint64(nextSize) >= w.cfg.SegmentSize ||
		time.Since(w.lastRotationAt) >= w.cfg.SegmentDuration
}

func (w *WAL) rotate() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}

	newID := w.segmentID + 1
	newFile := fmt.Sprintf("%06d.wal", newID)
	oldPath := filepath.Join(w.cfg.Dir, "current.wal")
	newPath := filepath.Join(w.cfg.Dir, newFile)

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	entry := WalIndexEntry{
		File:      newFile,
		FirstSeq:  w.segmentStartSeq,
		LastSeq:   w.seq,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if err := AppendIndexEntry(w.cfg.Dir, entry); err != nil {
		return err
	}

	f, err := os.OpenFile(oldPath, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.writer = bufio.NewWriterSize(f, 1<<20)
	w.segmentID = newID
	w.segmentStartSeq = w.seq + 1
	w.bytesWritten = 0
	w.lastRotationAt = time.Now()

	log.Printf("[wal] rotated segment %s (seq %d-%d)", newFile, entry.FirstSeq, entry.LastSeq)
	return nil
}

func (w *WAL) Sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close flushes and syncs the current segment. It is left in place as
// current.wal so a reopen continues appending where it stopped.
func (w *WAL) Close() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	return w.file.Close()
}

// TruncateBefore deletes finalized segments fully covered by a
// snapshot at seq and rewrites the index. current.wal is never touched.
func (w *WAL) TruncateBefore(seq uint64) error {
	index, err := LoadAllIndex(w.cfg.Dir)
	if err != nil {
		return err
	}

	var kept []WalIndexEntry
	removed := 0
	for _, e := range index {
		if e.LastSeq <= seq {
			if err := os.Remove(filepath.Join(w.cfg.Dir, e.File)); err != nil && !os.IsNotExist(err) {
				return err
			}
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return nil
	}

	indexPath := filepath.Join(w.cfg.Dir, "wal_index.json")
	if err := os.Remove(indexPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, e := range kept {
		if err := AppendIndexEntry(w.cfg.Dir, e); err != nil {
			return err
		}
	}
	log.Printf("[wal] truncated %d segments below seq %d", removed, seq)
	return nil
}

// recoverCurrentState scans current.wal, restores the last sequence
// number and truncates any torn frame left by a crash.
func (w *WAL) recoverCurrentState() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		w.bytesWritten = 0
		return nil
	}

	path := filepath.Join(w.cfg.Dir, "current.wal")
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	var (
		validBytes int64
		header     [frameHeaderSize]byte
	)
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return w.truncateCurrent(validBytes)
			}
			return err
		}
		payloadLen := binary.LittleEndian.Uint32(header[:4])
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
				return w.truncateCurrent(validBytes)
			}
			return err
		}
		checksum := binary.LittleEndian.Uint32(header[4:])
		if crc32.ChecksumIEEE(payload) != checksum {
			return w.truncateCurrent(validBytes)
		}
		rec, err := w.cfg.Serializer.Decode(payload)
		if err != nil {
			return w.truncateCurrent(validBytes)
		}
		w.seq = rec.Seq
		validBytes += int64(frameHeaderSize + len(payload))
	}
	w.bytesWritten = uint64(validBytes)
	return nil
}

func (w *WAL) truncateCurrent(validBytes int64) error {
	log.Printf("[wal] truncating torn tail of current.wal at offset %d", validBytes)
	if err := w.file.Truncate(validBytes); err != nil {
		return err
	}
	if _, err := w.file.Seek(validBytes, io.SeekStart); err != nil {
		return err
	}
	w.bytesWritten = uint64(validBytes)
	return nil
}

func writeFrame(wr io.Writer, payload []byte) error {
	var header [frameHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[4:], crc32.ChecksumIEEE(payload))
	if _, err := wr.Write(header[:]); err != nil {
		return err
	}
	_, err := wr.Write(payload)
	return err
}
