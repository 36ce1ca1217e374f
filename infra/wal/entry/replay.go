package entry

import (
	"os"
	"path/filepath"
)

type ReplayHandler func(*Record) error

// Replay applies every record with Seq > fromSeq to fn and returns the
// last sequence seen. Whole segments at or below fromSeq are skipped
// via the index; the remainder is filtered per record.
func Replay(dir string, ser Serializer, fromSeq uint64, fn ReplayHandler) (lastSeq uint64, err error) {
	lastSeq = fromSeq

	index, err := LoadAllIndex(dir)
	if err != nil {
		return lastSeq, err
	}
	var files []string
	for _, e := range index {
		if e.LastSeq <= fromSeq {
			continue
		}
		files = append(files, filepath.Join(dir, e.File))
	}
	if current := filepath.Join(dir, "current.wal"); fileExists(current) {
		files = append(files, current)
	}

	r := &Reader{ser: ser, files: files}
	defer r.Close()

	for r.Next() {
		rec := r.Record()
		if rec.Seq <= fromSeq {
			continue
		}
		if err := fn(rec); err != nil {
			return lastSeq, err
		}
		lastSeq = rec.Seq
	}
	return lastSeq, r.Err()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
