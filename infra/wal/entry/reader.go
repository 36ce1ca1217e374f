package entry

import (
	"bufio"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
)

var ErrCRCMismatch = errors.New("wal: crc mismatch")

// Reader iterates every record in a WAL directory: finalized segments
// in index order, then current.wal.
type Reader struct {
	ser   Serializer
	files []string
	file  *os.File
	buf   *bufio.Reader
	rec   *Record
	err   error
}

func OpenReader(dir string, ser Serializer) (*Reader, error) {
	index, err := LoadAllIndex(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range index {
		files = append(files, filepath.Join(dir, e.File))
	}
	current := filepath.Join(dir, "current.wal")
	if _, err := os.Stat(current); err == nil {
		files = append(files, current)
	}
	return &Reader{ser: ser, files: files}, nil
}

// Next advances to the next record. It returns false at the end of the
// log or on the first error; check Err to tell them apart.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	for {
		if r.buf == nil {
			if len(r.files) == 0 {
				return false
			}
			f, err := os.Open(r.files[0])
			r.files = r.files[1:]
			if err != nil {
				r.err = err
				return false
			}
			r.file = f
			r.buf = bufio.NewReader(f)
		}

		rec, err := readFrame(r.buf, r.ser)
		if err == io.EOF {
			_ = r.file.Close()
			r.file = nil
			r.buf = nil
			continue
		}
		if err != nil {
			r.err = err
			return false
		}
		r.rec = rec
		return true
	}
}

func (r *Reader) Record() *Record { return r.rec }

func (r *Reader) Err() error { return r.err }

func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

func readFrame(br *bufio.Reader, ser Serializer) (*Record, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	payloadLen := binary.LittleEndian.Uint32(header[:4])
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(br, payload); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	checksum := binary.LittleEndian.Uint32(header[4:])
	if crc32.ChecksumIEEE(payload) != checksum {
		return nil, ErrCRCMismatch
	}
	return ser.Decode(payload)
}
