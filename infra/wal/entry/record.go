package entry

import "time"

// RecordType defines different WAL record actions.
type RecordType uint8

const (
	RecordPlace RecordType = iota + 1
	RecordCancel
	RecordSweep
)

type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

// NewRecord creates a new record for writing to the WAL. The sequence is
// assigned by the WAL on append.
func NewRecord(t RecordType, data []byte) *Record {
	return &Record{
		Type: t,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}
