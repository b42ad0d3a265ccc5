package kafkad

import "encoding/binary"

// lengthField implements the PushEncoder interface for calculating 4-byte
// length prefixes (the outer frame of every message, and the batch_length
// field of a record batch).
type lengthField struct {
	startOffset int
}

func (l *lengthField) saveOffset(in int) {
	l.startOffset = in
}

func (l *lengthField) reserveLength() int {
	return 4
}

func (l *lengthField) run(curOffset int, buf []byte) error {
	binary.BigEndian.PutUint32(buf[l.startOffset:], uint32(curOffset-l.startOffset-4))
	return nil
}
