package kafkad

import (
	"encoding/binary"
	"hash/crc32"
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// crc32Field implements the pushEncoder interface for CRC-32C checksums.
// The checksum covers every byte written after the reserved field, which is
// exactly the record-batch rule: the stored crc guards the bytes that follow
// it.
type crc32Field struct {
	startOffset int
}

func (c *crc32Field) saveOffset(in int) {
	c.startOffset = in
}

func (c *crc32Field) reserveLength() int {
	return 4
}

func (c *crc32Field) run(curOffset int, buf []byte) error {
	crc := crc32.Checksum(buf[c.startOffset+4:curOffset], castagnoliTable)
	binary.BigEndian.PutUint32(buf[c.startOffset:], crc)
	return nil
}
