// Package container implements spec.md §4.11: the bit-exact FESC on-disk
// layout that carries the run-length control stream, the fifteen
// compressed category streams, and the jump-table side table needed for a
// deterministic inverse.
package container

import (
	"encoding/binary"
	"fmt"

	"github.com/fesh-project/fesh/internal/category"
	"github.com/fesh-project/fesh/internal/varint"
)

var magic = [4]byte{'F', 'E', 'S', 'C'}

const minHeaderLen = 4 + 8 + 1 // magic + orig_len + endian_flag

// Container is the parsed form of a FESC file: the original (pre-compress)
// length, which endian mode the forward pipeline used, the run-length
// control stream, the fifteen compressed category streams, and the
// jump-table metadata block.
type Container struct {
	OrigLen    uint64
	BigEndian  bool
	Runs       []byte
	Streams    [category.Count][]byte
	JumpTables []byte
}

// Encode serializes c into the FESC wire format.
func Encode(c Container) []byte {
	out := make([]byte, 0, minHeaderLen+len(c.Runs)+len(c.JumpTables))

	out = append(out, magic[:]...)

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], c.OrigLen)
	out = append(out, lenBuf[:]...)

	if c.BigEndian {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}

	out = varint.Append(out, uint64(len(c.Runs)))
	out = append(out, c.Runs...)

	for i := 0; i < category.Count; i++ {
		out = varint.Append(out, uint64(len(c.Streams[i])))
		out = append(out, c.Streams[i]...)
	}

	out = varint.Append(out, uint64(len(c.JumpTables)))
	out = append(out, c.JumpTables...)

	return out
}

// Decode parses the FESC wire format, validating the magic, every
// varint-prefixed block length against the remaining input, and nothing
// else: category contents and run-length semantics are the router's job.
func Decode(data []byte) (Container, error) {
	if len(data) < minHeaderLen {
		return Container{}, fmt.Errorf("container: input too short")
	}
	if [4]byte(data[0:4]) != magic {
		return Container{}, fmt.Errorf("container: bad magic")
	}

	var c Container
	c.OrigLen = binary.LittleEndian.Uint64(data[4:12])
	c.BigEndian = data[12] == 1

	pos := 13

	runsLen, n, err := readBlockLen(data, pos)
	if err != nil {
		return Container{}, fmt.Errorf("container: runs length: %w", err)
	}
	pos += n
	if pos+runsLen > len(data) {
		return Container{}, fmt.Errorf("container: runs block out of range")
	}
	c.Runs = data[pos : pos+runsLen]
	pos += runsLen

	for i := 0; i < category.Count; i++ {
		csLen, n, err := readBlockLen(data, pos)
		if err != nil {
			return Container{}, fmt.Errorf("container: category %d length: %w", i, err)
		}
		pos += n
		if pos+csLen > len(data) {
			return Container{}, fmt.Errorf("container: category %d block out of range", i)
		}
		if csLen > 0 {
			c.Streams[i] = data[pos : pos+csLen]
		}
		pos += csLen
	}

	jtLen, n, err := readBlockLen(data, pos)
	if err != nil {
		return Container{}, fmt.Errorf("container: jump-table length: %w", err)
	}
	pos += n
	if pos+jtLen > len(data) {
		return Container{}, fmt.Errorf("container: jump-table block out of range")
	}
	c.JumpTables = data[pos : pos+jtLen]

	return c, nil
}

func readBlockLen(data []byte, pos int) (int, int, error) {
	v, n, err := varint.Read(data[pos:])
	if err != nil {
		return 0, 0, err
	}
	if v > uint64(len(data)) {
		return 0, 0, fmt.Errorf("length %d exceeds input size", v)
	}
	return int(v), n, nil
}
