// Package loader implements the program file format spec §6 delegates to
// an "external file I/O collaborator": a byte-serialised stream of
// length-prefixed records, one per program line, terminated by a
// zero-length sentinel record. Grounded on the discipline of the
// teacher's own loader.go — read one self-describing record at a time in
// a loop, validate as you go, stop on a sentinel — generalised here from
// ARM object-section records to BASIC program-line records.
package loader

import (
	"encoding/binary"
	"io"

	"github.com/lookbusy1344/basic6502/basic"
	"github.com/lookbusy1344/basic6502/program"
)

// recordHeaderSize is the length+line-number prefix of every record.
const recordHeaderSize = 4

// Line is one decoded record: a line number and its token bytes (without
// the record's length/line-number header or its trailing 0x00).
type Line struct {
	Number int
	Tokens []byte
}

// Save serialises every line in store, in ascending line-number order, as
// the record stream spec §6 defines, followed by the zero-length sentinel.
func Save(w io.Writer, store *program.Store) error {
	for _, ref := range store.Walk() {
		tokens := store.Tokens(ref.Addr)
		length := uint16(recordHeaderSize + len(tokens) + 1)
		header := make([]byte, recordHeaderSize)
		binary.LittleEndian.PutUint16(header[0:2], length)
		binary.LittleEndian.PutUint16(header[2:4], uint16(ref.Number))
		if _, err := w.Write(header); err != nil {
			return err
		}
		if _, err := w.Write(tokens); err != nil {
			return err
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	}
	sentinel := make([]byte, 2)
	_, err := w.Write(sentinel)
	return err
}

// Load reads the record stream from r until the sentinel, returning every
// decoded line. It does not write into a Store itself — the dispatcher's
// LOAD statement handler calls store.Insert for each Line after clearing
// the machine, matching spec §4.3's note that a program edit implicitly
// executes CLEAR.
func Load(r io.Reader) ([]Line, error) {
	var lines []Line
	for {
		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			if err == io.EOF {
				return nil, basic.New(basic.ErrFileNotFound, "UNEXPECTED EOF")
			}
			return nil, err
		}
		length := binary.LittleEndian.Uint16(lenBuf[:])
		if length == 0 {
			return lines, nil
		}
		if length < recordHeaderSize+1 {
			return nil, basic.New(basic.ErrFileNotFound, "CORRUPT RECORD")
		}
		rest := make([]byte, length-2)
		if _, err := io.ReadFull(r, rest); err != nil {
			return nil, basic.New(basic.ErrFileNotFound, "TRUNCATED RECORD")
		}
		lineNo := int(binary.LittleEndian.Uint16(rest[0:2]))
		body := rest[2:]
		if len(body) == 0 || body[len(body)-1] != 0 {
			return nil, basic.New(basic.ErrFileNotFound, "MISSING RECORD TERMINATOR")
		}
		lines = append(lines, Line{Number: lineNo, Tokens: body[:len(body)-1]})
	}
}
