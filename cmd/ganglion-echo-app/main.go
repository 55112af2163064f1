// Command ganglion-echo-app is a minimal framed-app test fixture: it emits
// the ready token, then echoes every D frame it receives back to stdout
// unchanged. Used to exercise the Framed-App Session end to end without a
// real textual-style application.
package main

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

const (
	tagData = 'D'
)

func main() {
	out := bufio.NewWriter(os.Stdout)
	if _, err := out.WriteString("__GANGLION__\n"); err != nil {
		return
	}
	out.Flush()

	in := bufio.NewReader(os.Stdin)
	for {
		tag, err := in.ReadByte()
		if err != nil {
			return
		}
		var lenBuf [4]byte
		if _, err := io.ReadFull(in, lenBuf[:]); err != nil {
			return
		}
		size := binary.BigEndian.Uint32(lenBuf[:])
		payload := make([]byte, size)
		if _, err := io.ReadFull(in, payload); err != nil {
			return
		}
		if tag != tagData {
			continue
		}

		out.WriteByte(tagData)
		out.Write(lenBuf[:])
		out.Write(payload)
		out.Flush()
	}
}
