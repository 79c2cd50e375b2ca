package anthropic

import "bytes"

// jsonlFramer incrementally splits a byte stream into newline-delimited
// records. Trailing \r is stripped and blank records are skipped; a final
// unterminated line is still surfaced by Finish.
type jsonlFramer struct {
	buf []byte
}

// Push appends a chunk and returns all lines completed by it.
func (f *jsonlFramer) Push(chunk []byte) [][]byte {
	f.buf = append(f.buf, chunk...)
	var out [][]byte
	for {
		idx := bytes.IndexByte(f.buf, '\n')
		if idx < 0 {
			return out
		}
		line := trimLineEnding(f.buf[:idx+1])
		f.buf = f.buf[idx+1:]
		if len(line) == 0 {
			continue
		}
		out = append(out, line)
	}
}

// Finish returns the final unterminated line, if any.
func (f *jsonlFramer) Finish() ([]byte, bool) {
	if len(f.buf) == 0 {
		return nil, false
	}
	line := trimLineEnding(f.buf)
	f.buf = nil
	if len(line) == 0 {
		return nil, false
	}
	return line, true
}

func trimLineEnding(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	out := make([]byte, len(line))
	copy(out, line)
	return out
}
