package toolserver

import (
	"bufio"
	"bytes"
	"context"
	"io"
)

// ServeStdio runs the line-oriented loop: one request per input line, one
// response per output line. Blank lines are skipped. Returns when the input
// stream ends or ctx is cancelled between requests.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	s.logf("[gatetools] stdio server ready, %d tools", s.registry.Len())

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		out := s.HandleLine(line)
		if _, err := w.Write(append(out, '\n')); err != nil {
			return err
		}
		if f, ok := w.(interface{ Flush() error }); ok {
			_ = f.Flush()
		}
	}
	return scanner.Err()
}
