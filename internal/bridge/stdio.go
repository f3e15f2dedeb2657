package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/modelgate/gateagent/internal/protocol"
)

// stdioTransport runs the tool server as a child process and exchanges one
// serialized envelope per line: a request line on the child's stdin, a
// response line back on its stdout. Stray output that does not parse as a
// JSON-RPC envelope is logged and skipped, never fatal.
type stdioTransport struct {
	logf func(format string, args ...any)

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewStdioTransport starts command (a whitespace-separated command line) as
// the subprocess tool server. The child's stderr passes through to ours.
func NewStdioTransport(command string, verbose bool) (Transport, error) {
	parts := strings.Fields(strings.TrimSpace(command))
	if len(parts) == 0 {
		return nil, fmt.Errorf("stdio transport requires a command")
	}
	cmd := exec.Command(parts[0], parts[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, &RPCError{
			Code:    protocol.CodeConnectionFailed,
			Message: "failed to start tool server: " + parts[0],
			Cause:   err,
		}
	}
	return &stdioTransport{
		logf:   verboseLogf(verbose),
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}, nil
}

// NewPipeTransport wraps an existing reader/writer pair as a stdio-style
// transport. Used by tests and by callers that manage the child themselves.
func NewPipeTransport(r io.Reader, w io.WriteCloser, verbose bool) Transport {
	return &stdioTransport{
		logf:   verboseLogf(verbose),
		stdin:  w,
		stdout: bufio.NewReader(r),
	}
}

func (t *stdioTransport) RoundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	_ = ctx // an in-flight line exchange is not cancellable; see Close
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.stdin.Write(append(payload, '\n')); err != nil {
		return nil, &RPCError{
			Code:    protocol.CodeConnectionFailed,
			Message: "failed writing to tool server",
			Cause:   err,
		}
	}

	// Block reading one response line. Malformed lines are skipped so a
	// chatty child cannot wedge the session.
	for {
		line, err := t.stdout.ReadString('\n')
		if err != nil {
			return nil, &RPCError{
				Code:    protocol.CodeConnectionFailed,
				Message: "tool server closed its output stream",
				Cause:   err,
			}
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !looksLikeEnvelope(line) {
			t.logf("[mcp] skipping stray output line: %.80s", line)
			continue
		}
		return []byte(line), nil
	}
}

func (t *stdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stdin != nil {
		_ = t.stdin.Close()
	}
	if t.cmd == nil {
		return nil
	}
	err := t.cmd.Wait()
	t.cmd = nil
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 0 {
		return nil
	}
	return err
}

func looksLikeEnvelope(line string) bool {
	var probe struct {
		JSONRPC string `json:"jsonrpc"`
	}
	if err := json.Unmarshal([]byte(line), &probe); err != nil {
		return false
	}
	return probe.JSONRPC == "2.0"
}
