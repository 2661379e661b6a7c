package mcp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// maxMessageBytes bounds a single newline-delimited message.
const maxMessageBytes = 1 << 20

// ServeStdio reads newline-delimited messages from r until EOF or ctx is
// done. Each request is handled on its own goroutine; responses are written
// to w one per line, in completion order. It returns after every in-flight
// request has been answered.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	write := func(resp []byte) {
		mu.Lock()
		defer mu.Unlock()
		if _, err := w.Write(append(resp, '\n')); err != nil {
			s.logger.ErrorContext(ctx, "failed to write response", "error", err)
		}
	}

	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		msg := bytes.Clone(line)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if resp, ok := s.Handle(ctx, msg); ok {
				write(resp)
			}
		}()
	}
	wg.Wait()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read messages: %w", err)
	}
	return nil
}
