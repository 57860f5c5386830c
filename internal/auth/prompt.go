package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompt reads a personal access token interactively. Reading happens on a
// dedicated goroutine so the blocking stdin read never stalls the caller's
// scheduler; ctx cancellation abandons the prompt.
//
// This is the only blocking stdin operation in the daemon. It must not be
// called while holding any lock.
func Prompt(ctx context.Context, in io.Reader, out io.Writer) (Credential, error) {
	fmt.Fprint(out, "Enter your GitHub personal access token: ")

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	case res := <-ch:
		if res.err != nil && res.err != io.EOF {
			return Credential{}, fmt.Errorf("%w: read token: %s", ErrTokenRetrieval, res.err)
		}
		raw := strings.TrimSpace(res.line)
		if raw == "" {
			return Credential{}, fmt.Errorf("%w: empty token entered", ErrTokenRetrieval)
		}
		return NewCredential(raw), nil
	}
}
