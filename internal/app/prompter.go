package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"spreader/internal/field"
)

// LinePrompter asks on out and reads one line per answer from in. Nothing is
// read from in until the first prompt.
type LinePrompter struct {
	out io.Writer
	in  *bufio.Reader
	// pending is a read started by a prompt that was cancelled before the
	// operator answered; the next prompt takes its line.
	pending chan lineResult
}

type lineResult struct {
	text string
	err  error
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{out: out, in: bufio.NewReader(in)}
}

func (p *LinePrompter) Prompt(ctx context.Context, _ field.Key, text string) (string, error) {
	fmt.Fprint(p.out, text)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.pending == nil {
		p.pending = make(chan lineResult, 1)
		go p.readLine(p.pending)
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-p.pending:
		p.pending = nil
		return res.text, res.err
	}
}

func (p *LinePrompter) readLine(ch chan<- lineResult) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		ch <- lineResult{err: err}
		return
	}
	ch <- lineResult{text: strings.TrimRight(line, "\r\n")}
}

func (p *LinePrompter) Reject(_ field.Key, msg string) {
	fmt.Fprintln(p.out, msg)
}
