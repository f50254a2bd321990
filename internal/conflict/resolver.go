package conflict

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Conflict describes an existing entry that a new filename would replace.
type Conflict struct {
	Label    string
	Key      string
	Existing string
	AddedAt  time.Time
}

// Resolver decides what happens when a key already has a file on disk.
type Resolver interface {
	Resolve(ctx context.Context, c Conflict) (Decision, error)
}

// Fixed always returns the same decision.
type Fixed Decision

func (f Fixed) Resolve(context.Context, Conflict) (Decision, error) {
	if Decision(f) == Undecided {
		return Skip, nil
	}
	return Decision(f), nil
}

const defaultMaxAttempts = 5

// Interactive prompts on Out and reads single-line answers from In.
//
// A prompt that gets no answer within Timeout resolves to Default, as does
// running out of MaxAttempts on invalid or view answers. When In is not a
// terminal the prompt is skipped entirely and Default is returned.
type Interactive struct {
	In          io.Reader
	Out         io.Writer
	Timeout     time.Duration
	Default     Decision
	View        func(Conflict) error
	MaxAttempts int
	// Terminal overrides terminal detection of In.
	Terminal func(io.Reader) bool

	once  sync.Once
	lines chan string
}

// Resolve implements Resolver.
func (p *Interactive) Resolve(ctx context.Context, c Conflict) (Decision, error) {
	def := p.Default
	if def == Undecided {
		def = Skip
	}
	if p.In == nil || !p.isTerminal() {
		return def, nil
	}
	out := p.Out
	if out == nil {
		out = io.Discard
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	fmt.Fprintf(out, "A file already exists for %s [%s]:\n  %s\n", c.Label, c.Key, c.Existing)
	for range attempts {
		fmt.Fprintf(out, "(v)iew (o)verwrite (s)kip (c)ancel [default %s", def)
		if p.Timeout > 0 {
			fmt.Fprintf(out, " in %s", p.Timeout)
		}
		fmt.Fprint(out, "]: ")

		answer, ok, err := p.readLine(ctx)
		if err != nil {
			return Undecided, err
		}
		if !ok {
			fmt.Fprintf(out, "\nno answer, using %s\n", def)
			return def, nil
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		switch answer {
		case "":
			return def, nil
		case "v", "view":
			p.view(out, c)
			continue
		}
		if d, err := ParseDecision(answer); err == nil {
			return d, nil
		}
		fmt.Fprintf(out, "unrecognized answer %q\n", answer)
	}
	fmt.Fprintf(out, "too many attempts, using %s\n", def)
	return def, nil
}

func (p *Interactive) view(out io.Writer, c Conflict) {
	if p.View != nil {
		if err := p.View(c); err != nil {
			fmt.Fprintf(out, "view failed: %v\n", err)
		}
		return
	}
	fmt.Fprintf(out, "label: %s\nkey: %s\nfile: %s\n", c.Label, c.Key, c.Existing)
	if !c.AddedAt.IsZero() {
		fmt.Fprintf(out, "added: %s\n", c.AddedAt.Format(time.DateTime))
	}
}

// readLine returns ok=false on timeout or end of input. A single reader
// goroutine feeds lines so an abandoned prompt does not lose later input.
func (p *Interactive) readLine(ctx context.Context) (string, bool, error) {
	p.once.Do(func() {
		p.lines = make(chan string)
		go func() {
			defer close(p.lines)
			scanner := bufio.NewScanner(p.In)
			for scanner.Scan() {
				p.lines <- scanner.Text()
			}
		}()
	})

	var timeout <-chan time.Time
	if p.Timeout > 0 {
		timer := time.NewTimer(p.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case <-timeout:
		return "", false, nil
	case line, open := <-p.lines:
		return line, open, nil
	}
}

func (p *Interactive) isTerminal() bool {
	if p.Terminal != nil {
		return p.Terminal(p.In)
	}
	f, ok := p.In.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
