package merge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Scripted answers conflicts from a fixed list and records what it was asked.
// Running out of answers is an error.
type Scripted struct {
	mu      sync.Mutex
	answers []Decision
	Asked   []Conflict
}

// NewScripted returns a decider replaying answers in order.
func NewScripted(answers ...Decision) *Scripted {
	return &Scripted{answers: answers}
}

// Decide implements Decider.
func (s *Scripted) Decide(c Conflict) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Asked = append(s.Asked, c)
	if len(s.answers) == 0 {
		return Undecided, fmt.Errorf("no scripted answer for %s.%s", c.PersonID, c.Field)
	}
	d := s.answers[0]
	s.answers = s.answers[1:]
	return d, nil
}

// Prompt asks on a terminal-like stream.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt reads answers from in and writes questions to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Decide implements Decider. It re-asks on unreadable answers and gives up
// at end of input.
func (p *Prompt) Decide(c Conflict) (Decision, error) {
	fmt.Fprintf(p.out, "Conflict on %s for %s\n  current:  %s\n  incoming: %s\n",
		c.Field, c.PersonID, show(c.Old), show(c.New))
	for {
		fmt.Fprint(p.out, "[r]eplace, [k]eep, [a]lways replace, [n]ever replace? ")
		line, err := p.in.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			if d, perr := ParseDecision(line); perr == nil {
				return d, nil
			}
			fmt.Fprintf(p.out, "unrecognised answer %q\n", strings.TrimSpace(line))
		}
		if err != nil {
			return Undecided, fmt.Errorf("read answer: %w", err)
		}
	}
}

func show(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case *bool:
		if x == nil {
			return "unknown"
		}
		return fmt.Sprint(*x)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
