// Package channel exposes the question-answering agent over user-facing
// surfaces: an interactive terminal loop and a small HTTP API.
package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"kbase/internal/agent"
)

// CLI is an interactive read-eval loop over the agent. After each answer the
// user may rate it 1-5; ratings go to the feedback log.
type CLI struct {
	agent    *agent.Agent
	feedback *agent.FeedbackCollector
	in       io.Reader
	out      io.Writer
}

// NewCLI creates a terminal channel. feedback may be nil to disable rating
// collection.
func NewCLI(a *agent.Agent, fc *agent.FeedbackCollector, in io.Reader, out io.Writer) *CLI {
	return &CLI{agent: a, feedback: fc, in: in, out: out}
}

// Run reads questions until EOF, "exit" or "quit". Errors answering a single
// question are reported and the loop continues.
func (c *CLI) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			return nil
		}

		answer, err := c.agent.Answer(ctx, query)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(c.out, answer)

		if c.feedback != nil {
			c.collectRating(scanner, query, answer)
		}
	}
}

func (c *CLI) collectRating(scanner *bufio.Scanner, query, answer string) {
	fmt.Fprint(c.out, "Rate this answer 1-5 (enter to skip): ")
	if !scanner.Scan() {
		return
	}

	var rating *int
	if text := strings.TrimSpace(scanner.Text()); text != "" {
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > 5 {
			fmt.Fprintln(c.out, "rating must be 1-5, skipping")
		} else {
			rating = &n
		}
	}

	if err := c.feedback.Log(query, answer, rating); err != nil {
		log.Printf("channel: logging feedback: %v", err)
	}
}
