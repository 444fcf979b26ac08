package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/skyreachair/leadfunnel/internal/funnel"
	"github.com/skyreachair/leadfunnel/internal/logging"
)

func main() {
	_ = godotenv.Load()

	defaultAPI := os.Getenv("FUNNEL_API_URL")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:3001"
	}
	apiURL := flag.String("api", defaultAPI, "base URL of the lead intake API")
	logLevel := flag.String("log-level", "warn", "log level for funnel events (debug, info, warn, error)")
	flag.Parse()

	// stdout belongs to the questionnaire
	logger := slog.New(logging.NewJSONHandler(os.Stderr, *logLevel))

	changes := make(chan funnel.State, 1)
	m := funnel.NewMachine(
		funnel.NewHTTPSubmitter(*apiURL),
		funnel.WithEvents(funnel.LogSink{Logger: logger}),
		funnel.WithOnChange(func(s funnel.State) {
			select {
			case changes <- s:
			default:
			}
		}),
	)
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	ui := &terminal{out: os.Stdout, m: m, ctx: ctx}
	ui.render(m.State())

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(ui.out)
			return
		case s := <-changes:
			ui.render(s)
		case line, ok := <-lines:
			if !ok {
				return
			}
			if done := ui.handle(line); done {
				return
			}
		}
	}
}

type terminal struct {
	out io.Writer
	m   *funnel.Machine
	ctx context.Context

	// contact form progress on the last step
	contact funnel.Contact
	field   int

	typingCustomSize bool
}

var contactPrompts = []string{"Full name", "Phone", "Email (optional)", "ZIP code"}

func (t *terminal) render(s funnel.State) {
	if s.Completed {
		fmt.Fprintf(t.out, "\nYou're all set! Your $125 heating maintenance request was received.\n")
		if s.LeadID != "" {
			fmt.Fprintf(t.out, "Reference: %s\n", s.LeadID)
		}
		fmt.Fprintln(t.out, "A technician will call you to confirm your appointment.")
		return
	}

	fmt.Fprintf(t.out, "\n[%s] Step %d of %d (%.0f%%)\n", bar(s.Progress()), s.Index+1, s.Total, s.Progress())
	fmt.Fprintf(t.out, "%s\n%s\n\n", s.Step.Question, s.Step.Subtitle)

	if s.Step.Type == funnel.StepContact {
		fmt.Fprintln(t.out, "Your maintenance includes:")
		for _, item := range funnel.Checklist(s.Answers[strconv.Itoa(funnel.StepSystemType)]) {
			fmt.Fprintf(t.out, "  - %s\n", item)
		}
		fmt.Fprintln(t.out)
		t.field = 0
		t.contact = funnel.Contact{}
		t.prompt()
		return
	}

	current := s.Answers[s.Step.Key()]
	for i, c := range s.Step.Choices {
		marker := " "
		if c.Value == current {
			marker = "*"
		}
		fmt.Fprintf(t.out, " %s %d) %s - %s\n", marker, i+1, c.Label, c.Description)
	}
	fmt.Fprint(t.out, "\nChoose a number, b = back, n = next, q = quit: ")
}

// handle processes one line of input and reports whether to exit.
func (t *terminal) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "q" {
		return true
	}

	s := t.m.State()
	if s.Completed {
		return true
	}
	if s.Step.Type == funnel.StepContact {
		return t.handleContact(line)
	}

	if t.typingCustomSize {
		t.typingCustomSize = false
		if err := t.m.SetCustomFilterSize(line); err == nil {
			if err := t.m.ConfirmOther(); err != nil {
				fmt.Fprintln(t.out, "Please enter your filter size.")
			}
		}
		t.render(t.m.State())
		return false
	}

	var err error
	switch line {
	case "b":
		err = t.m.Back()
	case "n":
		err = t.m.Next()
	default:
		n, convErr := strconv.Atoi(line)
		if convErr != nil || n < 1 || n > len(s.Step.Choices) {
			fmt.Fprint(t.out, "Please choose one of the listed numbers: ")
			return false
		}
		value := s.Step.Choices[n-1].Value
		if err = t.m.Select(value); err == nil {
			if s.Step.Type == funnel.StepFilter && value == funnel.FilterOther {
				t.typingCustomSize = true
				fmt.Fprint(t.out, "Enter your filter size (e.g. 18x24x1): ")
				return false
			}
			fmt.Fprintf(t.out, "Selected %s\n", s.Step.Choices[n-1].Label)
			return false
		}
	}

	switch {
	case errors.Is(err, funnel.ErrFirstStep), errors.Is(err, funnel.ErrLastStep):
		fmt.Fprint(t.out, "Nothing further that way. Choose a number: ")
	case err != nil:
		fmt.Fprintf(t.out, "%v\n", err)
	default:
		t.render(t.m.State())
	}
	return false
}

func (t *terminal) handleContact(line string) bool {
	if line == "b" && t.field == 0 {
		_ = t.m.Back()
		t.render(t.m.State())
		return false
	}

	switch t.field {
	case 0:
		t.contact.Name = line
	case 1:
		t.contact.Phone = line
	case 2:
		t.contact.Email = line
	case 3:
		t.contact.Zip = line
	}
	t.field++
	if t.field < len(contactPrompts) {
		t.prompt()
		return false
	}

	fmt.Fprintln(t.out, "Submitting...")
	ctx, cancel := context.WithTimeout(t.ctx, 20*time.Second)
	err := t.m.Submit(ctx, t.contact)
	cancel()

	if err == nil {
		t.render(t.m.State())
		return true
	}

	var cerr *funnel.ContactError
	if errors.As(err, &cerr) {
		if cerr.Message != "" {
			fmt.Fprintln(t.out, cerr.Message)
		}
		for field, msg := range cerr.Fields {
			fmt.Fprintf(t.out, "  %s: %s\n", field, msg)
		}
	} else {
		fmt.Fprintln(t.out, funnel.MsgNetworkError)
	}
	t.field = 0
	t.prompt()
	return false
}

func (t *terminal) prompt() {
	fmt.Fprintf(t.out, "%s: ", contactPrompts[t.field])
}

func bar(pct float64) string {
	const width = 20
	filled := int(pct / 100 * width)
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}
