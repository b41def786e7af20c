// Package terminal drives the quiz client from a line-oriented terminal.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/stemsi/exstem-quiz-client/internal/model"
	"github.com/stemsi/exstem-quiz-client/internal/service"
)

const (
	defaultWidth = 60
	maxWidth     = 100
)

const helpText = `Commands:
  <question> <option>   choose an option, e.g. "3 B" or "3 2"
  s                     submit answers
  r                     reload questions
  p                     show progress
  v                     show all questions again
  q                     quit`

// UI is the terminal front end.
type UI struct {
	client *service.QuizClient
	in     io.Reader
	out    io.Writer
	width  int
	log    zerolog.Logger
}

// New creates a UI reading commands from in and printing to out.
func New(client *service.QuizClient, in io.Reader, out io.Writer, log zerolog.Logger) *UI {
	return &UI{
		client: client,
		in:     in,
		out:    out,
		width:  detectWidth(out),
		log:    log.With().Str("component", "terminal").Logger(),
	}
}

func detectWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return min(w, maxWidth)
}

// Run loads the questions, prints them and processes commands until quit,
// end of input or ctx is done.
func (u *UI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := u.client.LoadQuestions(ctx); err != nil && !errors.Is(err, service.ErrStale) {
		u.log.Warn().Err(err).Msg("Initial load failed")
	}
	u.printView(u.client.Render(ctx))

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(u.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(u.out, "> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(u.out)
			return nil
		case err := <-readErr:
			fmt.Fprintln(u.out)
			return err
		case line = <-lines:
		}

		if quit := u.handle(ctx, strings.TrimSpace(line)); quit {
			return nil
		}
	}
}

func (u *UI) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "q", "quit", "exit":
		return true
	case "s", "submit":
		u.submit(ctx)
	case "r", "reload":
		u.reload(ctx)
	case "p", "progress":
		u.printProgress(ctx)
	case "v", "view":
		u.printView(u.client.Render(ctx))
	case "h", "help", "?":
		fmt.Fprintln(u.out, helpText)
	default:
		if len(fields) != 2 {
			fmt.Fprintln(u.out, helpText)
			return false
		}
		u.selectOption(ctx, fields[0], fields[1])
	}
	return false
}

func (u *UI) selectOption(ctx context.Context, questionArg, optionArg string) {
	view := u.client.Render(ctx)
	if !view.Loaded {
		fmt.Fprintln(u.out, "! Questions are not loaded yet. Type r to reload.")
		return
	}

	number, err := strconv.Atoi(questionArg)
	if err != nil || number < 1 || number > len(view.Cards) {
		fmt.Fprintf(u.out, "! No question %s (1-%d).\n", questionArg, len(view.Cards))
		return
	}
	card := view.Cards[number-1]

	choice, ok := parseOption(optionArg)
	if !ok || choice >= len(card.Options) {
		fmt.Fprintf(u.out, "! Question %d has no option %s.\n", number, optionArg)
		return
	}

	progress, err := u.client.SelectOption(ctx, card.QuestionID, choice)
	if err != nil {
		fmt.Fprintf(u.out, "! %s\n", u.client.Render(ctx).Error)
		return
	}
	fmt.Fprintf(u.out, "Question %d: %s. %s\n", number, optionLabel(choice), card.Options[choice].Text)
	fmt.Fprintln(u.out, progress.Text())
}

func (u *UI) submit(ctx context.Context) {
	if _, err := u.client.Submit(ctx); err != nil {
		fmt.Fprintf(u.out, "! %s\n", u.client.Render(ctx).Error)
		return
	}
	u.printResult(u.client.Render(ctx).Result)
}

func (u *UI) reload(ctx context.Context) {
	outcome, err := u.client.Reload(ctx)
	if outcome.Instructions != "" {
		fmt.Fprintln(u.out, u.rule('*'))
		fmt.Fprintln(u.out, outcome.Instructions)
		fmt.Fprintln(u.out, u.rule('*'))
		return
	}
	if err != nil && !errors.Is(err, service.ErrStale) {
		fmt.Fprintf(u.out, "! %s\n", u.client.Render(ctx).Error)
		return
	}
	u.printView(u.client.Render(ctx))
}

func (u *UI) printProgress(ctx context.Context) {
	progress, err := u.client.Progress(ctx)
	if err != nil {
		fmt.Fprintf(u.out, "! %v\n", err)
		return
	}
	fmt.Fprintln(u.out, progress.Text())
}

func (u *UI) printView(view model.QuizView) {
	fmt.Fprintln(u.out, u.rule('='))
	status := view.Status
	if view.Session != "" {
		status += " (session: " + view.Session + ")"
	}
	fmt.Fprintln(u.out, status)
	if view.Error != "" {
		fmt.Fprintf(u.out, "! %s\n", view.Error)
	}

	for _, card := range view.Cards {
		fmt.Fprintln(u.out, u.rule('-'))
		fmt.Fprintln(u.out, card.Title)
		for _, opt := range card.Options {
			mark := " "
			if opt.Selected {
				mark = "x"
			}
			fmt.Fprintf(u.out, "  [%s] %s. %s\n", mark, optionLabel(opt.Index), opt.Text)
		}
	}
	fmt.Fprintln(u.out, u.rule('='))

	if view.Result != nil {
		u.printResult(view.Result)
	}
	if view.Loaded {
		fmt.Fprintln(u.out, `Type "h" for help.`)
	}
}

func (u *UI) printResult(result *model.ResultView) {
	if result == nil {
		return
	}
	fmt.Fprintln(u.out, result.ScoreText)
	if result.Flag != "" {
		fmt.Fprintln(u.out, result.Flag)
	} else {
		fmt.Fprintln(u.out, result.Hint)
	}
}

func (u *UI) rule(ch rune) string {
	return strings.Repeat(string(ch), u.width)
}

// optionLabel names option index 0 as A, 1 as B and so on; past Z it uses numbers.
func optionLabel(index int) string {
	if index < 26 {
		return string(rune('A' + index))
	}
	return strconv.Itoa(index + 1)
}

// parseOption accepts a letter (a, B) or a 1-based number and returns the index.
func parseOption(arg string) (int, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		return n - 1, n >= 1
	}
	if len(arg) == 1 {
		c := strings.ToLower(arg)[0]
		if c >= 'a' && c <= 'z' {
			return int(c - 'a'), true
		}
	}
	return 0, false
}
