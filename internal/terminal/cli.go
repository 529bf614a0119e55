package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/trivia-quiz/internal/logging"
	"github.com/gokatarajesh/trivia-quiz/internal/question"
	"github.com/gokatarajesh/trivia-quiz/internal/question/external"
	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
	"github.com/gokatarajesh/trivia-quiz/internal/quiz/store"
)

const fetchTimeout = 5 * time.Second

// Options wires the CLI to its terminal. Zero values use the process's stdio,
// a one-second ticker and the wall clock.
type Options struct {
	In    io.Reader
	Out   io.Writer
	Err   io.Writer
	Ticks <-chan time.Time
	Now   func() time.Time
	// Shuffler orders multiple-choice answers; nil shuffles randomly.
	Shuffler quiz.Shuffler
}

type cli struct {
	opts    Options
	dataDir string
	verbose bool
}

// Execute runs the trivia command line.
func Execute() error {
	return NewRootCmd(Options{}).Execute()
}

// NewRootCmd builds the trivia command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	c := &cli{opts: opts}

	cmd := &cobra.Command{
		Use:           "trivia",
		Short:         "Play Open Trivia DB quizzes in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetIn(opts.In)
	cmd.SetOut(opts.Out)
	cmd.SetErr(opts.Err)

	cmd.PersistentFlags().StringVar(&c.dataDir, "data-dir", DefaultDataDir(), "directory holding saved quizzes and config.yaml")
	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(c.newPlayCmd(), c.newResultCmd(), c.newCategoriesCmd())
	return cmd
}

func (c *cli) logger() zerolog.Logger {
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	return logging.NewWithOutput(c.opts.Err, "trivia", "cli", level)
}

func (c *cli) settings() (Settings, error) {
	return LoadSettings(c.dataDir)
}

func (c *cli) lifecycle(s Settings, logger zerolog.Logger) (*quiz.Lifecycle, error) {
	st, err := store.NewFile(c.dataDir)
	if err != nil {
		return nil, err
	}
	source := question.NewSource(external.NewOpenTDBClient(s.OpenTDBURL, nil), fetchTimeout)
	return quiz.NewLifecycle(st, source, logger, quiz.Options{
		Now:      c.opts.Now,
		Shuffler: c.opts.Shuffler,
	}), nil
}

func (c *cli) newPlayCmd() *cobra.Command {
	var (
		amount, seconds            int
		category, difficulty, kind string
		fresh                      bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Start a quiz, or continue the unfinished one",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("amount") {
				s.Amount = amount
			}
			if flags.Changed("category") {
				s.Category = category
			}
			if flags.Changed("difficulty") {
				s.Difficulty = difficulty
			}
			if flags.Changed("type") {
				s.Type = kind
			}
			if flags.Changed("time") {
				s.TimePerQuestion = seconds
			}
			return c.play(cmd.Context(), s, fresh)
		},
	}
	cmd.Flags().IntVarP(&amount, "amount", "n", quiz.DefaultQuestionCount, "number of questions (1-50)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category ID (see 'trivia categories')")
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "easy, medium or hard")
	cmd.Flags().StringVar(&kind, "type", "", "multiple or boolean")
	cmd.Flags().IntVarP(&seconds, "time", "t", quiz.DefaultSecondsPerQuestion, "seconds per question")
	cmd.Flags().BoolVar(&fresh, "new", false, "start a new quiz even if one is unfinished")
	return cmd
}

func (c *cli) play(ctx context.Context, s Settings, fresh bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := c.logger()
	lc, err := c.lifecycle(s, logger)
	if err != nil {
		return err
	}

	ticks := c.opts.Ticks
	if ticks == nil {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		ticks = ticker.C
	}
	game := NewGame(c.opts.In, c.opts.Out, ticks)
	out := c.opts.Out

	var session *quiz.Session
	if !fresh {
		session, err = lc.Resume(ctx)
		if err != nil {
			return err
		}
		if session != nil {
			prompt := fmt.Sprintf("Continue your unfinished quiz (question %d of %d)?", session.CurrentIndex+1, len(session.Questions))
			if !game.Confirm(ctx, prompt) {
				session = nil
			}
		}
	}
	if session == nil {
		fmt.Fprintln(out, "Fetching questions...")
		session, err = lc.Start(ctx, s.Configuration())
		switch {
		case errors.Is(err, quiz.ErrNoQuestionsAvailable):
			return fmt.Errorf("no questions available for these settings, try different options")
		case errors.Is(err, quiz.ErrTransport):
			return fmt.Errorf("failed to fetch questions, please try again: %w", err)
		case err != nil:
			return err
		}
	}

	result, err := game.Play(ctx, lc.NewPlayer(session))
	if errors.Is(err, ErrQuit) {
		fmt.Fprintln(out, "\nProgress saved. Run 'trivia play' to continue.")
		return nil
	}
	if err != nil {
		return err
	}
	PrintSummary(out, result.Summarize())
	return nil
}

func (c *cli) newResultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "result",
		Short: "Show the last completed quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings()
			if err != nil {
				return err
			}
			lc, err := c.lifecycle(s, c.logger())
			if err != nil {
				return err
			}
			result, err := lc.LatestResult(cmd.Context())
			if err != nil {
				return err
			}
			if result == nil {
				fmt.Fprintln(c.opts.Out, "No completed quiz yet. Run 'trivia play' to start one.")
				return nil
			}
			PrintSummary(c.opts.Out, result.Summarize())
			return nil
		},
	}
}

func (c *cli) newCategoriesCmd() *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List question categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settings()
			if err != nil {
				return err
			}
			logger := c.logger()
			var catalog *question.Catalog
			if offline {
				catalog = question.NewCatalog(nil, nil, logger)
			} else {
				catalog = question.NewCatalog(external.NewOpenTDBClient(s.OpenTDBURL, nil), nil, logger)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
			defer cancel()
			for _, cat := range catalog.Categories(ctx) {
				id := cat.ID
				if id == "" {
					id = "-"
				}
				fmt.Fprintf(c.opts.Out, "%4s  %s\n", id, cat.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "print the built-in list without contacting the API")
	return cmd
}
