package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shrimpsizemoose/dezhurka/internal/app"
	"github.com/shrimpsizemoose/dezhurka/internal/models"
	"github.com/shrimpsizemoose/dezhurka/internal/scoring"
	"github.com/shrimpsizemoose/dezhurka/internal/store"
	"github.com/shrimpsizemoose/dezhurka/internal/week"
)

type rootOpts struct {
	configPath string
	at         string
}

type session struct {
	config *app.Config
	store  store.DeductionStore
	board  *scoring.Board
}

func (o *rootOpts) open(allowAt bool) (*session, error) {
	cfg, err := app.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	clock, err := week.LoadClock(cfg.Week.Timezone)
	if err != nil {
		return nil, err
	}
	if o.at != "" {
		if !allowAt {
			return nil, fmt.Errorf("--at only applies to read commands")
		}
		at, err := time.ParseInLocation(week.StampFormat, o.at, clock.Now().Location())
		if err != nil {
			return nil, fmt.Errorf("invalid --at %q: %w", o.at, err)
		}
		clock = week.FixedClock(at)
	}

	s, err := app.NewStore(cfg.Database.DSN, cfg.Database.MigrationsDir)
	if err != nil {
		return nil, err
	}

	return &session{config: cfg, store: s, board: scoring.NewBoard(s, clock)}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

func newMigrateCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// opening the store runs the migrations
			s, err := opts.open(false)
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "migrations from %s applied\n", s.config.Database.MigrationsDir)
			return nil
		},
	}
}

func newRecordCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "record <class> <student> <score> <reason...>",
		Short: "Record a deduction for the current week",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(false)
			if err != nil {
				return err
			}
			defer s.Close()

			reason := strings.Join(args[3:], " ")
			ok, err := s.board.RecordDeduction(args[0], args[1], reason, args[2])
			if err != nil {
				return err
			}
			if !ok {
				return &exitErr{code: 2, msg: "deduction rejected: every field is required and score must be a positive integer"}
			}

			score, err := s.board.ClassScore(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded, %s now at %d\n", strings.TrimSpace(args[0]), score)
			return nil
		},
	}
}

func newScoreCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "score <class>",
		Short: "Print a class's score for the current week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(true)
			if err != nil {
				return err
			}
			defer s.Close()

			score, err := s.board.ClassScore(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), score)
			return nil
		},
	}
}

func newClassCmd(opts *rootOpts) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "class <class>",
		Short: "List a class's deductions for the current week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(true)
			if err != nil {
				return err
			}
			defer s.Close()

			summary, err := s.board.ClassRecords(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			writeClass(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newSummaryCmd(opts *rootOpts) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print every class with deductions this week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(true)
			if err != nil {
				return err
			}
			defer s.Close()

			summary, err := s.board.CurrentWeekSummary()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "week %s\n", summary.Week)
			for _, cls := range summary.Sorted() {
				fmt.Fprintln(out)
				writeClass(out, cls)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeClass(w io.Writer, cls *models.ClassSummary) {
	fmt.Fprintf(w, "%s\t%d\n", cls.ClassName, cls.Score)
	for _, r := range cls.Records {
		fmt.Fprintf(w, "  %s\t%s\t-%d\t%s\n", r.Time, r.StudentName, r.Score, r.Reason)
	}
}
