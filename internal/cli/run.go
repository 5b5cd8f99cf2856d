package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/avolkov/tunegrab/internal/config"
	"github.com/avolkov/tunegrab/internal/pipeline"
	"github.com/avolkov/tunegrab/internal/session"
	"github.com/avolkov/tunegrab/internal/usecase"
)

// cliChat is the chat id the console messenger delivers to. One CLI run is
// one chat and one user.
const cliChat int64 = 1

func buildApp(cmd *cobra.Command) (*pipeline.App, error) {
	cfg := config.FromEnv()
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.OutDir = out
	}
	if wd, _ := cmd.Flags().GetString("workdir"); wd != "" {
		cfg.WorkDir = wd
	}
	return pipeline.New(cfg, cmd.OutOrStdout())
}

// reportStatus renders a pipeline error for the user and keeps the raw error
// for the process exit path.
func reportStatus(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), usecase.StatusMessage(err))
	return err
}

func runFetch(cmd *cobra.Command, url string) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Hour)
	defer cancel()
	return reportStatus(cmd, app.Usecase.FetchAudio(ctx, cliChat, url))
}

func runSearch(cmd *cobra.Command, args []string) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Hour)
	defer cancel()
	return reportStatus(cmd, app.Usecase.SearchAndFetch(ctx, cliChat, strings.Join(args, " ")))
}

func runConvert(cmd *cobra.Command, input string) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Hour)
	defer cancel()
	return reportStatus(cmd, app.Usecase.ConvertVideo(ctx, cliChat, input))
}

func runMerge(cmd *cobra.Command, inputs []string) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		n := app.Usecase.EnqueueAudio(cliChat, abs)
		fmt.Fprintf(cmd.OutOrStdout(), "queued %s (%d)\n", in, n)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Hour)
	defer cancel()
	return reportStatus(cmd, app.Usecase.Merge(ctx, cliChat, cliChat))
}

func runTranscribe(cmd *cobra.Command, input string) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()
	return reportStatus(cmd, app.Usecase.Transcribe(ctx, cliChat, input))
}

func runShortVideo(cmd *cobra.Command, url string) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
	defer cancel()
	return reportStatus(cmd, app.Usecase.FetchShortVideo(ctx, cliChat, url))
}

// runCut drives the trim session over stdin: the same state machine the chat
// keyboard drives, with typed tokens instead of button presses.
func runCut(cmd *cobra.Command, input string) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Hour)
	defer cancel()

	abs, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	dur, err := app.Transcoder.ProbeDuration(ctx, abs)
	if err != nil {
		return reportStatus(cmd, err)
	}

	out := cmd.OutOrStdout()
	outcome := app.Sessions.Begin(cliChat, abs, int(dur/time.Second))
	printOutcome(out, outcome)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		if token == "" {
			continue
		}
		outcome, err = app.Sessions.Apply(ctx, cliChat, readEvent(outcome.State, token))
		if err != nil {
			if errors.Is(err, context.Canceled) || outcome.State == session.StateCancelled || outcome.State == session.StateCompleted {
				return reportStatus(cmd, err)
			}
			// Recoverable rejection, the session keeps waiting.
			fmt.Fprintln(out, usecase.StatusMessage(err))
			continue
		}
		printOutcome(out, outcome)
		if outcome.State == session.StateCompleted || outcome.State == session.StateCancelled {
			return nil
		}
	}
	return scanner.Err()
}

// readEvent maps a typed token onto the event the chat keyboard would have
// produced in the current state.
func readEvent(state session.State, token string) session.Event {
	switch token {
	case "done":
		return session.Event{Kind: session.EventConfirm}
	case "cancel":
		return session.Event{Kind: session.EventCancel}
	}
	if state == session.StateAwaitingStart {
		return session.Event{Kind: session.EventSelectStart, Token: token}
	}
	return session.Event{Kind: session.EventSelectEnd, Token: token}
}

func printOutcome(out io.Writer, o session.Outcome) {
	if o.Notice != "" {
		fmt.Fprintln(out, o.Notice)
	}
	if len(o.Candidates) == 0 {
		return
	}
	var labels []string
	for _, c := range o.Candidates {
		labels = append(labels, c.Label)
	}
	fmt.Fprintf(out, "choices: %s (or type a time, `done`, `cancel`)\n", strings.Join(labels, " "))
}
