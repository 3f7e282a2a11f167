// Command survivorjob runs settlement, penalty and audit jobs against the
// configured storage without going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/survivor-league/internal/app"
	"github.com/riskibarqy/survivor-league/internal/config"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
	"github.com/riskibarqy/survivor-league/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const usage = `usage: survivorjob <command> [args]
commands:
  settle <league> <week>
  penalties <league> <week> [force]
  audit <league> [member]
  reconcile <league> confirm [member...]`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.NewConsole(cfg.LogLevel, os.Stderr)
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		stop()
		logger.Error("build app", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}

	runErr := run(ctx, container, os.Args[1:], os.Stdout, os.Stderr)
	if err := container.Close(); err != nil {
		logger.Warn("close storage", "error", err)
	}
	stop()
	if runErr != nil {
		logger.Error("job failed", "error", runErr)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(ctx context.Context, c *app.Container, args []string, out, summaryOut io.Writer) error {
	if len(args) < 2 {
		return fmt.Errorf("%w\n%s", usecase.ErrInvalidInput, usage)
	}

	command := strings.ToLower(strings.TrimSpace(args[0]))
	leagueID := strings.TrimSpace(args[1])
	rest := args[2:]

	switch command {
	case "settle":
		week, err := parseWeek(rest)
		if err != nil {
			return err
		}
		job := usecase.JobRun{Name: "settle-week", LeagueID: leagueID, Week: week}
		report, err := usecase.RunJob(ctx, c.JobRun, job, func(ctx context.Context) (usecase.SettlementReport, error) {
			return c.Settlement.SettleWeek(ctx, leagueID, week)
		})
		return emit(out, summaryOut, command, leagueID, report, err)
	case "penalties":
		week, err := parseWeek(rest)
		if err != nil {
			return err
		}
		force := len(rest) > 1 && strings.EqualFold(strings.TrimSpace(rest[1]), "force")
		job := usecase.JobRun{
			Name:     "missing-pick-penalties",
			LeagueID: leagueID,
			Week:     week,
			Payload:  map[string]any{"force": force},
		}
		report, err := usecase.RunJob(ctx, c.JobRun, job, func(ctx context.Context) (usecase.SettlementReport, error) {
			return c.Settlement.ApplyMissingPickPenalties(ctx, usecase.MissingPickInput{LeagueID: leagueID, Week: week, Force: force})
		})
		return emit(out, summaryOut, command, leagueID, report, err)
	case "audit":
		input := usecase.AuditInput{LeagueID: leagueID}
		if len(rest) > 0 {
			input.MemberID = strings.TrimSpace(rest[0])
		}
		job := usecase.JobRun{Name: "audit-league", LeagueID: leagueID}
		report, err := usecase.RunJob(ctx, c.JobRun, job, func(ctx context.Context) (usecase.AuditReport, error) {
			return c.Audit.AuditLeague(ctx, input)
		})
		return emit(out, summaryOut, command, leagueID, report, err)
	case "reconcile":
		input := usecase.CorrectionInput{LeagueID: leagueID}
		if len(rest) > 0 && strings.EqualFold(strings.TrimSpace(rest[0]), "confirm") {
			input.Confirm = true
			rest = rest[1:]
		}
		input.MemberIDs = rest
		job := usecase.JobRun{
			Name:     "apply-corrections",
			LeagueID: leagueID,
			Payload:  map[string]any{"member_ids": rest},
		}
		result, err := usecase.RunJob(ctx, c.JobRun, job, func(ctx context.Context) (usecase.CorrectionResult, error) {
			return c.Audit.ApplyCorrections(ctx, input)
		})
		return emit(out, summaryOut, command, leagueID, result, err)
	default:
		return fmt.Errorf("%w: unknown command %q\n%s", usecase.ErrInvalidInput, command, usage)
	}
}

func parseWeek(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: week is required\n%s", usecase.ErrInvalidInput, usage)
	}
	week, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || week < 1 {
		return 0, fmt.Errorf("%w: invalid week %q", usecase.ErrInvalidInput, args[0])
	}
	return week, nil
}

type summarizer interface {
	Summary() map[string]any
}

// emit writes the full result as JSON to out and a one-line key=value summary
// to summaryOut.
func emit(out, summaryOut io.Writer, command, leagueID string, result summarizer, runErr error) error {
	if runErr != nil {
		return runErr
	}

	body, err := sonic.ConfigStd.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if _, err := out.Write(append(body, '\n')); err != nil {
		return err
	}

	_, err = io.WriteString(summaryOut, summaryLine(command, leagueID, result.Summary()))
	return err
}

func summaryLine(command, leagueID string, summary map[string]any) string {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(command)
	_, _ = buf.WriteString(" league=")
	_, _ = buf.WriteString(leagueID)
	for _, k := range keys {
		_ = buf.WriteByte(' ')
		_, _ = buf.WriteString(k)
		_ = buf.WriteByte('=')
		_, _ = fmt.Fprint(buf, summary[k])
	}
	_ = buf.WriteByte('\n')

	return buf.String()
}
