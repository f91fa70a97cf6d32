package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client, err := jobs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &JobsCLI{client: client, inspector: asynq.NewInspector(opts)}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// TriggerOptions carries the parameters some jobs need.
type TriggerOptions struct {
	PeriodID  int64
	Retention time.Duration
	Actor     string
}

// BuildTask prepares the task for a job name.
func BuildTask(name string, opts TriggerOptions) (*asynq.Task, error) {
	switch name {
	case jobs.TaskGLIntegrity:
		return jobs.NewGLIntegrityTask(time.Now().UTC())
	case jobs.TaskReportExport:
		if opts.PeriodID <= 0 {
			return nil, errors.New("jobs cli: --period is required for report export")
		}
		return jobs.NewReportExportTask(opts.PeriodID, opts.Actor)
	case jobs.TaskIdempotencyCleanup:
		return jobs.NewIdempotencyCleanupTask(opts.Retention)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s (known: %s)", name, strings.Join(jobs.TaskTypes, ", "))
	}
}

// Trigger enqueues a supported job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string, opts TriggerOptions) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	task, err := BuildTask(name, opts)
	if err != nil {
		return nil, err
	}
	return c.client.Enqueue(ctx, task)
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := jobs.Inspect(c.inspector)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

var (
	triggerPeriod    int64
	triggerRetention time.Duration
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage background jobs",
}

var jobsTriggerCmd = &cobra.Command{
	Use:   "trigger <name>",
	Short: "Enqueue a job now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := BuildTask(args[0], TriggerOptions{PeriodID: triggerPeriod, Retention: triggerRetention, Actor: "ledgerctl"})
		if err != nil {
			return err
		}
		return enqueue(cmd, task)
	},
}

var jobsInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show queue statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := jobsCLI()
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		stats, err := c.InspectQueue(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "QUEUE\tPENDING\tACTIVE\tSCHEDULED\tRETRY\tARCHIVED")
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
		return tw.Flush()
	},
}

func jobsCLI() (*JobsCLI, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewJobsCLI(cfg.RedisAddr)
}

func enqueue(cmd *cobra.Command, task *asynq.Task) error {
	c, err := jobsCLI()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	info, err := c.client.Enqueue(cmd.Context(), task)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
	return nil
}

func enqueueExport(cmd *cobra.Command, periodID int64) error {
	task, err := BuildTask(jobs.TaskReportExport, TriggerOptions{PeriodID: periodID, Actor: "ledgerctl"})
	if err != nil {
		return err
	}
	return enqueue(cmd, task)
}

func init() {
	jobsTriggerCmd.Flags().Int64Var(&triggerPeriod, "period", 0, "Period id for ledger:report_export")
	jobsTriggerCmd.Flags().DurationVar(&triggerRetention, "retention", jobs.DefaultIdempotencyRetention, "Key retention for ledger:idempotency_cleanup")
	jobsCmd.AddCommand(jobsTriggerCmd, jobsInspectCmd)
	rootCmd.AddCommand(jobsCmd)
}
