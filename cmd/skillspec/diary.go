package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/diary"
	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

var diaryCmd = &cobra.Command{
	Use:   "diary",
	Short: "Inspect recorded validation runs",
	Long: `Read the validation diary of the enclosing workspace.

Every validate run is recorded unless --no-diary is passed. Use the
subcommands to list runs, show one run, summarize a skill's history or
prune old entries.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// DiaryListConfig holds configuration for the diary list command
type DiaryListConfig struct {
	Skill      string
	Limit      int
	JSONOutput bool
}

// NewDiaryListConfig creates a new DiaryListConfig with default values
func NewDiaryListConfig() *DiaryListConfig {
	return &DiaryListConfig{
		Skill:      "",
		Limit:      20,
		JSONOutput: false,
	}
}

var diaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded validation runs, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getDiaryListConfigFromFlags(cmd)
		runDiaryListCommand(ctx, config)
	},
}

var diaryShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one recorded validation run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		jsonOutput, _ := cmd.Flags().GetBool("json")
		runDiaryShowCommand(ctx, args[0], jsonOutput)
	},
}

var diarySummaryCmd = &cobra.Command{
	Use:   "summary [skill-name]",
	Short: "Summarize the recorded runs of one skill",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		jsonOutput, _ := cmd.Flags().GetBool("json")
		runDiarySummaryCommand(ctx, args[0], jsonOutput)
	},
}

// DiaryPruneConfig holds configuration for the diary prune command
type DiaryPruneConfig struct {
	KeepDays int
}

// NewDiaryPruneConfig creates a new DiaryPruneConfig with default values
func NewDiaryPruneConfig() *DiaryPruneConfig {
	return &DiaryPruneConfig{
		KeepDays: 30,
	}
}

// Validate checks if the prune configuration is valid
func (c *DiaryPruneConfig) Validate() error {
	if c.KeepDays < 0 {
		return errors.Errorf("keep-days cannot be negative: %d", c.KeepDays)
	}
	return nil
}

var diaryPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than the retention window",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getDiaryPruneConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}
		runDiaryPruneCommand(ctx, config)
	},
}

func init() {
	listDefaults := NewDiaryListConfig()
	diaryListCmd.Flags().String("skill", listDefaults.Skill, "Only list runs of this skill")
	diaryListCmd.Flags().Int("limit", listDefaults.Limit, "Maximum number of runs to list (0 for all)")
	diaryListCmd.Flags().Bool("json", listDefaults.JSONOutput, "Output in JSON format")

	diaryShowCmd.Flags().Bool("json", false, "Output in JSON format")
	diarySummaryCmd.Flags().Bool("json", false, "Output in JSON format")

	pruneDefaults := NewDiaryPruneConfig()
	diaryPruneCmd.Flags().Int("keep-days", pruneDefaults.KeepDays, "Keep runs recorded within this many days")

	diaryCmd.AddCommand(diaryListCmd)
	diaryCmd.AddCommand(diaryShowCmd)
	diaryCmd.AddCommand(diarySummaryCmd)
	diaryCmd.AddCommand(diaryPruneCmd)
}

// getDiaryListConfigFromFlags extracts diary list configuration from command flags
func getDiaryListConfigFromFlags(cmd *cobra.Command) *DiaryListConfig {
	config := NewDiaryListConfig()

	if skill, err := cmd.Flags().GetString("skill"); err == nil {
		config.Skill = skill
	}
	if limit, err := cmd.Flags().GetInt("limit"); err == nil {
		config.Limit = limit
	}
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}

	return config
}

// getDiaryPruneConfigFromFlags extracts diary prune configuration from command flags
func getDiaryPruneConfigFromFlags(cmd *cobra.Command) *DiaryPruneConfig {
	config := NewDiaryPruneConfig()

	if keepDays, err := cmd.Flags().GetInt("keep-days"); err == nil {
		config.KeepDays = keepDays
	}

	return config
}

// openDiaryStore opens the workspace diary. A nil store with a nil error
// means no runs have been recorded yet.
func openDiaryStore(ctx context.Context) (*diary.Store, error) {
	ws, err := workspace.Find(".")
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(ws.DiaryPath()); err != nil {
		return nil, nil
	}
	return diary.Open(ctx, ws.DiaryPath())
}

func runDiaryListCommand(ctx context.Context, config *DiaryListConfig) {
	store, err := openDiaryStore(ctx)
	if err != nil {
		presenter.Error(err, "Failed to open validation diary")
		os.Exit(1)
	}
	if store == nil {
		presenter.Warning("No validation runs recorded yet")
		return
	}
	defer store.Close()

	entries, err := store.List(ctx, config.Skill, config.Limit)
	if err != nil {
		presenter.Error(err, "Failed to list validation runs")
		os.Exit(1)
	}

	if config.JSONOutput {
		if err := renderDiaryListJSON(os.Stdout, entries); err != nil {
			presenter.Error(err, "Failed to render run list")
			os.Exit(1)
		}
		return
	}

	if len(entries) == 0 {
		presenter.Info("No validation runs recorded")
		return
	}
	renderDiaryListTable(os.Stdout, entries)
}

type diaryListOutput struct {
	Runs []diary.Entry `json:"runs"`
}

func renderDiaryListJSON(w io.Writer, entries []diary.Entry) error {
	output := diaryListOutput{Runs: entries}
	if output.Runs == nil {
		output.Runs = []diary.Entry{}
	}
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal run list")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func renderDiaryListTable(w io.Writer, entries []diary.Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tSkill\tVersion\tMode\tVerdict\tErrors\tWarnings\tRecorded")
	fmt.Fprintln(tw, "--\t-----\t-------\t----\t-------\t------\t--------\t--------")

	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			entry.ID,
			entry.Skill,
			entry.Version,
			entry.Mode,
			entry.Verdict,
			entry.Errors,
			entry.Warnings,
			entry.CreatedAt.Format(time.RFC3339),
		)
	}

	tw.Flush()
}

func runDiaryShowCommand(ctx context.Context, runID string, jsonOutput bool) {
	store, err := openDiaryStore(ctx)
	if err != nil {
		presenter.Error(err, "Failed to open validation diary")
		os.Exit(1)
	}
	if store == nil {
		presenter.Error(errors.Errorf("no validation run with id %s", runID), "Run not found")
		os.Exit(1)
	}
	defer store.Close()

	entry, err := store.Get(ctx, runID)
	if err != nil {
		presenter.Error(err, "Failed to load validation run")
		os.Exit(1)
	}
	if entry == nil {
		presenter.Error(errors.Errorf("no validation run with id %s", runID), "Run not found")
		os.Exit(1)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to render run")
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	skillLabel := entry.Skill
	if entry.Version != "" {
		skillLabel = fmt.Sprintf("%s (%s)", entry.Skill, entry.Version)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run\t%s\n", entry.ID)
	fmt.Fprintf(tw, "Skill\t%s\n", skillLabel)
	if entry.Source != "" {
		fmt.Fprintf(tw, "Source\t%s\n", entry.Source)
	}
	fmt.Fprintf(tw, "Mode\t%s\n", entry.Mode)
	fmt.Fprintf(tw, "Verdict\t%s\n", entry.Verdict)
	fmt.Fprintf(tw, "Findings\t%d errors, %d warnings (%d blocking)\n", entry.Errors, entry.Warnings, entry.Blocking)
	fmt.Fprintf(tw, "Duration\t%dms\n", entry.DurationMS)
	fmt.Fprintf(tw, "Recorded\t%s\n", entry.CreatedAt.Format(time.RFC3339))
	tw.Flush()
}

func runDiarySummaryCommand(ctx context.Context, skillName string, jsonOutput bool) {
	store, err := openDiaryStore(ctx)
	if err != nil {
		presenter.Error(err, "Failed to open validation diary")
		os.Exit(1)
	}
	if store == nil {
		presenter.Warning("No validation runs recorded yet")
		return
	}
	defer store.Close()

	summary, err := store.Summarize(ctx, skillName)
	if err != nil {
		presenter.Error(err, "Failed to summarize validation runs")
		os.Exit(1)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to render summary")
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	if summary.Runs == 0 {
		presenter.Info(fmt.Sprintf("No recorded runs for %s", skillName))
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Skill\t%s\n", summary.Skill)
	fmt.Fprintf(tw, "Runs\t%d\n", summary.Runs)
	fmt.Fprintf(tw, "Passed\t%d\n", summary.Passed)
	fmt.Fprintf(tw, "Failed\t%d\n", summary.Failed)
	fmt.Fprintf(tw, "Last verdict\t%s\n", summary.LastVerdict)
	fmt.Fprintf(tw, "Last run\t%s\n", summary.LastRunAt.Format(time.RFC3339))
	tw.Flush()
}

func runDiaryPruneCommand(ctx context.Context, config *DiaryPruneConfig) {
	store, err := openDiaryStore(ctx)
	if err != nil {
		presenter.Error(err, "Failed to open validation diary")
		os.Exit(1)
	}
	if store == nil {
		presenter.Info("Nothing to prune")
		return
	}
	defer store.Close()

	cutoff := time.Now().AddDate(0, 0, -config.KeepDays)
	pruned, err := store.Prune(ctx, cutoff)
	if err != nil {
		presenter.Error(err, "Failed to prune validation runs")
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Removed %d runs recorded before %s", pruned, cutoff.Format(time.RFC3339)))
}
