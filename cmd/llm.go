package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/eslens/internal/llm"
	"github.com/abhisek/eslens/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model calls",
	Long: "Every extraction, translation and tutor call is recorded with its prompt, " +
		"output, token counts and latency. These commands read that log back.",
}

var llmEventsCmd = &cobra.Command{
	Use:     "events",
	Aliases: []string{"list"},
	Short:   "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		failedOnly, _ := cmd.Flags().GetBool("failed")
		since, _ := cmd.Flags().GetDuration("since")
		rawPurpose, _ := cmd.Flags().GetString("purpose")

		purpose, err := parsePurpose(rawPurpose)
		if err != nil {
			return err
		}
		opts := store.QueryOpts{Limit: limit, Purpose: purpose}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		// Failures are filtered after the query, so fetch without a cap.
		if failedOnly {
			opts.Limit = 0
		}

		st, _, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		events, err := st.EventRepo().QueryLLMEvents(context.Background(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if failedOnly {
			events = slices.DeleteFunc(events, func(e store.LLMEvent) bool { return e.Success })
			if limit > 0 && len(events) > limit {
				events = events[:limit]
			}
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No model calls recorded.")
			return nil
		}
		printEvents(out, events)
		return nil
	},
}

var llmShowCmd = &cobra.Command{
	Use:     "show <id>",
	Aliases: []string{"view"},
	Short:   "Print the full prompt and output of one call",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		st, _, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		e, err := st.EventRepo().GetLLMEvent(context.Background(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}
		printEvent(cmd.OutOrStdout(), e)
		return nil
	},
}

var llmUsageCmd = &cobra.Command{
	Use:     "usage",
	Aliases: []string{"stats"},
	Short:   "Summarise token usage per pipeline stage and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		ctx := context.Background()
		repo := st.EventRepo()
		byPurpose, err := repo.LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(byPurpose) == 0 {
			fmt.Fprintln(out, "No model usage recorded yet.")
			return nil
		}
		byModel, err := repo.LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		printStageUsage(out, byPurpose)
		fmt.Fprintln(out)
		printModelCost(out, byModel)
		return nil
	},
}

// parsePurpose accepts the empty string (no filter) or a known stage.
func parsePurpose(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	for _, p := range llm.Purposes() {
		if string(p) == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown purpose %q (want one of %s)", s, purposeList())
}

func purposeList() string {
	names := make([]string, 0, len(llm.Purposes()))
	for _, p := range llm.Purposes() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func printEvents(w io.Writer, events []store.LLMEvent) {
	fmt.Fprintf(w, "%-5s  %-19s  %-15s  %-26s  %6s  %6s  %7s  %s\n",
		"ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
	fmt.Fprintln(w, strings.Repeat("─", 100))
	for _, e := range events {
		status := "✓"
		if !e.Success {
			status = "✗ " + oneLine(e.ErrorMessage, 40)
		}
		fmt.Fprintf(w, "%-5d  %-19s  %-15s  %-26s  %6d  %6d  %7d  %s\n",
			e.ID,
			e.Timestamp.Local().Format(time.DateTime),
			e.Purpose,
			truncate(e.Model, 26),
			e.InputTokens,
			e.OutputTokens,
			e.LatencyMs,
			status,
		)
	}
}

func printEvent(w io.Writer, e *store.LLMEvent) {
	fields := [][2]string{
		{"ID", strconv.Itoa(e.ID)},
		{"Time", e.Timestamp.Local().Format(time.DateTime)},
		{"Provider", e.Provider},
		{"Model", e.Model},
		{"Purpose", e.Purpose},
		{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
		{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
		{"Success", strconv.FormatBool(e.Success)},
	}
	if e.ErrorMessage != "" {
		fields = append(fields, [2]string{"Error", e.ErrorMessage})
	}
	for _, f := range fields {
		fmt.Fprintf(w, "%-9s  %s\n", f[0]+":", f[1])
	}

	for _, section := range []struct{ title, body string }{
		{"REQUEST", e.RequestBody},
		{"RESPONSE", e.ResponseBody},
	} {
		fmt.Fprintf(w, "\n── %s %s\n", section.title, strings.Repeat("─", 56-len(section.title)))
		if section.body == "" {
			fmt.Fprintln(w, "(not captured)")
			continue
		}
		fmt.Fprintln(w, strings.TrimRight(section.body, "\n"))
	}
}

// printStageUsage lists stages in pipeline order, then anything unlabelled.
func printStageUsage(w io.Writer, usage []store.LLMUsage) {
	order := func(purpose string) int {
		if i := slices.Index(llm.Purposes(), llm.Purpose(purpose)); i >= 0 {
			return i
		}
		return len(llm.Purposes())
	}
	usage = slices.Clone(usage)
	slices.SortStableFunc(usage, func(a, b store.LLMUsage) int { return order(a.Purpose) - order(b.Purpose) })

	rule := strings.Repeat("─", 72)
	fmt.Fprintln(w, "Usage by stage")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-16s  %6s  %10s  %10s  %10s  %8s\n", "Stage", "Calls", "Input", "Output", "Total", "Avg ms")
	fmt.Fprintln(w, rule)

	var calls, in, outTok int
	for _, u := range usage {
		fmt.Fprintf(w, "%-16s  %6d  %10d  %10d  %10d  %8d\n",
			u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.InputTokens+u.OutputTokens, u.AvgLatencyMs)
		calls += u.Calls
		in += u.InputTokens
		outTok += u.OutputTokens
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-16s  %6d  %10d  %10d  %10d\n", "TOTAL", calls, in, outTok, in+outTok)
}

func printModelCost(w io.Writer, usage []store.LLMUsage) {
	if len(usage) == 0 {
		return
	}
	rule := strings.Repeat("─", 72)
	fmt.Fprintln(w, "Estimated cost (USD)")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-32s  %6s  %10s  %10s  %8s\n", "Model", "Calls", "Input", "Output", "Cost")
	fmt.Fprintln(w, rule)

	var total float64
	var unpriced []string
	for _, u := range usage {
		cost := "?"
		if price, ok := llm.PriceFor(u.Model); ok {
			c := price.Estimate(u.InputTokens, u.OutputTokens)
			total += c
			cost = formatCost(c)
		} else {
			unpriced = append(unpriced, u.Model)
		}
		fmt.Fprintf(w, "%-32s  %6d  %10d  %10d  %8s\n", truncate(u.Model, 32), u.Calls, u.InputTokens, u.OutputTokens, cost)
	}
	fmt.Fprintln(w, rule)

	label := "TOTAL"
	if len(unpriced) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Fprintf(w, "%-32s  %6s  %10s  %10s  %8s\n", label, "", "", "", formatCost(total))
	if len(unpriced) > 0 {
		fmt.Fprintf(w, "\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmEventsCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmEventsCmd.Flags().StringP("purpose", "p", "", "Only show one stage ("+purposeList()+")")
	llmEventsCmd.Flags().Bool("failed", false, "Only show failed calls")
	llmEventsCmd.Flags().Duration("since", 0, "Only show calls newer than this, e.g. 2h")

	llmCmd.AddCommand(llmEventsCmd, llmShowCmd, llmUsageCmd)
}
