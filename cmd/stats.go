package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/eslens/internal/domain"
	"github.com/abhisek/eslens/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show session and message counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		st, _, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		stats, err := st.SessionRepo().UserStats(context.Background(), userID)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}

		fmt.Printf("Sessions:  %d\n", stats.TotalSessions)
		fmt.Printf("Messages:  %d\n", stats.TotalMessages)
		if len(stats.SubjectBreakdown) == 0 {
			return nil
		}

		subjects := make([]domain.Subject, 0, len(stats.SubjectBreakdown))
		for s := range stats.SubjectBreakdown {
			subjects = append(subjects, s)
		}
		sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })

		fmt.Println()
		fmt.Println("By Subject")
		fmt.Println(strings.Repeat("─", 24))
		for _, s := range subjects {
			fmt.Printf("%-12s  %10d\n", s, stats.SubjectBreakdown[s])
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().String("user", store.DefaultUserID, "User whose sessions to count")
}
