package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/eslens/internal/domain"
	"github.com/abhisek/eslens/internal/session"
	"github.com/abhisek/eslens/internal/translate"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and inspect tutoring sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		st, _, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		list, err := st.SessionRepo().ListSessions(context.Background(), limit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No sessions yet.")
			return nil
		}

		fmt.Printf("%-36s  %-16s  %-8s  %-12s  %-9s  %5s  %s\n",
			"ID", "Created", "Subject", "Language", "Status", "Msgs", "Homework")
		fmt.Println(strings.Repeat("─", 120))
		for _, s := range list {
			fmt.Printf("%-36s  %-16s  %-8s  %-12s  %-9s  %5d  %s\n",
				s.ID,
				s.CreatedAt.Local().Format("2006-01-02 15:04"),
				s.Subject,
				s.Language,
				s.Status,
				s.MessageCount,
				oneLine(s.ExtractedText, 30),
			)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session's homework and conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		ctx := context.Background()
		repo := st.SessionRepo()
		s, err := repo.GetSession(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if s == nil {
			return fmt.Errorf("session %s: %w", args[0], session.ErrSessionNotFound)
		}
		msgs, err := repo.GetHistory(ctx, s.ID, 0)
		if err != nil {
			return fmt.Errorf("get history: %w", err)
		}

		sep := strings.Repeat("─", 60)

		fmt.Printf("ID:         %s\n", s.ID)
		fmt.Printf("Created:    %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Subject:    %s\n", s.Subject())
		fmt.Printf("Difficulty: %s\n", s.Homework.Difficulty)
		fmt.Printf("Language:   %s\n", translate.DisplayName(s.Language))
		fmt.Printf("Status:     %s\n", s.Status)
		if s.ImageRef != "" {
			fmt.Printf("Image:      %s\n", s.ImageRef)
		}

		fmt.Println()
		fmt.Println(sep)
		fmt.Println("HOMEWORK")
		fmt.Println(sep)
		fmt.Println(s.Homework.ExtractedText)
		if s.TranslatedText != "" && s.TranslatedText != s.Homework.ExtractedText {
			fmt.Println(sep)
			fmt.Println("TRANSLATION")
			fmt.Println(sep)
			fmt.Println(s.TranslatedText)
		}

		fmt.Println(sep)
		fmt.Println("CONVERSATION")
		fmt.Println(sep)
		if len(msgs) == 0 {
			fmt.Println("(no messages)")
		}
		for _, m := range msgs {
			who := "Tutor"
			if m.Role == domain.RoleUser {
				who = "Student"
			}
			fmt.Printf("[%s] %s: %s\n", m.Timestamp.Local().Format("15:04:05"), who, m.Content)
		}
		return nil
	},
}

var sessionsCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark a session as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		ctx := context.Background()
		repo := st.SessionRepo()
		s, err := repo.GetSession(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if s == nil {
			return fmt.Errorf("session %s: %w", args[0], session.ErrSessionNotFound)
		}
		if err := repo.SetStatus(ctx, s.ID, domain.StatusCompleted); err != nil {
			return fmt.Errorf("complete session: %w", err)
		}
		fmt.Printf("Session %s completed.\n", s.ID)
		return nil
	},
}

// oneLine collapses whitespace and truncates to n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	sessionsListCmd.Flags().IntP("limit", "n", session.DefaultListLimit, "Number of sessions to show")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsCompleteCmd)
}
