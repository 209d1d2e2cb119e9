package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/eslens/internal/logger"
	"github.com/abhisek/eslens/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text for a student (reads stdin when no text is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")
		kind, _ := cmd.Flags().GetString("context")
		detect, _ := cmd.Flags().GetBool("detect")

		text := ""
		if len(args) == 1 {
			text = args[0]
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("no text to translate")
		}

		st, cfg, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		log := logger.New(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)
		p, err := buildPipeline(cmd.Context(), st, cfg, log)
		if err != nil {
			return err
		}

		if detect {
			fmt.Println(p.translator.DetectLanguage(cmd.Context(), text))
			return nil
		}

		if to == "" {
			to = cfg.Session.DefaultLanguage
		}
		res, err := p.translator.Translate(cmd.Context(), text, to, translate.ParseContext(kind))
		if err != nil {
			return err
		}
		if res.Degraded() {
			fmt.Fprintln(os.Stderr, "translation failed:", res.Error)
		}
		fmt.Println(res.Translated)
		return nil
	},
}

func init() {
	translateCmd.Flags().StringP("to", "t", "", "Target language (default session.default_language)")
	translateCmd.Flags().StringP("context", "c", string(translate.ContextGeneral), "homework, chat or general")
	translateCmd.Flags().Bool("detect", false, "Detect the language instead of translating")
}
