package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/mission-control/internal/chat"
	"github.com/sells-group/mission-control/internal/model"
	"github.com/sells-group/mission-control/pkg/llm"
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask Mission Control a question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}

		message := strings.Join(args, " ")

		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			trimmed := strings.TrimSpace(message)
			if trimmed == "" {
				return &chat.Error{Kind: chat.KindValidation, Message: chat.MissingMessage}
			}
			return printParams(cmd.OutOrStdout(), env.Chat.Params(trimmed))
		}

		resp, err := env.Chat.Handle(ctx, model.ChatRequest{Message: message})
		if err != nil {
			return err
		}
		formatChatResponse(cmd.OutOrStdout(), resp)
		return nil
	},
}

func init() {
	askCmd.Flags().Bool("dry-run", false, "print the assembled model call without sending it")
	rootCmd.AddCommand(askCmd)
}

// callPreview is the printable form of an assembled model call.
type callPreview struct {
	Model           string        `json:"model"`
	System          string        `json:"system"`
	MaxOutputTokens int           `json:"maxOutputTokens"`
	Sampling        *llm.Sampling `json:"sampling"`
	UserTurn        string        `json:"userTurn"`
}

func printParams(w io.Writer, req llm.Request) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(callPreview{
		Model:           req.Model,
		System:          req.System,
		MaxOutputTokens: req.MaxOutputTokens,
		Sampling:        req.Sampling,
		UserTurn:        req.UserTurn(),
	})
}

func formatChatResponse(w io.Writer, resp *model.ChatResponse) {
	fmt.Fprintln(w, resp.Reply)
	if len(resp.Recommendations) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recommended clubs:")
	for i, c := range resp.Recommendations {
		if c.Category != "" {
			fmt.Fprintf(w, "  %d. %s (%s)\n", i+1, c.Name, c.Category)
			continue
		}
		fmt.Fprintf(w, "  %d. %s\n", i+1, c.Name)
	}
}
