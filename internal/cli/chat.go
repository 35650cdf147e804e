package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routerllm/routerllm-tui/internal/services/chat"
)

func newChatCmd(opts *options) *cobra.Command {
	var forceModel string

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message through the router",
		Long: `Send one message through the router and print the reply with the
model used, its cost, response time and token count.

Examples:
  routerllm chat "Explain TCP slow start"
  routerllm chat --model gpt-4o-mini "Write a haiku about Go"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient(opts)
			if err != nil {
				return err
			}

			session := chat.NewSession()
			result, err := session.Send(cmd.Context(), client, strings.Join(args, " "), forceModel)
			if err != nil {
				return fmt.Errorf("chat failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Response)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%s %s · $%.6f · %.2fs · %d tokens\n",
				chat.ProviderIcon(chat.ProviderForModel(result.ModelUsed)),
				result.ModelUsed, result.CostEstimate, result.ResponseTime, result.TokensUsed)
			if result.Reasoning != "" {
				fmt.Fprintf(out, "Reasoning: %s\n", result.Reasoning)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&forceModel, "model", "m", "", "force a specific model instead of letting the router choose")

	return cmd
}
