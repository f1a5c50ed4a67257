package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cexll/modelbridge-go/pkg/agent"
	modelpkg "github.com/cexll/modelbridge-go/pkg/model"
	"github.com/cexll/modelbridge-go/pkg/transcript"
)

func newChatCmd(root *rootOptions) *cobra.Command {
	var system string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive conversation with streamed responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := root.buildModel(cmd.Context())
			if err != nil {
				return err
			}
			a, err := agent.New(agent.Config{Model: m, System: system})
			if err != nil {
				return err
			}

			cmd.Println("modelbridge chat (empty line or Ctrl-D to exit)")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				cmd.Print("> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					break
				}

				if err := streamTurn(cmd, a, line); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "system instructions for the conversation")
	return cmd
}

// streamTurn runs one turn and prints text incrementally. Streamed responses
// carry the cumulative text so far, so only the unseen suffix is printed.
func streamTurn(cmd *cobra.Command, a *agent.Agent, input string) error {
	var printed int
	_, err := a.RunStream(cmd.Context(), input, func(res modelpkg.StreamResult) error {
		resp, ok := res.Entry.(transcript.Response)
		if !ok {
			return nil
		}
		text := transcript.SegmentsText(resp.Segments)
		if len(text) > printed {
			cmd.Print(text[printed:])
			printed = len(text)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("turn failed: %w", err)
	}
	cmd.Println()
	return nil
}
