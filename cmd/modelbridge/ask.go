package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cexll/modelbridge-go/pkg/transcript"
)

func newAskCmd(root *rootOptions) *cobra.Command {
	var schemaPath string
	var system string

	cmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Send a one-shot prompt and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := root.buildModel(cmd.Context())
			if err != nil {
				return err
			}

			prompt := transcript.TextPrompt(strings.Join(args, " "))
			if schemaPath != "" {
				raw, err := os.ReadFile(schemaPath)
				if err != nil {
					return fmt.Errorf("read schema: %w", err)
				}
				prompt.OutputSchema = raw
			}

			t := transcript.New()
			if system != "" {
				if err := t.Append(transcript.Instructions{
					Segments: []transcript.Segment{transcript.TextSegment{Text: system}},
				}); err != nil {
					return err
				}
			}
			if err := t.Append(prompt); err != nil {
				return err
			}

			entries, err := m.Generate(cmd.Context(), t)
			if err != nil {
				return err
			}
			return printEntries(cmd, entries)
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "JSON schema file guiding structured output")
	cmd.Flags().StringVar(&system, "system", "", "system instructions for the turn")
	return cmd
}

func printEntries(cmd *cobra.Command, entries []transcript.Entry) error {
	for _, entry := range entries {
		switch e := entry.(type) {
		case transcript.Response:
			for _, seg := range e.Segments {
				switch s := seg.(type) {
				case transcript.TextSegment:
					cmd.Println(s.Text)
				case transcript.DataSegment:
					pretty, err := json.MarshalIndent(s.Value, "", "  ")
					if err != nil {
						return err
					}
					cmd.Println(string(pretty))
				}
			}
		case transcript.ToolCalls:
			for _, call := range e.Calls {
				args, _ := json.Marshal(call.Arguments)
				cmd.Printf("[tool call] %s %s\n", call.Name, args)
			}
		}
	}
	return nil
}
