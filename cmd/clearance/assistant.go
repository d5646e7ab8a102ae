package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/assistant"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
	"github.com/spf13/cobra"
)

func (a *app) chatPage() *assistant.Page {
	uid := ""
	if u := a.session.Current(); u != nil {
		uid = u.UID
	}
	return assistant.NewPage(a.api, a.store, uid)
}

func (a *app) assistantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assistant",
		Aliases: []string{"ai"},
		Short:   "Chat with the AI customs assistant",
	}

	var file string
	ask := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question, optionally about a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			var attachment *assistant.Attachment
			if file != "" {
				f, err := readFile(file)
				if err != nil {
					return err
				}
				attachment = &assistant.Attachment{Name: f.Name, MediaType: f.MediaType, Content: f.Content}
			}
			page := a.chatPage()
			before := len(page.Messages())
			err := page.Send(cmd.Context(), strings.Join(args, " "), attachment)
			printMessages(cmd.OutOrStdout(), page.Messages()[before:])
			return err
		},
	}
	ask.Flags().StringVarP(&file, "file", "f", "", "Document to upload with the question")

	history := &cobra.Command{
		Use:   "history",
		Short: "Show the saved conversation",
		Run: func(cmd *cobra.Command, args []string) {
			msgs := a.chatPage().Messages()
			if len(msgs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No messages yet.")
				return
			}
			printMessages(cmd.OutOrStdout(), msgs)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.chatPage().Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Chat history cleared.")
			return nil
		},
	}

	cmd.AddCommand(ask, history, clearCmd)
	return cmd
}

func printMessages(out io.Writer, msgs []model.ChatMessage) {
	for _, m := range msgs {
		who := "You"
		if m.Type == model.MessageAI {
			who = "AI"
		}
		fmt.Fprintf(out, "%s: %s\n", who, m.Text)
		if m.FileName != "" {
			fmt.Fprintf(out, "    [attached %s]\n", m.FileName)
		}
		if m.Source != "" {
			fmt.Fprintf(out, "    (%s)\n", m.Source)
		}
	}
}
