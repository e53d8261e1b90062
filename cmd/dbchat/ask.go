package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/dbchat/chat"
	"github.com/tailored-agentic-units/dbchat/session"
)

func newAskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Chat with the database in the terminal",
		Long: `Starts an interactive chat. With a question argument, answers it once and exits.

Example:
  dbchat ask --db file:shop.db
  dbchat ask "How many orders last month?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			o, err := chat.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to create orchestrator: %w", err)
			}
			defer o.Close()

			if len(args) > 0 {
				reply, err := o.Ask(cmd.Context(), "", strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply.Answer)
				return nil
			}
			return runChat(cmd, o, cmd.InOrStdin())
		},
	}
}

var (
	userColor   = color.New(color.FgCyan, color.Bold)
	botColor    = color.New(color.FgGreen)
	noticeColor = color.New(color.FgRed)
)

// runChat reads questions line by line until EOF or "/quit".
func runChat(cmd *cobra.Command, o *chat.Orchestrator, in io.Reader) error {
	out := cmd.OutOrStdout()
	state := o.Store().GetOrCreate("")
	defer o.Store().End(state.ID())

	printExchange(out, state)

	scanner := bufio.NewScanner(in)
	for {
		userColor.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "/quit" {
			return nil
		}

		reply, err := o.Ask(cmd.Context(), state.ID(), question)
		switch {
		case errors.Is(err, chat.ErrInvalidInput):
			noticeColor.Fprintln(out, "Please type a question.")
		case errors.Is(err, chat.ErrRetrievalFailure):
			noticeColor.Fprintln(out, "Sorry, I could not fetch an answer from the database. Please try again.")
		case errors.Is(err, chat.ErrFormattingFailure):
			noticeColor.Fprintln(out, "Sorry, I found the data but could not phrase an answer. Please try again.")
		case err != nil:
			return err
		default:
			botColor.Fprintln(out, "bot> "+reply.Answer)
		}
	}
}

// printExchange shows the seeded greeting pair.
func printExchange(out io.Writer, state *session.State) {
	for _, ex := range state.Transcript() {
		userColor.Fprintln(out, "you> "+ex.Question)
		botColor.Fprintln(out, "bot> "+ex.Answer)
	}
}
