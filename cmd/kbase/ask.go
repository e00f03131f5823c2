package main

import (
	"fmt"
	"os"
	"strings"

	"kbase/internal/channel"

	"github.com/spf13/cobra"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the knowledge base",
	Long: `Ask retrieves the chunks nearest to the question and has the configured
language model answer from them. Without arguments it starts an interactive
session where answers can be rated 1-5.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStack(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		a, fc, err := st.newAgent(cfg)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			cli := channel.NewCLI(a, fc, os.Stdin, os.Stdout)
			return cli.Run(cmd.Context())
		}

		query := strings.Join(args, " ")
		answer, err := a.Answer(cmd.Context(), query)
		if err != nil {
			return err
		}
		fmt.Println(answer)

		if fc != nil {
			if err := fc.Log(query, answer, nil); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to log feedback: %v\n", err)
			}
		}
		return nil
	},
}
