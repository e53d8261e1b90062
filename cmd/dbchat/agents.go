package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/dbchat/chat"
)

func newAgentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the configured agents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			reg, err := chat.NewAgentRegistry(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			bold := color.New(color.Bold)
			fmt.Fprintln(w, bold.Sprint("NAME")+"\t"+bold.Sprint("PROVIDER")+"\t"+bold.Sprint("MODEL"))
			for _, info := range reg.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", color.CyanString(info.Name), info.Provider, info.Model)
			}
			return w.Flush()
		},
	}
}
