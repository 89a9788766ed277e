package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(proposeCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(signVoteCmd)
	rootCmd.AddCommand(relayVoteCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(actionCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(proposalCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(indexerCmd)
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
