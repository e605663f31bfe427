package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag  string
	userFlag string
	rootCmd  = &cobra.Command{
		Use:   "journalctl",
		Short: "CLI client for the journal service REST API",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if userFlag == "" {
				return fmt.Errorf("--user required")
			}
			return nil
		},
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Journal service base URL")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User ID (required)")
	rootCmd.PersistentFlags().StringVarP(&apiKey, "key", "k", os.Getenv("JOURNAL_API_KEY"), "API key, defaults to $JOURNAL_API_KEY")

	// submit
	var content string
	var mood int
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Write a journal entry and print the insight",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(apiFlag, userFlag, content, mood, os.Stdout)
		},
	}
	submitCmd.Flags().StringVarP(&content, "content", "c", "", "Entry text (required)")
	submitCmd.Flags().IntVarP(&mood, "mood", "m", 0, "Mood score 1-100")
	_ = submitCmd.MarkFlagRequired("content")
	rootCmd.AddCommand(submitCmd)

	// list
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(apiFlag, userFlag, limit, os.Stdout)
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to return")
	rootCmd.AddCommand(listCmd)

	// similar
	var query string
	var topK int
	var threshold float64
	similarCmd := &cobra.Command{
		Use:   "similar",
		Short: "Find entries similar to a text",
		RunE: func(cmd *cobra.Command, args []string) error {
			var t *float64
			if cmd.Flags().Changed("threshold") {
				t = &threshold
			}
			return runSimilar(apiFlag, userFlag, query, topK, t, os.Stdout)
		},
	}
	similarCmd.Flags().StringVarP(&query, "query", "q", "", "Query text (required)")
	similarCmd.Flags().IntVarP(&topK, "topk", "n", 5, "Number of entries to return")
	similarCmd.Flags().Float64VarP(&threshold, "threshold", "t", 0, "Minimum similarity (default: service default)")
	_ = similarCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(similarCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "history",
		Short: "Show mood history and trend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(apiFlag, userFlag, os.Stdout)
		},
	})

	// plan
	var planMood int
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Get an intervention plan for a mood score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(apiFlag, userFlag, planMood, os.Stdout)
		},
	}
	planCmd.Flags().IntVarP(&planMood, "mood", "m", 0, "Mood score 1-100 (required)")
	_ = planCmd.MarkFlagRequired("mood")
	rootCmd.AddCommand(planCmd)

	// check-in
	var ciMood int
	var note string
	checkInCmd := &cobra.Command{
		Use:   "check-in",
		Short: "Record a quick mood check-in without an entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckIn(apiFlag, userFlag, ciMood, note, os.Stdout)
		},
	}
	checkInCmd.Flags().IntVarP(&ciMood, "mood", "m", 0, "Mood score 1-100 (required)")
	checkInCmd.Flags().StringVar(&note, "note", "", "Optional note")
	_ = checkInCmd.MarkFlagRequired("mood")
	rootCmd.AddCommand(checkInCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
