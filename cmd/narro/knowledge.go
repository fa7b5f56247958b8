package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternarybob/narro/internal/models"
	"github.com/ternarybob/narro/internal/services/knowledge"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the expert knowledge used to guide and judge reports",
}

var knowledgeAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a knowledge entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runKnowledgeAdd,
}

var knowledgeSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Show the entries a run with this question would retrieve",
	Args:  cobra.ExactArgs(1),
	RunE:  runKnowledgeSearch,
}

var knowledgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every knowledge entry",
	RunE:  runKnowledgeList,
}

var knowledgeTags []string

func init() {
	knowledgeAddCmd.Flags().StringSliceVar(&knowledgeTags, "tags", nil, "Comma-separated tags")
	knowledgeCmd.AddCommand(knowledgeAddCmd, knowledgeSearchCmd, knowledgeListCmd)
}

func runKnowledgeAdd(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	entry, err := knowledge.Add(cmd.Context(), application.StorageManager.KnowledgeStorage(), args[0], knowledgeTags)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", entry.ID)
	return nil
}

func runKnowledgeSearch(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	entries, err := application.KnowledgeService.Search(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printEntries(cmd, entries)
	return nil
}

func runKnowledgeList(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	entries, err := application.StorageManager.KnowledgeStorage().ListKnowledge(cmd.Context())
	if err != nil {
		return err
	}
	printEntries(cmd, entries)
	return nil
}

func printEntries(cmd *cobra.Command, entries []models.KnowledgeEntry) {
	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No knowledge entries")
		return
	}
	for _, entry := range entries {
		fmt.Fprintf(w, "%s [%s]\n  %s\n", entry.ID, strings.Join(entry.Tags, ", "), entry.Text)
	}
}
