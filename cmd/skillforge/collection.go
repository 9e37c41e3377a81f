package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jingkaihe/skillforge/pkg/presenter"
	"github.com/jingkaihe/skillforge/pkg/skills"
	"github.com/spf13/cobra"
)

var collectionCmd = &cobra.Command{
	Use:     "collection",
	Aliases: []string{"collections"},
	Short:   "Manage skill collections",
	Long: `Collections group skills one level deep. A collection named docs is stored
as the directory docs__collection in the skills directory.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		store, err := openStore()
		exitOnError(err, "failed to open skill store")

		output, _ := cmd.Flags().GetString("output")
		exitOnError(runCollectionList(cmd.Context(), store, output, os.Stdout, presenter.New()), "failed to list collections")
	},
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty collection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		exitOnError(err, "failed to open skill store")

		exitOnError(runCollectionCreate(cmd.Context(), store, args[0], presenter.New()), "failed to create collection")
	},
}

var collectionRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an empty collection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openStore()
		exitOnError(err, "failed to open skill store")

		exitOnError(runCollectionRemove(cmd.Context(), store, args[0], presenter.New()), "failed to remove collection")
	},
}

func init() {
	collectionListCmd.Flags().StringP("output", "o", OutputTable, "Output format (table, json, yaml)")

	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCmd.AddCommand(collectionRemoveCmd)
}

// collectionSummary is a collection with the number of skills it holds
type collectionSummary struct {
	Name   string `json:"name" yaml:"name"`
	Skills int    `json:"skills" yaml:"skills"`
}

func runCollectionList(ctx context.Context, store *skills.Store, output string, w io.Writer, p presenter.Presenter) error {
	collections, err := store.ListCollections(ctx)
	if err != nil {
		return err
	}

	list, err := store.ListSkills(ctx)
	if err != nil {
		return err
	}
	counts := map[string]int{}
	for _, s := range list {
		if s.Collection != nil {
			counts[*s.Collection]++
		}
	}

	summaries := make([]collectionSummary, 0, len(collections))
	rows := make([][]string, 0, len(collections))
	for _, c := range collections {
		summaries = append(summaries, collectionSummary{Name: c.Name, Skills: counts[c.Name]})
		rows = append(rows, []string{c.Name, fmt.Sprint(counts[c.Name])})
	}

	return writeOutput(w, p, output, summaries, table{
		headers: []string{"NAME", "SKILLS"},
		rows:    rows,
	})
}

func runCollectionCreate(ctx context.Context, store *skills.Store, name string, p presenter.Presenter) error {
	if _, err := store.CreateCollection(ctx, name); err != nil {
		return err
	}
	p.Success(fmt.Sprintf("Created collection %s", name))
	return nil
}

func runCollectionRemove(ctx context.Context, store *skills.Store, name string, p presenter.Presenter) error {
	if err := store.DeleteCollection(ctx, name); err != nil {
		return err
	}
	p.Success(fmt.Sprintf("Removed collection %s", name))
	return nil
}
