package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scholarkg/scholarkg/internal/query"
	"github.com/scholarkg/scholarkg/internal/rdf"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the built knowledge graph",
	Long: `Run read-only projections against a persisted knowledge graph.

All subcommands load the Turtle store from the configured path (override
with --store). Queries that match nothing print nothing and exit zero.`,
}

func init() {
	queryCmd.PersistentFlags().String("store", "", "path to the Turtle store (default from config)")

	queryCmd.AddCommand(&cobra.Command{
		Use:   "papers",
		Short: "List all papers",
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := loadIndex(cmd)
			if err != nil {
				return err
			}
			for _, p := range index.AllPapers() {
				fmt.Printf("%s\t%s\n", p.URI, p.Title)
			}
			return nil
		},
	})

	queryCmd.AddCommand(&cobra.Command{
		Use:   "topics",
		Short: "List papers grouped by topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := loadIndex(cmd)
			if err != nil {
				return err
			}
			for _, row := range index.PapersByTopic() {
				topic := "-"
				if row.TopicID != nil {
					topic = *row.TopicID
				}
				fmt.Printf("%s\t%s\t%s\n", topic, row.Paper, row.Title)
			}
			return nil
		},
	})

	queryCmd.AddCommand(&cobra.Command{
		Use:   "paper <id>",
		Short: "Show title and abstract for one paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := loadIndex(cmd)
			if err != nil {
				return err
			}
			details, ok := index.PaperDetails(rdf.PaperURI(args[0]))
			if !ok {
				fmt.Println("not found")
				return nil
			}
			fmt.Printf("Title: %s\nAbstract: %s\n", details.Title, details.Abstract)
			return nil
		},
	})

	queryCmd.AddCommand(&cobra.Command{
		Use:   "similar <id>",
		Short: "List papers similar to one paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := loadIndex(cmd)
			if err != nil {
				return err
			}
			for _, p := range index.SimilarPapers(rdf.PaperURI(args[0])) {
				fmt.Printf("%s\t%s\n", p.URI, p.Title)
			}
			return nil
		},
	})

	queryCmd.AddCommand(&cobra.Command{
		Use:   "orgs",
		Short: "List all acknowledged organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := loadIndex(cmd)
			if err != nil {
				return err
			}
			for _, org := range index.Organizations() {
				fmt.Printf("%s\t%s\n", org.URI, org.Name)
			}
			return nil
		},
	})

	queryCmd.AddCommand(&cobra.Command{
		Use:   "orgs-for <id>",
		Short: "List organizations acknowledged by one paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := loadIndex(cmd)
			if err != nil {
				return err
			}
			for _, org := range index.OrganizationsForPaper(rdf.PaperURI(args[0])) {
				fmt.Printf("%s\t%s\n", org.URI, org.Name)
			}
			return nil
		},
	})

	queryCmd.AddCommand(&cobra.Command{
		Use:   "people-for <id>",
		Short: "List people acknowledged by one paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := loadIndex(cmd)
			if err != nil {
				return err
			}
			for _, person := range index.PeopleForPaper(rdf.PaperURI(args[0])) {
				fmt.Printf("%s\t%s\n", person.URI, person.Name)
			}
			return nil
		},
	})
}

func loadIndex(cmd *cobra.Command) (*query.Index, error) {
	storePath, _ := cmd.Flags().GetString("store")
	if storePath == "" {
		storePath = cfg.Store.Path
	}
	index, err := query.Load(storePath)
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	return index, nil
}
