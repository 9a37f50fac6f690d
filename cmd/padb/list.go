package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/padbhq/padb/internal/aidb"
)

func init() {
	contactsCmd := &cobra.Command{Use: "contacts", Short: "Contact operations"}
	var search, contactsOut string
	var contactsLimit int
	contactsList := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := connect()
			if err != nil {
				return err
			}
			if _, err := signedIn(cmd, env.Gate); err != nil {
				return err
			}
			contacts, err := env.Client.Contacts.List(cmd.Context(), aidb.ContactFilter{Search: search, Limit: contactsLimit})
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(contacts))
			for _, c := range contacts {
				rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.FullName(), c.Email, c.Company, c.Location})
			}
			return writeOutput(cmd.OutOrStdout(), contactsOut, contacts,
				[]string{"ID", "NAME", "EMAIL", "COMPANY", "LOCATION"}, rows)
		},
	}
	contactsList.Flags().StringVarP(&search, "search", "s", "", "filter by name, email or company")
	contactsList.Flags().IntVarP(&contactsLimit, "limit", "l", 100, "maximum contacts to return")
	contactsList.Flags().StringVarP(&contactsOut, "output", "o", "table", "output format: table, json or yaml")
	contactsCmd.AddCommand(contactsList)
	rootCmd.AddCommand(contactsCmd)

	eventsCmd := &cobra.Command{Use: "events", Short: "Event operations"}
	var status, eventsOut string
	var eventsLimit int
	eventsList := &cobra.Command{
		Use:   "list",
		Short: "List events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := connect()
			if err != nil {
				return err
			}
			if _, err := signedIn(cmd, env.Gate); err != nil {
				return err
			}
			events, err := env.Client.Events.List(cmd.Context(), aidb.EventFilter{Status: status, Limit: eventsLimit})
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(events))
			for _, e := range events {
				when := "-"
				if t := e.ParsedEventDate(); !t.IsZero() {
					when = t.Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10), e.Name, string(e.Status), when,
					strconv.Itoa(e.ParticipantCount), e.Location,
				})
			}
			return writeOutput(cmd.OutOrStdout(), eventsOut, events,
				[]string{"ID", "NAME", "STATUS", "DATE", "PARTICIPANTS", "LOCATION"}, rows)
		},
	}
	eventsList.Flags().StringVar(&status, "status", "", "planned, active, completed or cancelled")
	eventsList.Flags().IntVarP(&eventsLimit, "limit", "l", 100, "maximum events to return")
	eventsList.Flags().StringVarP(&eventsOut, "output", "o", "table", "output format: table, json or yaml")
	eventsCmd.AddCommand(eventsList)
	rootCmd.AddCommand(eventsCmd)

	var searchLimit int
	var keyword bool
	var searchOut string
	searchCmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search contacts in natural language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := connect()
			if err != nil {
				return err
			}
			if _, err := signedIn(cmd, env.Gate); err != nil {
				return err
			}
			res, err := env.Client.Query.Search(cmd.Context(), strings.Join(args, " "), searchLimit, !keyword)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(res.Results))
			for _, r := range res.Results {
				rows = append(rows, []string{
					strconv.FormatInt(r.Contact.ID, 10), fmt.Sprintf("%.2f", r.SimilarityScore),
					r.Contact.FullName(), r.Contact.Company, r.MatchReason,
				})
			}
			return writeOutput(cmd.OutOrStdout(), searchOut, res,
				[]string{"ID", "SCORE", "NAME", "COMPANY", "REASON"}, rows)
		},
	}
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "maximum results")
	searchCmd.Flags().BoolVar(&keyword, "keyword", false, "use keyword search instead of vector search")
	searchCmd.Flags().StringVarP(&searchOut, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(searchCmd)
}
