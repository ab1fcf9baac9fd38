package main

import (
	"AgriVoice/pkg/command"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the active route table in match order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		matcher, err := loadMatcher()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PRIORITY\tPAGE\tPATH\tKEYWORDS")
		for _, r := range matcher.Routes() {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Priority, r.PageID, r.Path, strings.Join(r.Keywords, ", "))
		}
		return tw.Flush()
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <text>",
	Short: "Show which route a phrase selects",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matcher, err := loadMatcher()
		if err != nil {
			return err
		}

		match, ok := matcher.Match(strings.Join(args, " "))
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no match")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (keyword %q)\n", match.Route.PageID, match.Route.Path, match.Keyword)
		return nil
	},
}

func loadMatcher() (*command.Matcher, error) {
	routes := command.DefaultRoutes()
	if routesPath != "" {
		var err error
		if routes, err = command.LoadRoutesFile(routesPath); err != nil {
			return nil, err
		}
	}
	return command.NewMatcher(routes)
}
