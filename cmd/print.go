package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fwsync/reconcile"
)

var printCmd = &cobra.Command{
	Use:   "print <firewall_name>",
	Short: "Print the firewall rule as currently applied",
	Long: `Display the named firewall rule as the compute API reports it, including
direction, priority, description, denied protocols and source ranges.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := requireProject()
		if err != nil {
			return err
		}

		ctx, cancel := runContext(cmd)
		defer cancel()

		r, err := newReconciler(ctx)
		if err != nil {
			return err
		}
		rule, err := r.Find(ctx, project, args[0])
		if err != nil {
			return err
		}
		printRule(rule)
		return nil
	},
}

func printRule(rule *reconcile.Rule) {
	info("Firewall %s:\n", rule.Name)
	fmt.Printf("  Direction:   %s\n", rule.Direction)
	fmt.Printf("  Priority:    %d\n", rule.Priority)
	fmt.Printf("  Description: %s\n", rule.Description)

	protocols := make([]string, 0, len(rule.Denied))
	for _, d := range rule.Denied {
		if len(d.Ports) > 0 {
			protocols = append(protocols, d.IPProtocol+":"+strings.Join(d.Ports, ","))
			continue
		}
		protocols = append(protocols, d.IPProtocol)
	}
	fmt.Printf("  Denied:      %s\n", strings.Join(protocols, ", "))

	info("Source Ranges (%d):\n", len(rule.SourceRanges))
	for _, r := range rule.SourceRanges {
		fmt.Printf("  %s\n", r)
	}
}
