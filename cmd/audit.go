package cmd

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fwsync/reconcile"
	"fwsync/rules"
)

// printAuditResult reports the differences and returns an error on mismatch.
func printAuditResult(name string, result reconcile.AuditResult) error {
	if result.Match {
		fmt.Println(color.GreenString("Source ranges of %s match the file.", name))
		return nil
	}

	if len(result.Missing) > 0 {
		fmt.Println("Missing ranges (in file but not on the rule):")
		for _, r := range result.Missing {
			fmt.Printf("  - %s\n", color.RedString("%s", r))
		}
	}
	if len(result.Extra) > 0 {
		fmt.Println("Extra ranges (on the rule but not in file):")
		for _, r := range result.Extra {
			fmt.Printf("  + %s\n", color.GreenString("%s", r))
		}
	}
	return errors.Errorf("audit failed: %d missing, %d extra", len(result.Missing), len(result.Extra))
}

var auditCmd = &cobra.Command{
	Use:   "audit <cidr_file> <firewall_name>",
	Short: "Audit the applied source ranges against a CIDR file",
	Long: `Compare the source ranges of the named firewall rule with the valid
ranges of the file. Differences are reported and the command exits with an
error when the two disagree. Nothing is changed; run sync to apply the file.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := requireProject()
		if err != nil {
			return err
		}
		cidrFile, firewallName := args[0], args[1]

		want, err := rules.LoadSourceRanges(cidrFile)
		if err != nil {
			return err
		}

		ctx, cancel := runContext(cmd)
		defer cancel()

		r, err := newReconciler(ctx)
		if err != nil {
			return err
		}
		rule, err := r.Find(ctx, project, firewallName)
		if err != nil {
			return err
		}

		color.New(color.Bold).Printf("Audit result for %s (%d in file, %d applied):\n", firewallName, len(want), len(rule.SourceRanges))
		return printAuditResult(firewallName, reconcile.Audit(want, rule.SourceRanges))
	},
}
