package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"fwsync/reconcile"
)

var syncCmd = &cobra.Command{
	Use:   "sync [project] <cidr_file> <firewall_name>",
	Short: "Create or update the firewall rule from a CIDR file",
	Long: `Load IPv4 CIDR ranges from a file and apply them to the named firewall rule.
Lines that are not valid CIDRs are skipped. If the rule does not exist it is
created as an INGRESS rule denying all protocols; otherwise its source range
list is replaced as a whole.

The project may be given as the first argument, with --project, or in the
configuration file.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 3 {
			cfg.Project, args = args[0], args[1:]
		}
		project, err := requireProject()
		if err != nil {
			return err
		}
		cidrFile, firewallName := args[0], args[1]

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if wait, _ := cmd.Flags().GetBool("wait"); wait {
			cfg.Wait = true
		}
		if cmd.Flags().Changed("priority") {
			cfg.Priority, _ = cmd.Flags().GetInt64("priority")
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("description") {
			cfg.Description, _ = cmd.Flags().GetString("description")
		}

		ctx, cancel := runContext(cmd)
		defer cancel()

		var opts []reconcile.Option
		if dryRun {
			opts = append(opts, reconcile.WithDryRun(os.Stdout))
		}
		r, err := newReconciler(ctx, opts...)
		if err != nil {
			return err
		}

		res, err := r.Sync(ctx, project, cidrFile, firewallName)
		if err != nil {
			return err
		}
		if res.DryRun {
			info("%s\n", res)
			return nil
		}
		success("%s\n", res)
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("dry-run", false, "Print the payload instead of sending it")
	syncCmd.Flags().Bool("wait", false, "Wait for the compute operation to finish")
	syncCmd.Flags().Int64("priority", 0, "Priority of a newly created rule (default from configuration)")
	syncCmd.Flags().String("description", "", "Description of a newly created rule (default: the rule name)")
}
