package cmd

import (
	"context"
	"os"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"fwsync/config"
	"fwsync/gce"
	"fwsync/reconcile"
	"fwsync/rules"
)

// Initialize colored output
var (
	info     = color.New(color.FgBlue).PrintfFunc()
	success  = color.New(color.FgGreen).PrintfFunc()
	warn     = color.New(color.FgYellow).PrintfFunc()
	errPrint = color.New(color.FgRed).FprintfFunc()
)

var cfg *config.Config

var errProjectRequired = errors.New("a project is required: pass it as an argument, with --project, or in the configuration file")

var rootCmd = &cobra.Command{
	Use:   "fwsync",
	Short: "Keep a cloud firewall deny rule in sync with a CIDR file",
	Long: `fwsync reads a file of IPv4 CIDR ranges, one per line, and makes a
Compute Engine firewall rule deny ingress traffic from exactly those ranges.

If the rule does not exist it is created with a deny-all-protocols clause.
If it exists, only its source ranges are replaced; priority, description
and protocols are left as they are.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the command line and reports any error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		errPrint(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Path to YAML configuration file")
	flags.StringP("project", "p", "", "Cloud project ID (overrides the configuration file)")
	flags.String("credentials", "", "Service account key file (default: application default credentials)")
	flags.String("endpoint", "", "Override the compute API endpoint")
	flags.Bool("no-auth", false, "Send API requests without credentials (for emulators)")
	flags.Duration("timeout", 0, "Timeout for the whole run (default from configuration)")
	flags.Bool("debug", false, "Enable debug logging")

	// Add commands to root
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fetchCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	log.SetHandler(cli.New(os.Stderr))
	log.SetLevel(log.InfoLevel)
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		log.SetLevel(log.DebugLevel)
	}

	configFile, _ := cmd.Flags().GetString("config")
	c, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("project"); v != "" {
		c.Project = v
	}
	if v, _ := cmd.Flags().GetString("credentials"); v != "" {
		c.Credentials = v
	}
	if v, _ := cmd.Flags().GetString("endpoint"); v != "" {
		c.Endpoint = v
	}
	if v, _ := cmd.Flags().GetBool("no-auth"); v {
		c.NoAuth = true
	}
	if v, _ := cmd.Flags().GetDuration("timeout"); v > 0 {
		c.Timeout = v
	}
	cfg = c
	return nil
}

// runContext bounds a run by the configured timeout.
func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// newClient builds the compute client from the loaded configuration.
func newClient(ctx context.Context) (*gce.Client, error) {
	var opts []option.ClientOption
	switch {
	case cfg.NoAuth:
		opts = append(opts, option.WithoutAuthentication())
	case cfg.Credentials != "":
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := gce.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	client.Wait = cfg.Wait
	return client, nil
}

// newReconciler wires the builder and the compute client together.
func newReconciler(ctx context.Context, opts ...reconcile.Option) (*reconcile.Reconciler, error) {
	client, err := newClient(ctx)
	if err != nil {
		return nil, err
	}
	builder := rules.NewBuilder(cfg.Priority, cfg.Description)
	return reconcile.New(client, builder, opts...), nil
}

func requireProject() (string, error) {
	if cfg.Project == "" {
		return "", errProjectRequired
	}
	return cfg.Project, nil
}
