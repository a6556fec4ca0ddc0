package cmd

import (
	"github.com/spf13/cobra"

	"fwsync/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a CIDR range list from IP2Location",
	Long: `Download an IP range list from the IP2Location download service and
write it to a local file that sync can read. Zip payloads are unpacked.

The download token can also be set with IP2LOCATION_TOKEN, in the
environment or in a .env file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if v, _ := cmd.Flags().GetString("token"); v != "" {
			cfg.Fetch.Token = v
		}
		if v, _ := cmd.Flags().GetString("database"); v != "" {
			cfg.Fetch.Database = v
		}
		if cmd.Flags().Changed("retries") {
			cfg.Fetch.Retries, _ = cmd.Flags().GetUint64("retries")
		}

		ctx, cancel := runContext(cmd)
		defer cancel()

		f := &fetch.Fetcher{
			URL:      cfg.Fetch.URL,
			Token:    cfg.Fetch.Token,
			Database: cfg.Fetch.Database,
			Retries:  cfg.Fetch.Retries,
		}
		res, err := f.Fetch(ctx, output)
		if err != nil {
			return err
		}
		if res.Member != "" {
			info("Extracted %s from archive\n", res.Member)
		}
		success("Wrote %d bytes with %d source range(s) to %s\n", res.Bytes, res.Ranges, res.Path)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringP("output", "o", "ranges.txt", "File to write the range list to")
	fetchCmd.Flags().String("token", "", "IP2Location download token")
	fetchCmd.Flags().String("database", "", "IP2Location database code")
	fetchCmd.Flags().Uint64("retries", 0, "Retries on transient download errors (default from configuration)")
}
