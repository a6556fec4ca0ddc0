package cmd

import (
	"os"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"fwsync/rules"
)

var checkCmd = &cobra.Command{
	Use:   "check <cidr_file>",
	Short: "Validate a CIDR file without contacting the cloud API",
	Long: `Read a CIDR file the same way sync does and report which lines would be
applied and which would be skipped, with the reason each skipped line was
rejected. Fails if no line is usable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")

		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "failed to open CIDR source file")
		}
		defer f.Close()

		scan, err := rules.ScanSourceRanges(f)
		if err != nil {
			return errors.Wrapf(err, "failed to read CIDR source file %s", args[0])
		}

		if !quiet {
			for _, r := range scan.Rejected {
				if r.Text == "" {
					continue
				}
				warn("  line %d: %v\n", r.Line, r.Err)
			}
		}
		info("%d valid range(s), %d skipped line(s)\n", len(scan.Ranges), len(scan.Rejected))

		if len(scan.Ranges) == 0 {
			return rules.ErrEmptySourceRanges
		}
		success("%s is ready to sync\n", args[0])
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolP("quiet", "q", false, "Do not list skipped lines")
}
