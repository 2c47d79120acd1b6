// Command cast5cms generates and converts CAST5 algorithm parameters,
// assembles CMS OriginatorInfo structures and wraps content in CAST5-CBC
// EnvelopedData.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/cast5-cms/internal/api/server"
	"github.com/remiblancher/cast5-cms/internal/audit"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var auditLogPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cast5cms",
	Short: "CAST5 parameters and CMS OriginatorInfo toolkit",
	Long: `cast5cms handles CAST5-CBC algorithm parameters (RFC 2144, RFC 2984) and the
OriginatorInfo structure of CMS EnvelopedData (RFC 5652).

Examples:
  # Generate parameters with a random IV
  cast5cms params gen --out params.der

  # Re-encode parameters as a bare IV
  cast5cms params convert --in params.der --to RAW --out iv.bin

  # Assemble an OriginatorInfo from a profile
  cast5cms originator build --profile alice.yaml --out originator.der

  # Encrypt a file
  cast5cms envelope seal --key-file cek.hex --in data.txt --out data.p7m

  # Run the REST API
  cast5cms serve --port 8080`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if auditLogPath == "" {
			auditLogPath = os.Getenv(server.EnvPrefix + "AUDIT_LOG")
		}

		if auditLogPath != "" {
			if err := audit.InitFile(auditLogPath); err != nil {
				return fmt.Errorf("failed to initialize audit log: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return audit.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set "+server.EnvPrefix+"AUDIT_LOG env var)")

	rootCmd.AddCommand(paramsCmd)     // cast5cms params ...
	rootCmd.AddCommand(originatorCmd) // cast5cms originator ...
	rootCmd.AddCommand(envelopeCmd)   // cast5cms envelope ...
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(serveCmd)
}
