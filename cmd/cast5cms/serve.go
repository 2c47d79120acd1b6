package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/cast5-cms/internal/api/server"
	"github.com/remiblancher/cast5-cms/internal/audit"
	"github.com/remiblancher/cast5-cms/pkg/provider"
)

// Serve command flags
var (
	serveConfigFile  string
	servePort        int
	serveHost        string
	serveTLSCert     string
	serveTLSKey      string
	serveMaxBody     int64
	servePrintConfig bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the REST API server.

Settings are layered: built-in defaults, then the --config YAML file, then
environment variables, then command-line flags.

Environment variables:
  CAST5CMS_HOST       Host to bind to
  CAST5CMS_PORT       Port
  CAST5CMS_TLS_CERT   TLS certificate file
  CAST5CMS_TLS_KEY    TLS private key file
  CAST5CMS_AUDIT_LOG  Audit log file

Config file:
  host: 127.0.0.1
  port: 8443
  tls_cert: server.crt
  tls_key: server.key
  audit_log: /var/log/cast5cms/audit.jsonl
  max_body_bytes: 1048576
  read_timeout: 30s
  shutdown_timeout: 10s

Examples:
  cast5cms serve --port 8080
  cast5cms serve --config server.yaml
  cast5cms serve --port 8443 --tls-cert server.crt --tls-key server.key`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigFile, "config", "", "Server config file (YAML)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port (default: 8080)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: all interfaces)")
	serveCmd.Flags().StringVar(&serveTLSCert, "tls-cert", "", "TLS certificate file")
	serveCmd.Flags().StringVar(&serveTLSKey, "tls-key", "", "TLS private key file")
	serveCmd.Flags().Int64Var(&serveMaxBody, "max-body", 0, "Maximum request body size in bytes")
	serveCmd.Flags().BoolVar(&servePrintConfig, "print-config", false, "Print the resolved configuration and exit")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveServeConfig(cmd, os.Getenv)
	if err != nil {
		return err
	}
	if err := cfg.HTTP.Validate(); err != nil {
		return err
	}

	if servePrintConfig {
		printServeConfig(cmd, cfg)
		return nil
	}

	// --audit-log and CAST5CMS_AUDIT_LOG already initialized auditing.
	if !audit.Enabled() && cfg.AuditLog != "" {
		if err := audit.InitFile(cfg.AuditLog); err != nil {
			return fmt.Errorf("failed to initialize audit log: %w", err)
		}
	}

	reg, err := provider.NewCAST5()
	if err != nil {
		return err
	}
	return server.New(cfg.HTTP, version, reg).Start(cmd.Context())
}

// resolveServeConfig layers defaults, config file, environment and flags.
func resolveServeConfig(cmd *cobra.Command, getenv func(string) string) (*server.Settings, error) {
	cfg := server.DefaultSettings()
	if serveConfigFile != "" {
		if err := cfg.LoadFile(serveConfigFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.HTTP.Host = serveHost
	}
	if flags.Changed("port") {
		cfg.HTTP.Port = servePort
	}
	if flags.Changed("tls-cert") {
		cfg.HTTP.TLSCert = serveTLSCert
	}
	if flags.Changed("tls-key") {
		cfg.HTTP.TLSKey = serveTLSKey
	}
	if flags.Changed("max-body") {
		cfg.HTTP.MaxBodyBytes = serveMaxBody
	}
	return cfg, nil
}

func printServeConfig(cmd *cobra.Command, cfg *server.Settings) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "address: %s\n", cfg.HTTP.Address())
	fmt.Fprintf(out, "tls: %t\n", cfg.HTTP.TLSEnabled())
	fmt.Fprintf(out, "max_body_bytes: %d\n", cfg.HTTP.MaxBodyBytes)
	fmt.Fprintf(out, "read_timeout: %s\n", cfg.HTTP.ReadTimeout)
	fmt.Fprintf(out, "write_timeout: %s\n", cfg.HTTP.WriteTimeout)
	fmt.Fprintf(out, "idle_timeout: %s\n", cfg.HTTP.IdleTimeout)
	fmt.Fprintf(out, "shutdown_timeout: %s\n", cfg.HTTP.ShutdownTimeout)
	if cfg.AuditLog != "" {
		fmt.Fprintf(out, "audit_log: %s\n", cfg.AuditLog)
	}
}
