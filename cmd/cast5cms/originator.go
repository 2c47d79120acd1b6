package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/remiblancher/cast5-cms/internal/audit"
	"github.com/remiblancher/cast5-cms/internal/config"
	"github.com/remiblancher/cast5-cms/pkg/cms"
)

var originatorCmd = &cobra.Command{
	Use:   "originator",
	Short: "CMS OriginatorInfo assembly (RFC 5652)",
	Long: `Assemble and inspect the OriginatorInfo structure of CMS EnvelopedData.

  OriginatorInfo ::= SEQUENCE {
    certs [0] IMPLICIT CertificateSet OPTIONAL,
    crls  [1] IMPLICIT RevocationInfoChoices OPTIONAL }

Certificates and CRLs are written in the order given. The certs field is
always emitted; the crls field is emitted only when CRLs are supplied,
and --empty-crls emits it with no members.

Examples:
  # From a profile
  cast5cms originator build --profile alice.yaml --out originator.der

  # From files
  cast5cms originator build --cert alice.pem --cert ca.pem --crl ca.crl --out originator.der

  # Inspect
  cast5cms originator info originator.der`,
}

var originatorBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble an OriginatorInfo",
	Long: `Assemble an OriginatorInfo from a YAML profile or from --cert/--crl files.

Profile format:
  name: alice
  certs:
    - alice.pem
  crls: []        # omit the key to leave the crls field absent

Relative profile paths are resolved against the profile's directory.`,
	Args: cobra.NoArgs,
	RunE: runOriginatorBuild,
}

var originatorInfoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Display an OriginatorInfo",
	Args:  cobra.ExactArgs(1),
	RunE:  runOriginatorInfo,
}

var (
	originatorProfile   string
	originatorCerts     []string
	originatorCRLs      []string
	originatorEmptyCRLs bool
	originatorOut       string
)

func init() {
	originatorBuildCmd.Flags().StringVar(&originatorProfile, "profile", "", "Originator profile (YAML)")
	originatorBuildCmd.Flags().StringArrayVar(&originatorCerts, "cert", nil, "Certificate file, PEM or DER (repeatable)")
	originatorBuildCmd.Flags().StringArrayVar(&originatorCRLs, "crl", nil, "CRL file, PEM or DER (repeatable)")
	originatorBuildCmd.Flags().BoolVar(&originatorEmptyCRLs, "empty-crls", false, "Emit an empty crls field when no --crl is given")
	originatorBuildCmd.Flags().StringVarP(&originatorOut, "out", "o", "", "Output file (default: hex on stdout)")

	originatorCmd.AddCommand(originatorBuildCmd)
	originatorCmd.AddCommand(originatorInfoCmd)
}

func runOriginatorBuild(cmd *cobra.Command, args []string) error {
	info, der, err := buildOriginator()
	certs, crls := 0, -1
	if info != nil {
		certs, crls = countOriginator(info)
	}
	if auditErr := audit.LogOriginatorAssembled(originatorOut, certs, crls, err == nil, reason(err)); err != nil || auditErr != nil {
		return auditError(err, auditErr)
	}

	if err := writeOutput(cmd.OutOrStdout(), originatorOut, der); err != nil {
		return err
	}
	if originatorOut != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "OriginatorInfo written to %s\n", originatorOut)
		return printOriginator(cmd.OutOrStdout(), info)
	}
	return nil
}

func buildOriginator() (*cms.OriginatorInformation, []byte, error) {
	gen, err := originatorGenerator()
	if err != nil {
		return nil, nil, err
	}
	info := gen.Generate()
	der, err := info.Marshal()
	if err != nil {
		return nil, nil, err
	}
	return info, der, nil
}

// originatorGenerator resolves the build flags into a generator.
func originatorGenerator() (*cms.OriginatorInfoGenerator, error) {
	if originatorProfile != "" {
		if len(originatorCerts) > 0 || len(originatorCRLs) > 0 || originatorEmptyCRLs {
			return nil, fmt.Errorf("--profile cannot be combined with --cert, --crl or --empty-crls")
		}
		p, err := config.LoadOriginatorProfile(originatorProfile)
		if err != nil {
			return nil, err
		}
		return p.Generator()
	}

	certs := cms.NewStore()
	for _, path := range originatorCerts {
		loaded, err := config.LoadCertificates(path)
		if err != nil {
			return nil, err
		}
		for _, c := range loaded {
			certs = append(certs, c)
		}
	}

	if len(originatorCRLs) == 0 && !originatorEmptyCRLs {
		return cms.NewOriginatorInfoGenerator(certs)
	}
	crls := cms.NewStore()
	for _, path := range originatorCRLs {
		loaded, err := config.LoadCRLs(path)
		if err != nil {
			return nil, err
		}
		for _, c := range loaded {
			crls = append(crls, c)
		}
	}
	return cms.NewOriginatorInfoGeneratorWithCRLs(certs, crls)
}

func runOriginatorInfo(cmd *cobra.Command, args []string) error {
	der, err := readInput(args[0], "")
	if err != nil {
		return err
	}
	info, err := cms.ParseOriginatorInformation(der)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OriginatorInfo: %s (%d bytes)\n", args[0], len(der))
	return printOriginator(cmd.OutOrStdout(), info)
}

// countOriginator returns the member counts; crls is -1 when absent.
func countOriginator(info *cms.OriginatorInformation) (certs, crls int) {
	i := info.Info()
	certs, crls = len(i.Certs), -1
	if info.HasCRLs() {
		crls = len(i.CRLs)
	}
	return certs, crls
}

func printOriginator(w io.Writer, info *cms.OriginatorInformation) error {
	certs, err := info.Certificates()
	if err != nil {
		return err
	}
	crls, err := info.CRLs()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "  Certificates: %d\n", len(certs))
	for i, c := range certs {
		fmt.Fprintf(w, "    [%d] %s (serial %s)\n", i, c.Subject, hex.EncodeToString(c.SerialNumber.Bytes()))
	}
	if !info.HasCRLs() {
		fmt.Fprintln(w, "  CRLs:         absent")
		return nil
	}
	fmt.Fprintf(w, "  CRLs:         %d\n", len(crls))
	for i, c := range crls {
		fmt.Fprintf(w, "    [%d] %s (%d revoked)\n", i, c.Issuer, len(c.RevokedCertificateEntries))
	}
	return nil
}
