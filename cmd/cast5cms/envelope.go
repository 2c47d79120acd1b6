package main

import (
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/cast5-cms/internal/audit"
	"github.com/remiblancher/cast5-cms/internal/config"
	"github.com/remiblancher/cast5-cms/pkg/cast5"
	"github.com/remiblancher/cast5-cms/pkg/cms"
)

// pemTypeCMS is the PEM label accepted for EnvelopedData input.
const pemTypeCMS = "CMS"

var envelopeCmd = &cobra.Command{
	Use:   "envelope",
	Short: "CAST5-CBC EnvelopedData (RFC 5652, RFC 2984)",
	Long: `Encrypt and decrypt content with CAST5-CBC inside CMS EnvelopedData.

The content-encryption key is supplied directly; key transport to
recipients is not performed. Pre-encoded RecipientInfo values can be
attached with --recipient-info.

Examples:
  # Encrypt with an originator profile
  cast5cms envelope seal --key-file cek.hex --originator alice.yaml --in data.txt --out data.p7m

  # Decrypt
  cast5cms envelope open --key-file cek.hex --in data.p7m --out data.txt

  # Inspect
  cast5cms envelope info data.p7m`,
}

var envelopeSealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Encrypt content into EnvelopedData",
	Args:  cobra.NoArgs,
	RunE:  runEnvelopeSeal,
}

var envelopeOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Decrypt EnvelopedData content",
	Args:  cobra.NoArgs,
	RunE:  runEnvelopeOpen,
}

var envelopeInfoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Display EnvelopedData structure",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvelopeInfo,
}

var (
	envelopeIn             string
	envelopeOut            string
	envelopeKey            string
	envelopeKeyFile        string
	envelopeIV             string
	envelopeOriginator     string
	envelopeOriginatorCert string
	envelopeRecipientInfos []string
)

func init() {
	for _, c := range []*cobra.Command{envelopeSealCmd, envelopeOpenCmd} {
		c.Flags().StringVarP(&envelopeIn, "in", "i", "", "Input file (required)")
		c.Flags().StringVarP(&envelopeOut, "out", "o", "", "Output file (required)")
		c.Flags().StringVar(&envelopeKey, "key", "", "Content-encryption key as hex")
		c.Flags().StringVar(&envelopeKeyFile, "key-file", "", "File holding the key as hex or raw bytes")
		_ = c.MarkFlagRequired("in")
		_ = c.MarkFlagRequired("out")
	}

	envelopeSealCmd.Flags().StringVar(&envelopeIV, "iv", "", "IV as hex (default: random)")
	envelopeSealCmd.Flags().StringVar(&envelopeOriginator, "originator", "", "Originator profile (YAML)")
	envelopeSealCmd.Flags().StringVar(&envelopeOriginatorCert, "originator-cert", "", "Single originator certificate, without CRLs")
	envelopeSealCmd.Flags().StringArrayVar(&envelopeRecipientInfos, "recipient-info", nil, "DER RecipientInfo file (repeatable)")

	envelopeCmd.AddCommand(envelopeSealCmd)
	envelopeCmd.AddCommand(envelopeOpenCmd)
	envelopeCmd.AddCommand(envelopeInfoCmd)
}

func runEnvelopeSeal(cmd *cobra.Command, args []string) error {
	version, err := sealEnvelope(cmd)
	if auditErr := audit.LogEnvelopeCreated(envelopeOut, version, err == nil, reason(err)); err != nil || auditErr != nil {
		return auditError(err, auditErr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "EnvelopedData (version %d) written to %s\n", version, envelopeOut)
	return nil
}

func sealEnvelope(cmd *cobra.Command) (int, error) {
	key, err := loadKey(envelopeKey, envelopeKeyFile)
	if err != nil {
		return 0, err
	}
	content, err := os.ReadFile(envelopeIn)
	if err != nil {
		return 0, fmt.Errorf("failed to read input: %w", err)
	}

	opts := &cms.EnvelopeOptions{Key: key}
	if envelopeIV != "" {
		iv, err := hex.DecodeString(envelopeIV)
		if err != nil {
			return 0, fmt.Errorf("invalid --iv: %w", err)
		}
		opts.Params = cast5.NewParameters()
		opts.Params.InitRaw(iv)
	}
	if opts.Originator, err = loadOriginator(); err != nil {
		return 0, err
	}
	for _, path := range envelopeRecipientInfos {
		der, err := readInput(path, "")
		if err != nil {
			return 0, err
		}
		opts.RecipientInfos = append(opts.RecipientInfos, asn1.RawValue{FullBytes: der})
	}

	env, err := cms.NewEnvelopedData(cmd.Context(), content, opts)
	if err != nil {
		return 0, err
	}
	der, err := env.Marshal()
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(envelopeOut, der, 0644); err != nil {
		return 0, fmt.Errorf("failed to write output: %w", err)
	}
	return env.Version, nil
}

// loadOriginator resolves --originator or --originator-cert; nil when
// neither is set.
func loadOriginator() (*cms.OriginatorInformation, error) {
	switch {
	case envelopeOriginator != "" && envelopeOriginatorCert != "":
		return nil, fmt.Errorf("--originator and --originator-cert are mutually exclusive")
	case envelopeOriginator != "":
		p, err := config.LoadOriginatorProfile(envelopeOriginator)
		if err != nil {
			return nil, err
		}
		gen, err := p.Generator()
		if err != nil {
			return nil, err
		}
		return gen.Generate(), nil
	case envelopeOriginatorCert != "":
		certs, err := config.LoadCertificates(envelopeOriginatorCert)
		if err != nil {
			return nil, err
		}
		if len(certs) != 1 {
			return nil, fmt.Errorf("%s: expected one certificate, found %d", envelopeOriginatorCert, len(certs))
		}
		gen, err := cms.NewOriginatorInfoGeneratorFromCertificate(certs[0])
		if err != nil {
			return nil, err
		}
		return gen.Generate(), nil
	}
	return nil, nil
}

func runEnvelopeOpen(cmd *cobra.Command, args []string) error {
	err := openEnvelope()
	if auditErr := audit.LogEnvelopeOpened(envelopeIn, err == nil, reason(err)); err != nil || auditErr != nil {
		return auditError(err, auditErr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Content written to %s\n", envelopeOut)
	return nil
}

func openEnvelope() error {
	key, err := loadKey(envelopeKey, envelopeKeyFile)
	if err != nil {
		return err
	}
	der, err := readInput(envelopeIn, pemTypeCMS)
	if err != nil {
		return err
	}
	content, err := cms.Open(der, key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(envelopeOut, content, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runEnvelopeInfo(cmd *cobra.Command, args []string) error {
	der, err := readInput(args[0], pemTypeCMS)
	if err != nil {
		return err
	}
	env, err := cms.ParseEnvelopedData(der)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	eci := env.EncryptedContentInfo
	fmt.Fprintf(out, "EnvelopedData: %s\n", args[0])
	fmt.Fprintf(out, "  Version:         %d\n", env.Version)
	fmt.Fprintf(out, "  Content type:    %s\n", eci.ContentType)
	fmt.Fprintf(out, "  Algorithm:       %s\n", eci.ContentEncryptionAlgorithm.Algorithm)
	if params, err := cast5.ParametersFromAlgorithmIdentifier(eci.ContentEncryptionAlgorithm); err == nil {
		fmt.Fprintf(out, "  IV:              %s\n", hex.EncodeToString(params.IV()))
		fmt.Fprintf(out, "  Key length:      %d bits\n", params.KeyLength())
	}
	fmt.Fprintf(out, "  Encrypted size:  %d bytes\n", len(eci.EncryptedContent))
	fmt.Fprintf(out, "  RecipientInfos:  %d\n", len(env.RecipientInfos))

	originator, err := env.OriginatorInformation()
	if err != nil {
		return err
	}
	if originator == nil {
		fmt.Fprintln(out, "  OriginatorInfo:  absent")
		return nil
	}
	fmt.Fprintln(out, "  OriginatorInfo:")
	return printOriginator(out, originator)
}
