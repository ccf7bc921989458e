package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/synergy/internal/security"
)

var (
	certOutputDir string
	certHosts     []string
	certValidDays int
)

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Generate a self-signed TLS certificate for the API",
	Long: `Generate server.crt and server.key for synergy-server.

The certificate is self-signed and covers localhost, 127.0.0.1 and any
--host values. Point server.tls.cert_file and server.tls.key_file at the
generated files.

Example:
  synergyctl cert --out ./certs --host synergy.example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		certPath, keyPath, err := security.GenerateSelfSigned(certOutputDir, certHosts, certValidDays)
		if err != nil {
			return fmt.Errorf("generate certificate: %w", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Certificate: %s\n", certPath)
		fmt.Fprintf(w, "Private key: %s\n", keyPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(certCmd)

	certCmd.Flags().StringVar(&certOutputDir, "out", "./certs", "output directory")
	certCmd.Flags().StringSliceVar(&certHosts, "host", nil, "additional DNS names or IPs")
	certCmd.Flags().IntVar(&certValidDays, "days", security.DefaultCertValidDays, "validity in days")
}
