package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"converge.io/converge/pkg/token"
)

var (
	tokenSecret string
	tokenVerify string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate an admin token",
	Long: `Generate a random admin token for CONVERGE_ADMIN_TOKEN.

With --verify, check a token against the configured token and secret
instead (exit status 1 if it does not match).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if tokenVerify != "" {
			verifier, err := token.NewVerifier(getEnv("CONVERGE_ADMIN_TOKEN", ""), tokenSecret)
			if err != nil {
				return fmt.Errorf("invalid admin token configuration: %w", err)
			}
			if !verifier.Verify(tokenVerify) {
				return fmt.Errorf("token verification failed")
			}
			fmt.Fprintln(out, "✓ Token matches CONVERGE_ADMIN_TOKEN")
			return nil
		}

		generated, err := token.Generate()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, generated)

		if tokenSecret != "" {
			fmt.Fprintf(out, "HMAC-SHA256: %s\n", token.Hash(generated, tokenSecret))
		}
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", getEnv("CONVERGE_HMAC_SECRET", ""), "HMAC secret")
	tokenCmd.Flags().StringVar(&tokenVerify, "verify", "", "Token to check against CONVERGE_ADMIN_TOKEN")
	rootCmd.AddCommand(tokenCmd)
}
