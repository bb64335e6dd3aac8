package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/eudr-dashboard/internal/auth"
	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint API bearer tokens",
	}

	var (
		keyPath  string
		claims   auth.Claims
		role     string
		ttl      time.Duration
		issuer   string
		audience string
	)
	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a bearer token signed with a private key",
		Long: `Mint a bearer token for development and testing.
The key is a private JWK set created with keygen; the gateway must trust the matching public JWKS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.ReadSigningKey(keyPath)
			if err != nil {
				return err
			}
			claims.Role = schema.Role(role)

			token, expiresAt, err := auth.Mint(key, claims, auth.MintOptions{
				TTL:      ttl,
				Issuer:   issuer,
				Audience: audience,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, map[string]any{
					"token":      token,
					"expires_at": expiresAt,
				})
			}
			fmt.Fprintln(out, token)
			return nil
		},
	}
	mintCmd.Flags().StringVarP(&keyPath, "key", "k", "", "Private JWK set file [required]")
	mintCmd.Flags().StringVarP(&claims.Subject, "subject", "s", "", "Token subject (user id) [required]")
	mintCmd.Flags().StringVarP(&claims.TenantID, "tenant", "t", "", "Tenant id or slug [required]")
	mintCmd.Flags().StringVar(&claims.Email, "email", "", "User email")
	mintCmd.Flags().StringVar(&role, "role", "", "User role: admin, compliance_officer, viewer or supplier")
	mintCmd.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "Token lifetime")
	mintCmd.Flags().StringVar(&issuer, "issuer", "", "iss claim (must match JWT_ISSUER on the gateway)")
	mintCmd.Flags().StringVar(&audience, "audience", "", "aud claim (must match JWT_AUDIENCE on the gateway)")
	_ = mintCmd.MarkFlagRequired("key")
	_ = mintCmd.MarkFlagRequired("subject")
	_ = mintCmd.MarkFlagRequired("tenant")

	tokenCmd.AddCommand(mintCmd)
	return tokenCmd
}
