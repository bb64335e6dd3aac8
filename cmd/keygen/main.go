// keygen is a CLI tool for generating the key pairs used to sign and verify dashboard API tokens.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/eudr-dashboard/internal/auth"
	"github.com/information-sharing-networks/eudr-dashboard/internal/version"
)

// file naming convention - name.public.jwks and name.private.jwks
const (
	publicKeyFileNameFormat  = "%s.public.jwks"
	privateKeyFileNameFormat = "%s.private.jwks"
)

var (
	name      string
	outputDir string
	keyType   string
	rsaSize   int
	pemPath   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "keygen",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "JWK key generator for EUDR dashboard API tokens",
		Long: `Generate Ed25519 or RSA key pairs as JWK sets.
The private set is used by eudrctl (SIGNING_KEY_PATH) to mint tokens, the public set is the JWKS
the gateway verifies tokens with (JWKS_FILE, or published at JWKS_URL).`,
	}

	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new key pair",
		RunE:  runGenerate,
	}

	generateCmd.Flags().StringVarP(&name, "name", "n", "", "Key name used for the file names (e.g., dev-issuer) [required]")
	generateCmd.Flags().StringVarP(&keyType, "type", "t", "ed25519", "Key type: ed25519 or rsa")
	generateCmd.Flags().StringVarP(&outputDir, "outputdir", "o", "", "Output directory for generated keys [required]")
	generateCmd.Flags().IntVarP(&rsaSize, "size", "s", 4096, "RSA key size in bits (2048 or 4096, default: 4096)")
	_ = generateCmd.MarkFlagRequired("name")
	_ = generateCmd.MarkFlagRequired("outputdir")

	fromPEMCmd := &cobra.Command{
		Use:   "from-pem",
		Short: "Create a key pair from an existing PEM private key",
		Long: `Convert an Ed25519 or RSA private key PEM file (PKCS#8 or PKCS#1) to the JWK sets used by
eudrctl and the gateway. Use this when tokens are signed with a key issued elsewhere.`,
		RunE: runFromPEM,
	}

	fromPEMCmd.Flags().StringVarP(&pemPath, "pem", "p", "", "Path to the private key PEM file [required]")
	fromPEMCmd.Flags().StringVarP(&name, "name", "n", "", "Key name used for the file names (e.g., dev-issuer) [required]")
	fromPEMCmd.Flags().StringVarP(&outputDir, "outputdir", "o", "", "Output directory for the key sets [required]")
	_ = fromPEMCmd.MarkFlagRequired("pem")
	_ = fromPEMCmd.MarkFlagRequired("name")
	_ = fromPEMCmd.MarkFlagRequired("outputdir")

	rootCmd.AddCommand(generateCmd, fromPEMCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if keyType != string(auth.KeyTypeRSA) && keyType != string(auth.KeyTypeEd25519) {
		return fmt.Errorf("invalid key type: %s (must be 'rsa' or 'ed25519')", keyType)
	}

	if keyType == string(auth.KeyTypeRSA) && rsaSize != 2048 && rsaSize != 4096 {
		return fmt.Errorf("invalid RSA key size: %d (must be 2048 or 4096)", rsaSize)
	}

	// make the directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fmt.Printf("Generating %s key pair: %s\n", keyType, name)

	key, err := auth.GenerateSigningKey(auth.KeyType(keyType), rsaSize)
	if err != nil {
		return err
	}
	return saveKeyPair(key)
}

func runFromPEM(cmd *cobra.Command, args []string) error {
	pemData, err := os.ReadFile(pemPath)
	if err != nil {
		return fmt.Errorf("failed to read PEM file: %w", err)
	}

	key, err := auth.ImportPEMSigningKey(pemData)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fmt.Printf("Importing %s as key pair: %s\n", pemPath, name)
	return saveKeyPair(key)
}

func saveKeyPair(key jwk.Key) error {
	keyID, err := auth.KeyID(key)
	if err != nil {
		return err
	}

	privateFile := fmt.Sprintf(privateKeyFileNameFormat, name)
	publicFile := fmt.Sprintf(publicKeyFileNameFormat, name)
	if err := auth.SaveKeyPair(key, outputDir, privateFile, publicFile); err != nil {
		return err
	}

	fmt.Printf("✓ Public JWKS:  %s (kid: %s)\n", filepath.Join(outputDir, publicFile), keyID)
	fmt.Printf("✓ Private JWKS: %s (kid: %s)\n", filepath.Join(outputDir, privateFile), keyID)
	return nil
}
