package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/theakshaypant/caldigest/internal/adapter/google"
	"github.com/theakshaypant/caldigest/internal/adapter/outlook"
	"github.com/theakshaypant/caldigest/internal/oauth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with your calendar provider",
	Long: `Authenticate with your calendar provider using OAuth.

For Google Calendar and Outlook / Office 365:
  1. Starts a local server to receive the OAuth callback
  2. Opens your browser to sign in
  3. Saves the token for future use

ICS feeds need no authentication.

The provider is determined by your configuration (provider: google|outlook|ics).`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, _ []string) error {
	var (
		config       *oauth2.Config
		providerName string
		authOpts     []oauth2.AuthCodeOption
	)

	switch cfg.Provider {
	case "", "google":
		c, err := google.OAuthConfig(expandPath(cfg.CredentialsFile))
		if err != nil {
			return err
		}
		c.RedirectURL = oauth.RedirectURL
		config, providerName = c, "Google"
		authOpts = []oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.ApprovalForce}

	case "outlook":
		if cfg.ClientID == "" {
			return fmt.Errorf("client_id not configured\n\nAdd it to your config:\n  client_id: \"your-azure-app-client-id\"")
		}
		a := outlook.NewOutlookAdapter("outlook", "Outlook Calendar", cfg.ClientID, cfg.TenantID, "", log)
		config, providerName = a.OAuthConfig(), "Microsoft"
		authOpts = []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "consent")}

	case "ics":
		fmt.Println("ICS feeds need no authentication.")
		return nil

	default:
		return fmt.Errorf("unknown provider: %s (supported: google, outlook, ics)", cfg.Provider)
	}

	tok, err := oauth.LocalServerFlow(cmd.Context(), config, providerName, authOpts...)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	tokenFile := expandPath(cfg.TokenFile)
	if err := oauth.SaveToken(tokenFile, tok); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Println("\n✅ Authentication successful!")
	fmt.Printf("📁 Token saved to %s\n", tokenFile)
	fmt.Println("\nYou can now run 'caldigest' to build your digest.")

	return nil
}
