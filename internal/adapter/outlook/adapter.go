package outlook

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"go.uber.org/zap"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/theakshaypant/caldigest/internal/core"
	"github.com/theakshaypant/caldigest/internal/oauth"
)

// ErrNotLoggedIn is returned when the adapter is used before Login.
var ErrNotLoggedIn = errors.New("outlook: not logged in")

// Calendar ID meaning the user's default calendar.
const defaultCalendar = "default"

// tokenCredential bridges our saved OAuth2 token into the Azure SDK's
// TokenCredential interface, allowing the Microsoft Graph SDK to
// authenticate requests.
type tokenCredential struct {
	adapter *OutlookAdapter
}

func (c *tokenCredential) GetToken(ctx context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	tok, err := c.adapter.accessToken(ctx)
	if err != nil {
		return azcore.AccessToken{}, err
	}
	return azcore.AccessToken{
		Token:     tok.AccessToken,
		ExpiresOn: tok.Expiry,
	}, nil
}

// OutlookAdapter reads Microsoft 365 calendars through the Graph SDK.
type OutlookAdapter struct {
	id        string
	name      string
	clientID  string
	tenantID  string
	tokenFile string
	calendars []core.Calendar
	logger    *zap.Logger

	token   *oauth2.Token
	tokenMu sync.Mutex
	client  *msgraphsdk.GraphServiceClient
}

func NewOutlookAdapter(id, name, clientID, tenantID, tokenFile string, logger *zap.Logger) *OutlookAdapter {
	if tenantID == "" {
		tenantID = "common"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutlookAdapter{
		id:        id,
		name:      name,
		clientID:  clientID,
		tenantID:  tenantID,
		tokenFile: tokenFile,
		logger:    logger,
	}
}

func (o *OutlookAdapter) ID() string   { return o.id }
func (o *OutlookAdapter) Name() string { return o.name }

// OAuthConfig returns the OAuth2 configuration for Microsoft identity platform.
// Used by the auth command to run the initial OAuth flow.
func (o *OutlookAdapter) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    o.clientID,
		Endpoint:    microsoft.AzureADEndpoint(o.tenantID),
		RedirectURL: oauth.RedirectURL,
		Scopes: []string{
			"https://graph.microsoft.com/Calendars.Read",
			"https://graph.microsoft.com/User.Read",
			"offline_access",
		},
	}
}

// Login loads the saved OAuth token and initializes the Graph SDK client.
func (o *OutlookAdapter) Login(_ context.Context) error {
	tok, err := oauth.LoadToken(o.tokenFile)
	if err != nil {
		return fmt.Errorf("read token file (run 'caldigest auth' first): %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("token file has no access token, delete %s and run 'caldigest auth' again", o.tokenFile)
	}
	o.token = tok

	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(&tokenCredential{adapter: o}, []string{
		"https://graph.microsoft.com/.default",
	})
	if err != nil {
		return fmt.Errorf("create graph client: %w", err)
	}
	o.client = client
	return nil
}

// accessToken returns a valid token, refreshing and persisting it if expired.
func (o *OutlookAdapter) accessToken(ctx context.Context) (*oauth2.Token, error) {
	o.tokenMu.Lock()
	defer o.tokenMu.Unlock()

	if o.token.Valid() {
		return o.token, nil
	}

	newTok, err := o.OAuthConfig().TokenSource(ctx, o.token).Token()
	if err != nil {
		return nil, fmt.Errorf("token expired and refresh failed (delete %s and run 'caldigest auth'): %w", o.tokenFile, err)
	}
	o.token = newTok
	o.persistToken(newTok)

	return newTok, nil
}

// persistToken saves a refreshed token. Failures are logged, not returned.
func (o *OutlookAdapter) persistToken(tok *oauth2.Token) {
	if err := oauth.SaveToken(o.tokenFile, tok); err != nil {
		o.logger.Warn("Could not save refreshed token",
			zap.String("token_file", o.tokenFile),
			zap.Error(err),
		)
	}
}

// Calendars lists the user's calendars. The list is fetched once.
func (o *OutlookAdapter) Calendars(ctx context.Context) ([]core.Calendar, error) {
	if o.client == nil {
		return nil, ErrNotLoggedIn
	}
	if o.calendars != nil {
		return o.calendars, nil
	}

	result, err := o.client.Me().Calendars().Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	calendars := []core.Calendar{}
	for _, cal := range result.GetValue() {
		id, name := cal.GetId(), cal.GetName()
		if id != nil && name != nil {
			calendars = append(calendars, core.Calendar{ID: *id, Name: *name})
		}
	}
	o.calendars = calendars
	return calendars, nil
}

func (o *OutlookAdapter) calendarID(ctx context.Context, name string) (string, error) {
	if name == "" {
		return defaultCalendar, nil
	}

	calendars, err := o.Calendars(ctx)
	if err != nil {
		return "", err
	}
	return findCalendar(calendars, name)
}

func findCalendar(calendars []core.Calendar, name string) (string, error) {
	for _, cal := range calendars {
		if cal.Name == name {
			return cal.ID, nil
		}
	}
	return "", fmt.Errorf("calendar %q not found", name)
}
