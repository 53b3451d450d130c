package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/oauth2"
)

const (
	RedirectPort = "8085"
	RedirectURL  = "http://localhost:" + RedirectPort + "/callback"
)

const successPage = `<!DOCTYPE html>
<html>
<head>
	<title>Authorization Successful</title>
	<style>
		body { font-family: -apple-system, sans-serif; display: flex;
		       justify-content: center; align-items: center; height: 100vh;
		       margin: 0; background: #1a1a1a; color: #fff; }
		.card { background: #2d2d2d; padding: 40px; border-radius: 12px; text-align: center; }
		h1 { color: #4ade80; margin-bottom: 10px; }
		p { color: #a1a1aa; }
	</style>
</head>
<body>
	<div class="card">
		<h1>Authorization Successful</h1>
		<p>You can close this window and return to the terminal.</p>
	</div>
</body>
</html>`

// CallbackHandler receives the provider redirect and forwards the code or
// the failure.
func CallbackHandler(codeCh chan<- string, errCh chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errMsg := r.URL.Query().Get("error")
			http.Error(w, "Authorization failed: "+errMsg, http.StatusBadRequest)
			errCh <- fmt.Errorf("authorization failed: %s", errMsg)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, successPage)
		codeCh <- code
	})
}

// LocalServerFlow opens the consent page in a browser, waits for the
// redirect on RedirectURL and exchanges the code for a token.
func LocalServerFlow(ctx context.Context, config *oauth2.Config, providerName string, authOpts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.Handle("/callback", CallbackHandler(codeCh, errCh))
	server := &http.Server{Addr: ":" + RedirectPort, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := config.AuthCodeURL("state-token", authOpts...)

	fmt.Printf("🔐 Opening browser for %s authorization...\n", providerName)
	fmt.Println()

	if err := openBrowser(authURL); err != nil {
		fmt.Println("⚠️  Couldn't open browser automatically.")
		fmt.Println("   Please open this URL manually:")
		fmt.Println(authURL)
	}

	fmt.Println("⏳ Waiting for authorization...")

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("timeout waiting for authorization")
	}

	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}

	return cmd.Start()
}
