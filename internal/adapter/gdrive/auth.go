package gdrive

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/term"
	"google.golang.org/api/drive/v3"

	"github.com/Ning0612/syncprobe/internal/logger"
)

const (
	// DefaultTokenFile is the default path for storing OAuth tokens
	DefaultTokenFile = "gdrive-token.json"

	// AuthTimeout bounds the interactive authorization, including the code exchange
	AuthTimeout = 5 * time.Minute

	// RedirectURL is the loopback redirect of a desktop OAuth client. Nothing
	// listens there; the user copies the address the browser lands on.
	RedirectURL = "http://127.0.0.1"

	// Scope is the only scope a stored token may carry
	Scope = drive.DriveMetadataReadonlyScope
)

var (
	// ErrNoToken indicates authorization has not been run yet
	ErrNoToken = errors.New("no gdrive token, run 'syncprobe auth gdrive'")

	// ErrTokenScope indicates the token grants something other than read-only metadata access
	ErrTokenScope = errors.New("gdrive token is not limited to drive.metadata.readonly, run 'syncprobe auth gdrive'")

	// ErrTokenClient indicates the token was issued to a different OAuth client
	ErrTokenClient = errors.New("gdrive token belongs to another client_id, run 'syncprobe auth gdrive'")

	// ErrNotInteractive indicates the authorization code cannot be typed in
	ErrNotInteractive = errors.New("gdrive authorization needs an interactive terminal")

	// ErrStateMismatch indicates a pasted redirect that was not issued for this attempt
	ErrStateMismatch = errors.New("authorization response state does not match")
)

// storedToken is the token file layout. Scope and ClientID record what the
// token was issued for; a token from another setup is rejected on load.
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
	Scope        string    `json:"scope"`
	ClientID     string    `json:"client_id"`
}

func (t *storedToken) oauth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

// Authenticator owns the Drive token file: the one-time interactive grant
// and the token source used by the adapter afterwards
type Authenticator struct {
	config    *oauth2.Config
	tokenPath string
	in        io.Reader
	out       io.Writer
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(clientID, clientSecret, tokenPath string) *Authenticator {
	if tokenPath == "" {
		tokenPath = DefaultTokenFile
		if configDir, err := os.UserConfigDir(); err == nil {
			tokenPath = filepath.Join(configDir, "syncprobe", DefaultTokenFile)
		}
	}

	return &Authenticator{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{Scope},
			RedirectURL:  RedirectURL,
			Endpoint:     google.Endpoint,
		},
		tokenPath: tokenPath,
		in:        os.Stdin,
		out:       os.Stdout,
	}
}

// SetIO redirects the interactive prompt, used by the auth command
func (a *Authenticator) SetIO(in io.Reader, out io.Writer) {
	a.in = in
	a.out = out
}

// TokenSource returns a source for the stored token. Refreshed tokens are
// written back to the token file.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	stored, err := a.loadToken()
	if err != nil {
		return nil, err
	}

	return &savingSource{
		auth:  a,
		base:  a.config.TokenSource(ctx, stored.oauth2Token()),
		scope: stored.Scope,
		last:  stored.AccessToken,
	}, nil
}

// savingSource persists every new access token handed out by base
type savingSource struct {
	auth  *Authenticator
	base  oauth2.TokenSource
	scope string

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh gdrive token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		if err := s.auth.saveToken(token, s.scope); err != nil {
			// the in-memory token still works for this run
			logger.Get().Warn("failed to save refreshed gdrive token", "path", s.auth.tokenPath, "error", err)
		}
		s.last = token.AccessToken
	}
	return token, nil
}

// Authenticate runs the authorization code flow (PKCE, offline access) and
// stores the token. The user pastes either the code or the whole redirect
// address; a pasted address must carry this attempt's state.
func (a *Authenticator) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	if f, ok := a.in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return nil, ErrNotInteractive
	}

	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	authURL := a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	fmt.Fprintf(a.out, "\nsyncprobe needs read-only access to file names, sizes and checksums in Google Drive.\n\n")
	fmt.Fprintf(a.out, "Open this URL and approve access:\n   %s\n\n", authURL)
	fmt.Fprintf(a.out, "The browser then lands on %s and shows an error page. Paste that page's address (or just the code) below.\n\n", RedirectURL)
	fmt.Fprintf(a.out, "Address or code: ")

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}

	code, err := parseAuthResponse(line, state)
	if err != nil {
		return nil, err
	}

	token, err := a.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	scope := a.grantedScope(token)
	if !metadataOnly(scope) {
		return nil, fmt.Errorf("%w (granted %q)", ErrTokenScope, scope)
	}

	if err := a.saveToken(token, scope); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Fprintf(a.out, "\nAuthorized. Token saved to %s\n", a.tokenPath)
	return token, nil
}

// parseAuthResponse extracts the authorization code from what the user pasted
func parseAuthResponse(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("empty authorization code")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect address: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	if q.Get("state") != state {
		return "", ErrStateMismatch
	}
	code := q.Get("code")
	if code == "" {
		return "", errors.New("redirect address has no code parameter")
	}
	return code, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// grantedScope is the scope reported by the token endpoint, or the requested
// one when the response omits it
func (a *Authenticator) grantedScope(token *oauth2.Token) string {
	if s, ok := token.Extra("scope").(string); ok && s != "" {
		return s
	}
	return strings.Join(a.config.Scopes, " ")
}

// metadataOnly reports whether scope is exactly the metadata read-only scope
func metadataOnly(scope string) bool {
	fields := strings.Fields(scope)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if f != Scope {
			return false
		}
	}
	return true
}

func (a *Authenticator) loadToken() (*storedToken, error) {
	data, err := os.ReadFile(a.tokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token storedToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", a.tokenPath, err)
	}

	if token.ClientID != a.config.ClientID {
		return nil, ErrTokenClient
	}
	if !metadataOnly(token.Scope) {
		return nil, ErrTokenScope
	}
	return &token, nil
}

// saveToken writes the token file through a temp file in the same directory
func (a *Authenticator) saveToken(token *oauth2.Token, scope string) error {
	dir := filepath.Dir(a.tokenPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(storedToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		Scope:        scope,
		ClientID:     a.config.ClientID,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(a.tokenPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write temp token file: %w", err)
	}

	if err := os.Rename(tmp.Name(), a.tokenPath); err != nil {
		return fmt.Errorf("failed to rename token file: %w", err)
	}
	return nil
}

// TokenPath returns the path where the token is stored
func (a *Authenticator) TokenPath() string {
	return a.tokenPath
}
