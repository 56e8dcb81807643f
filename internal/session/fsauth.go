package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// FamilySearchAuth implements Authenticator by driving the redirect-chain
// OAuth2 login FamilySearch's website itself uses, grounded exactly on
// original_source/controller/session.py's login(): an initial login
// redirect, a hidden "params" form field scraped out of the intermediate
// HTML page, a POST of those params plus the credentials, and a final
// redirect that sets the fssessionid cookie.
type FamilySearchAuth struct {
	// BaseURL is the site root ("https://www.familysearch.org" in
	// production); overridable so tests can point it at an httptest server.
	BaseURL string
	// IdentBaseURL is the OAuth host ("https://ident.familysearch.org");
	// overridable for the same reason.
	IdentBaseURL string
	Client       *http.Client
}

var paramsFieldPattern = regexp.MustCompile(`name="params" value="([^"]*)"`)

// NewFamilySearchAuth returns an Authenticator pointed at production
// FamilySearch. Use the zero value's fields directly to point at a stub
// server in tests.
func NewFamilySearchAuth() *FamilySearchAuth {
	return &FamilySearchAuth{
		BaseURL:      "https://www.familysearch.org",
		IdentBaseURL: "https://ident.familysearch.org",
		Client:       &http.Client{Timeout: 30 * time.Second, CheckRedirect: noRedirect},
	}
}

func noRedirect(req *http.Request, via []*http.Request) error {
	return http.ErrUseLastResponse
}

// Login executes the redirect chain and returns the resulting session
// cookie plus the identity retrieved from /platform/users/current.json.
func (a *FamilySearchAuth) Login(ctx context.Context, username, password string) (Identity, error) {
	client := a.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second, CheckRedirect: noRedirect}
	}

	loginURL := a.BaseURL + "/auth/familysearch/login?ldsauth=false"
	resp, err := a.get(ctx, client, loginURL)
	if err != nil {
		return Identity{}, fmt.Errorf("fetch login redirect: %w", err)
	}
	resp.Body.Close()
	next := resp.Header.Get("Location")
	if next == "" {
		return Identity{}, &AuthError{Reason: "login redirect had no Location header"}
	}

	resp, err = a.get(ctx, client, next)
	if err != nil {
		return Identity{}, fmt.Errorf("fetch auth form: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return Identity{}, fmt.Errorf("read auth form: %w", err)
	}
	match := paramsFieldPattern.FindSubmatch(body)
	if match == nil {
		return Identity{}, &AuthError{Reason: "auth form missing params field"}
	}
	params := string(match[1])

	authURL := a.IdentBaseURL + "/cis-web/oauth2/v3/authorization"
	form := strings.NewReader(fmt.Sprintf("params=%s&userName=%s&password=%s",
		urlEscape(params), urlEscape(username), urlEscape(password)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, form)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("post credentials: %w", err)
	}
	authBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return Identity{}, fmt.Errorf("read auth response: %w", err)
	}
	if strings.Contains(string(authBody), "The username or password was incorrect") {
		return Identity{}, &AuthError{Reason: "incorrect username or password"}
	}
	if strings.Contains(string(authBody), "Invalid Oauth2 Request") {
		return Identity{}, &AuthError{Reason: "invalid oauth2 request"}
	}
	final := resp.Header.Get("Location")
	if final == "" {
		return Identity{}, &AuthError{Reason: "auth response had no Location header"}
	}

	resp, err = a.get(ctx, client, final)
	if err != nil {
		return Identity{}, fmt.Errorf("fetch final redirect: %w", err)
	}
	resp.Body.Close()
	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == "fssessionid" {
			cookie = c.Value
		}
	}
	if cookie == "" {
		return Identity{}, &AuthError{Reason: "no fssessionid cookie set"}
	}

	identity := Identity{Cookie: cookie}
	if err := a.fetchCurrentUser(ctx, client, &identity); err != nil {
		return Identity{}, fmt.Errorf("fetch current user: %w", err)
	}
	return identity, nil
}

// fetchCurrentUser mirrors session.py's set_current(): a GET against
// /platform/users/current.json to learn the logged-in user's own person
// id, preferred language, and display name.
func (a *FamilySearchAuth) fetchCurrentUser(ctx context.Context, client *http.Client, identity *Identity) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/platform/users/current.json", nil)
	if err != nil {
		return err
	}
	req.AddCookie(&http.Cookie{Name: "fssessionid", Value: identity.Cookie})
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var doc struct {
		Users []struct {
			PersonID          string `json:"personId"`
			DisplayName       string `json:"displayName"`
			PreferredLanguage string `json:"preferredLanguage"`
		} `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode current user: %w", err)
	}
	if len(doc.Users) == 0 {
		return fmt.Errorf("current user response had no users entry")
	}
	identity.PersonID = doc.Users[0].PersonID
	identity.DisplayName = doc.Users[0].DisplayName
	identity.Language = doc.Users[0].PreferredLanguage
	return nil
}

func (a *FamilySearchAuth) get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

func urlEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-' || c == '_' || c == '.' || c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
