package services

import (
	"fmt"
	"time"

	"github.com/desertthunder/libris/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const idTokenKey = "id_token"

// IDToken returns the id token stored in tok's extras, or "".
func IDToken(tok *oauth2.Token) string {
	if tok == nil {
		return ""
	}
	if s, ok := tok.Extra(idTokenKey).(string); ok {
		return s
	}
	return ""
}

// IDClaims are the id token claims the client reads. Signatures are not checked here;
// the catalog API's authorizer verifies every token it receives.
type IDClaims struct {
	Username string
	Email    string
	Expiry   time.Time
}

// ParseIDToken reads the claims of a Cognito id token without verifying it.
func ParseIDToken(raw string) (*IDClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("malformed id token: %w", err)
	}

	out := &IDClaims{}
	for _, key := range []string{"cognito:username", "username", "sub"} {
		if s, ok := claims[key].(string); ok && s != "" {
			out.Username = s
			break
		}
	}
	if s, ok := claims["email"].(string); ok {
		out.Email = s
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.Expiry = exp.Time
	}

	return out, nil
}

// newToken builds an [oauth2.Token] carrying the id token. The id token's own expiry wins
// over expiresIn when it can be read.
func newToken(idToken, accessToken, refreshToken string, expiresIn int32, now time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
	}
	if expiresIn > 0 {
		tok.Expiry = now.Add(time.Duration(expiresIn) * time.Second)
	}
	if claims, err := ParseIDToken(idToken); err == nil && !claims.Expiry.IsZero() {
		tok.Expiry = claims.Expiry
	}
	return tok.WithExtra(map[string]any{idTokenKey: idToken})
}

func credentialsFromToken(username string, tok *oauth2.Token) *models.Credentials {
	return &models.Credentials{
		Username:     username,
		IDToken:      IDToken(tok),
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
}

func tokenFromCredentials(c *models.Credentials) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
	return tok.WithExtra(map[string]any{idTokenKey: c.IDToken})
}
