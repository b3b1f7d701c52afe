// Cognito user pool implementation of [IdentityProvider]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/libris/internal/shared"
	"golang.org/x/oauth2"
)

// cognitoAPI is the part of the Cognito client the provider uses.
type cognitoAPI interface {
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
}

// CognitoProvider signs users up and in against a Cognito user pool app client
// (public client, no secret) and keeps the session in a [TokenStore].
type CognitoProvider struct {
	client   cognitoAPI
	clientID string
	store    TokenStore
	logger   *log.Logger
	now      func() time.Time
}

// CognitoConfig holds the settings needed to reach a user pool.
type CognitoConfig struct {
	Region   string
	ClientID string
	// Endpoint overrides the regional endpoint, e.g. for a local emulator.
	Endpoint   string
	HTTPClient *http.Client
}

// NewCognitoProvider creates a provider backed by the AWS SDK.
//
// Requests are unsigned: every operation used here is public for app clients.
// Retries are disabled; a failed attempt is reported as-is.
func NewCognitoProvider(cfg CognitoConfig, store TokenStore, logger *log.Logger) (*CognitoProvider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: identity.client_id is required", shared.ErrMissingConfig)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: identity region is required (set identity.region or identity.user_pool_id)", shared.ErrMissingConfig)
	}

	opts := cip.Options{
		Region:           cfg.Region,
		Credentials:      aws.AnonymousCredentials{},
		RetryMaxAttempts: 1,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.HTTPClient != nil {
		opts.HTTPClient = cfg.HTTPClient
	}

	return newCognitoProvider(cip.New(opts), cfg.ClientID, store, logger), nil
}

func newCognitoProvider(client cognitoAPI, clientID string, store TokenStore, logger *log.Logger) *CognitoProvider {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CognitoProvider{
		client:   client,
		clientID: clientID,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

func (p *CognitoProvider) SignUp(ctx context.Context, username, email, password string) error {
	_, err := p.client.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(username),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		return identityError("sign up", err)
	}

	p.logger.Info("registered account, awaiting confirmation", "username", username)
	return nil
}

func (p *CognitoProvider) ConfirmSignUp(ctx context.Context, username, code string) error {
	_, err := p.client.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(username),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		return identityError("confirm sign up", err)
	}
	return nil
}

// Authenticate uses the USER_PASSWORD_AUTH flow, which the app client must allow.
func (p *CognitoProvider) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	out, err := p.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, identityError("authenticate", err)
	}

	tok, err := p.tokenFromOutput(out, "")
	if err != nil {
		return nil, err
	}

	id := &Identity{Username: p.usernameFor(tok, username), Token: tok}
	if p.store != nil {
		if err := p.store.Save(credentialsFromToken(id.Username, tok)); err != nil {
			p.logger.Warn("signed in but could not remember session", "error", err)
		}
	}
	return id, nil
}

// CurrentSession returns the stored session. An expired id token is refreshed with the
// stored refresh token; a rejected refresh clears the store and reports [shared.ErrNoSession].
func (p *CognitoProvider) CurrentSession(ctx context.Context) (*Identity, error) {
	if p.store == nil {
		return nil, shared.ErrNoSession
	}

	creds, err := p.store.Load()
	if err != nil {
		return nil, err
	}

	src := oauth2.ReuseTokenSource(tokenFromCredentials(creds), &refreshSource{ctx: ctx, p: p, refreshToken: creds.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		var idErr *IdentityError
		if errors.As(err, &idErr) || errors.Is(err, shared.ErrTokenExpired) {
			p.logger.Info("stored session is no longer valid", "username", creds.Username, "error", err)
			if clearErr := p.store.Clear(); clearErr != nil {
				p.logger.Warn("could not clear stale session", "error", clearErr)
			}
			return nil, shared.ErrNoSession
		}
		return nil, err
	}

	if IDToken(tok) != creds.IDToken {
		if err := p.store.Save(credentialsFromToken(creds.Username, tok)); err != nil {
			p.logger.Warn("refreshed session but could not remember it", "error", err)
		}
	}

	return &Identity{Username: creds.Username, Token: tok}, nil
}

// SignOut clears the stored session, then revokes its tokens. The store is cleared even
// when revocation fails; that error is still returned.
func (p *CognitoProvider) SignOut(ctx context.Context) error {
	if p.store == nil {
		return nil
	}

	creds, err := p.store.Load()
	if errors.Is(err, shared.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := p.store.Clear(); err != nil {
		return err
	}

	if creds.AccessToken == "" {
		return nil
	}
	if _, err := p.client.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(creds.AccessToken)}); err != nil {
		return identityError("sign out", err)
	}
	return nil
}

func (p *CognitoProvider) tokenFromOutput(out *cip.InitiateAuthOutput, refreshToken string) (*oauth2.Token, error) {
	if out.ChallengeName != "" {
		return nil, &IdentityError{
			Code:    CodeChallengeRequired,
			Message: fmt.Sprintf("sign-in requires the %s challenge, which this client does not support", out.ChallengeName),
		}
	}

	res := out.AuthenticationResult
	if res == nil || aws.ToString(res.IdToken) == "" {
		return nil, &IdentityError{Code: CodeNotAuthorized, Message: "identity provider returned no tokens"}
	}

	if rt := aws.ToString(res.RefreshToken); rt != "" {
		refreshToken = rt
	}
	return newToken(aws.ToString(res.IdToken), aws.ToString(res.AccessToken), refreshToken, res.ExpiresIn, p.now()), nil
}

// usernameFor prefers the canonical username from the id token, since users may sign in
// with their email alias.
func (p *CognitoProvider) usernameFor(tok *oauth2.Token, fallback string) string {
	if claims, err := ParseIDToken(IDToken(tok)); err == nil && claims.Username != "" {
		return claims.Username
	}
	return fallback
}

// refreshSource exchanges a refresh token for fresh tokens.
type refreshSource struct {
	ctx          context.Context
	p            *CognitoProvider
	refreshToken string
}

func (s *refreshSource) Token() (*oauth2.Token, error) {
	if s.refreshToken == "" {
		return nil, shared.ErrTokenExpired
	}

	out, err := s.p.client.InitiateAuth(s.ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeRefreshTokenAuth,
		ClientId:       aws.String(s.p.clientID),
		AuthParameters: map[string]string{"REFRESH_TOKEN": s.refreshToken},
	})
	if err != nil {
		return nil, identityError("refresh session", err)
	}

	return s.p.tokenFromOutput(out, s.refreshToken)
}
