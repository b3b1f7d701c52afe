package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ConfirmationCode is the only code [FakeCognito] accepts.
const ConfirmationCode = "123456"

type fakeUser struct {
	password  string
	email     string
	confirmed bool
}

// FakeCognito speaks enough of the Cognito Identity Provider JSON protocol for
// SignUp, ConfirmSignUp, InitiateAuth (password and refresh flows) and GlobalSignOut.
type FakeCognito struct {
	mu       sync.Mutex
	users    map[string]*fakeUser
	refresh  map[string]string
	access   map[string]string
	calls    map[string]int
	issued   int
	tokenTTL time.Duration

	server *httptest.Server
}

// NewFakeCognito starts a fake user pool; it is closed on cleanup.
func NewFakeCognito(t *testing.T) *FakeCognito {
	t.Helper()
	c := &FakeCognito{
		users:    map[string]*fakeUser{},
		refresh:  map[string]string{},
		access:   map[string]string{},
		calls:    map[string]int{},
		tokenTTL: time.Hour,
	}
	c.server = httptest.NewServer(http.HandlerFunc(c.handle))
	t.Cleanup(c.server.Close)
	return c
}

// Endpoint returns the base endpoint to configure the SDK client with.
func (c *FakeCognito) Endpoint() string { return c.server.URL }

// HTTPClient returns a client for the fake's server.
func (c *FakeCognito) HTTPClient() *http.Client { return c.server.Client() }

// AddUser registers a user directly.
func (c *FakeCognito) AddUser(username, password string, confirmed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[username] = &fakeUser{password: password, email: username + "@example.com", confirmed: confirmed}
}

// SetTokenTTL changes the lifetime of tokens issued from now on. A negative TTL issues expired tokens.
func (c *FakeCognito) SetTokenTTL(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokenTTL = d
}

// Calls returns how many times an operation (e.g. "InitiateAuth") was invoked.
func (c *FakeCognito) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Confirmed reports whether username exists and is confirmed.
func (c *FakeCognito) Confirmed(username string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[username]
	return ok && u.confirmed
}

func (c *FakeCognito) handle(w http.ResponseWriter, r *http.Request) {
	op := strings.TrimPrefix(r.Header.Get("X-Amz-Target"), "AWSCognitoIdentityProviderService.")

	var in map[string]any
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		cognitoError(w, "InvalidParameterException", "malformed request body")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[op]++

	switch op {
	case "SignUp":
		c.signUp(w, in)
	case "ConfirmSignUp":
		c.confirmSignUp(w, in)
	case "InitiateAuth":
		c.initiateAuth(w, in)
	case "GlobalSignOut":
		c.globalSignOut(w, in)
	default:
		cognitoError(w, "UnknownOperationException", "unsupported operation "+op)
	}
}

func (c *FakeCognito) signUp(w http.ResponseWriter, in map[string]any) {
	username, _ := in["Username"].(string)
	password, _ := in["Password"].(string)

	if _, exists := c.users[username]; exists {
		cognitoError(w, "UsernameExistsException", "User already exists")
		return
	}
	if len(password) < 8 {
		cognitoError(w, "InvalidPasswordException", "Password did not conform with policy: Password not long enough")
		return
	}

	email := ""
	if attrs, ok := in["UserAttributes"].([]any); ok {
		for _, a := range attrs {
			if m, ok := a.(map[string]any); ok && m["Name"] == "email" {
				email, _ = m["Value"].(string)
			}
		}
	}
	if email == "" {
		cognitoError(w, "InvalidParameterException", "Attributes did not conform to the schema: email: The attribute is required")
		return
	}

	c.users[username] = &fakeUser{password: password, email: email}
	cognitoJSON(w, map[string]any{"UserConfirmed": false, "UserSub": "sub-" + username})
}

func (c *FakeCognito) confirmSignUp(w http.ResponseWriter, in map[string]any) {
	username, _ := in["Username"].(string)
	code, _ := in["ConfirmationCode"].(string)

	u, ok := c.users[username]
	if !ok {
		cognitoError(w, "UserNotFoundException", "Username/client id combination not found.")
		return
	}
	if code != ConfirmationCode {
		cognitoError(w, "CodeMismatchException", "Invalid verification code provided, please try again.")
		return
	}
	u.confirmed = true
	cognitoJSON(w, map[string]any{})
}

func (c *FakeCognito) initiateAuth(w http.ResponseWriter, in map[string]any) {
	params := map[string]string{}
	if m, ok := in["AuthParameters"].(map[string]any); ok {
		for k, v := range m {
			params[k], _ = v.(string)
		}
	}

	switch in["AuthFlow"] {
	case "USER_PASSWORD_AUTH":
		username := params["USERNAME"]
		u, ok := c.users[username]
		if !ok || u.password != params["PASSWORD"] {
			cognitoError(w, "NotAuthorizedException", "Incorrect username or password.")
			return
		}
		if !u.confirmed {
			cognitoError(w, "UserNotConfirmedException", "User is not confirmed.")
			return
		}
		c.issue(w, username, true)
	case "REFRESH_TOKEN_AUTH":
		username, ok := c.refresh[params["REFRESH_TOKEN"]]
		if !ok {
			cognitoError(w, "NotAuthorizedException", "Invalid Refresh Token")
			return
		}
		c.issue(w, username, false)
	default:
		cognitoError(w, "InvalidParameterException", fmt.Sprintf("unsupported auth flow %v", in["AuthFlow"]))
	}
}

func (c *FakeCognito) globalSignOut(w http.ResponseWriter, in map[string]any) {
	token, _ := in["AccessToken"].(string)
	username, ok := c.access[token]
	if !ok {
		cognitoError(w, "NotAuthorizedException", "Access Token has been revoked")
		return
	}
	for t, u := range c.access {
		if u == username {
			delete(c.access, t)
		}
	}
	for t, u := range c.refresh {
		if u == username {
			delete(c.refresh, t)
		}
	}
	cognitoJSON(w, map[string]any{})
}

func (c *FakeCognito) issue(w http.ResponseWriter, username string, withRefresh bool) {
	c.issued++
	exp := time.Now().Add(c.tokenTTL)

	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"cognito:username": username,
		"email":            c.users[username].email,
		"token_use":        "id",
		"exp":              exp.Unix(),
	}).SignedString([]byte("fake-cognito"))
	if err != nil {
		cognitoError(w, "InternalErrorException", err.Error())
		return
	}

	access := fmt.Sprintf("access-%s-%d", username, c.issued)
	c.access[access] = username

	result := map[string]any{
		"IdToken":     idToken,
		"AccessToken": access,
		"ExpiresIn":   int(c.tokenTTL / time.Second),
		"TokenType":   "Bearer",
	}
	if withRefresh {
		refresh := fmt.Sprintf("refresh-%s-%d", username, c.issued)
		c.refresh[refresh] = username
		result["RefreshToken"] = refresh
	}

	cognitoJSON(w, map[string]any{"AuthenticationResult": result, "ChallengeParameters": map[string]string{}})
}

func cognitoJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/x-amz-json-1.1")
	_ = json.NewEncoder(w).Encode(v)
}

func cognitoError(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/x-amz-json-1.1")
	w.Header().Set("X-Amzn-ErrorType", code)
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"__type": code, "message": message})
}
