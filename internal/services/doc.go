// Package services implements the client's two external collaborators.
//
// # Catalog API
//
// [APIService] implements [CatalogAPI] over plain HTTP+JSON. When a [SessionSource] is
// attached, every request carries the raw id token in the Authorization header and
// the username in X-User-ID. Non-2xx responses become [*StatusError]. An optional
// rate limit paces outgoing requests; there are no retries.
//
// # Identity Provider
//
// [CognitoProvider] implements [IdentityProvider] against a Cognito user pool app client
// using the AWS SDK: SignUp, ConfirmSignUp, InitiateAuth (USER_PASSWORD_AUTH, and
// REFRESH_TOKEN_AUTH when restoring) and GlobalSignOut. Tokens are carried as
// [oauth2.Token] values with the id token in their extras; [oauth2.ReuseTokenSource]
// decides when a stored session needs refreshing. Sessions are persisted through a
// [TokenStore].
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrServiceUnavailable] : transport failure
//   - [shared.ErrAPIRequest] : non-2xx status or undecodable body ([*StatusError])
//   - [shared.ErrUnauthorized] : 401 or 403 from the catalog API
//   - [shared.ErrAuthFailed] : provider rejection ([*IdentityError], with code and message)
//   - [shared.ErrNoSession] : no remembered session
package services
