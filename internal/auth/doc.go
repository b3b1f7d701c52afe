// Package auth bridges the identity provider and the client's session state.
//
// A [Bridge] moves through [StateRestoring], [StateAnonymous], [StateAuthenticating],
// [StateAuthenticated] and [StatePendingVerification]. Provider failures come back as
// [*Error] values carrying the provider's message; the bridge never panics.
package auth
