// Package actions carries out user intents against the catalog API.
//
// Each dispatcher checks the session first (advisory; the server enforces the real
// rules), makes its request, and on success reloads whatever aggregate changed. A failed
// request leaves every cache as it was, with the single exception of the favorite toggle,
// which flips optimistically and reverts.
package actions
