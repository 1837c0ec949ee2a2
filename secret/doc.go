// Package secret resolves credentials referenced from configuration: the
// generation API key, the token signing secret and the payment gateway keys.
//
// A configured value may be:
//   - a literal: "abc123"
//   - an environment expansion: "${GEMINI_API_KEY}" (missing variables are an error)
//   - a reference: "secretref:env:GEMINI_API_KEY" or "secretref:file:/run/secrets/jwt"
//
// References may also appear inline, as in "Bearer secretref:env:TOKEN".
// Resolved values are never logged.
package secret
