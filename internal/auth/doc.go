// Package auth verifies and mints the bearer tokens used by the dashboard API.
//
// Tokens are JWTs signed with an Ed25519 (EdDSA) or RSA (RS256) key. Besides the registered claims they carry
// the tenant the caller belongs to (tenant_id) and, optionally, the user's email and role.
//
// The gateway verifies tokens with a Verifier backed by a KeyProvider (a JWKS endpoint or a JWKS file).
// Development tokens are minted with Mint from a key pair created by the keygen command.
package auth
