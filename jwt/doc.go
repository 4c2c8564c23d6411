// Package jwt issues and validates access tokens carrying the account
// identity (uid + username). HS256 with a shared server secret is the
// default; ed25519 is available for split sign/verify deployments.
package jwt
