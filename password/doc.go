// Package password provides argon2id credential hashing in PHC string
// format and the account password strength policy.
//
// Verify treats an absent stored hash as a clean non-match so that
// accounts created without a credential never error on password checks.
package password
