// Package ir provides the opaque payload values carried by queries and their
// canonical encoding.
//
// Need filters, insert documents and update values are user data the normalizer
// never interprets. They are held as a sealed IRValue tree so they can be hashed
// and compared deterministically.
//
// Key design constraints:
//   - Integers are int64; other numbers keep their RFC 8785 text (IRNumber)
//   - ir imports nothing internal
//   - MarshalCanonical (RFC 8785) is the only encoding used for hashing
package ir
