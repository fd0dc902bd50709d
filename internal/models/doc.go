// Package models defines the core domain models for Circles.
//
// # Models
//
//   - Circle: a recurring meetup group with a moderator and a price per meeting
//   - Membership: a user's standing in one circle, plus their vacation-day budget
//   - Meeting: one scheduled occurrence of a circle
//   - Participation: a user's attendance record for one meeting
//   - Balance: per-currency credit owed to a holder (membership or user)
//
// # Design Principles
//
// 1. **Plain data**: models carry no persistence or transition logic. State
// transitions live in package ledger, persistence in package storage.
// 2. **IDs, not pointers**: relationships are expressed with ID strings.
// 3. **Integer money**: all amounts are minor currency units (cents, grosze).
// Currencies are never converted; balances are tracked per currency code.
package models
