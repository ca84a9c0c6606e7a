// Package models defines the core domain models for splitledger.
//
// # Models
//
//   - User: a registered account. Users form tenants: an admin and the
//     sub-users it created share the admin's ID as AdminID.
//   - Group: a set of members, each with a group role (admin, manager,
//     viewer), plus a group-level payment status.
//   - Expense: an amount paid by one member and split across emails.
//
// # Design Principles
//
//  1. Emails are the identity key for membership and are stored lower-cased.
//  2. Relationships use ID strings, never pointers.
//  3. Member list operations are pure methods on Group so they can be tested
//     without a store; the store persists the whole aggregate afterwards.
//  4. Money is decimal.Decimal inside the domain.
package models
