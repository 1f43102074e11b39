// Package config manages lockstep configuration persistence.
//
// It handles:
//   - Per-repository provider settings (git binary, LFS locking, lock user)
//   - Status-branch patterns used for cross-branch modification checks
package config
