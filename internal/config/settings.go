package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// configFileName is the settings file kept inside the .git directory so it
// never shows up as an untracked file.
const configFileName = ".lockstep_config"

// Settings represents the persisted provider settings for a repository
type Settings struct {
	BinaryPath           *string  `json:"binaryPath,omitempty"`
	UsingGitLfsLocking   *bool    `json:"usingGitLfsLocking,omitempty"`
	LfsUserName          *string  `json:"lfsUserName,omitempty"`
	StatusBranchPatterns []string `json:"statusBranchPatterns,omitempty"`
	ContentDirs          []string `json:"contentDirs,omitempty"`
	LockablePatterns     []string `json:"lockablePatterns,omitempty"`
}

func configPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".git", configFileName)
}

// GetBinaryPath returns the configured git binary path, or "" when unset.
func (s *Settings) GetBinaryPath() string {
	if s.BinaryPath != nil {
		return *s.BinaryPath
	}
	return ""
}

// GetUsingGitLfsLocking reports whether LFS locking is enabled.
func (s *Settings) GetUsingGitLfsLocking() bool {
	if s.UsingGitLfsLocking != nil {
		return *s.UsingGitLfsLocking
	}
	return false
}

// GetLfsUserName returns the configured lock user, or "" when unset.
func (s *Settings) GetLfsUserName() string {
	if s.LfsUserName != nil {
		return *s.LfsUserName
	}
	return ""
}

// GetStatusBranchPatterns returns the configured status-branch patterns.
func (s *Settings) GetStatusBranchPatterns() []string {
	return s.StatusBranchPatterns
}

// GetContentDirs returns the tracked content directories, defaulting to
// ["Content"].
func (s *Settings) GetContentDirs() []string {
	if len(s.ContentDirs) == 0 {
		return []string{"Content"}
	}
	return s.ContentDirs
}

// GetLockablePatterns returns the wildcard patterns probed for the lockable
// attribute, defaulting to the usual binary-asset suffixes.
func (s *Settings) GetLockablePatterns() []string {
	if len(s.LockablePatterns) == 0 {
		return []string{"*.uasset", "*.umap"}
	}
	return s.LockablePatterns
}

// GetSettings reads the repository settings, returning defaults when no
// settings file exists.
func GetSettings(repoRoot string) (*Settings, error) {
	data, err := os.ReadFile(configPath(repoRoot))
	if err != nil {
		// Settings don't exist - return default
		return &Settings{}, nil
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return &settings, nil
}

// SaveSettings writes the repository settings.
func SaveSettings(repoRoot string, settings *Settings) error {
	settingsJSON, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	return os.WriteFile(configPath(repoRoot), settingsJSON, 0600)
}

// GetBinaryPath returns the configured git binary path, or "" when unset.
func GetBinaryPath(repoRoot string) (string, error) {
	settings, err := GetSettings(repoRoot)
	if err != nil {
		return "", err
	}
	if settings.BinaryPath != nil {
		return *settings.BinaryPath, nil
	}
	return "", nil
}

// SetBinaryPath updates the git binary path in the settings.
func SetBinaryPath(repoRoot string, path string) error {
	settings, err := GetSettings(repoRoot)
	if err != nil {
		settings = &Settings{}
	}
	settings.BinaryPath = &path
	return SaveSettings(repoRoot, settings)
}

// GetUsingGitLfsLocking returns whether LFS locking is enabled. Defaults to false.
func GetUsingGitLfsLocking(repoRoot string) (bool, error) {
	settings, err := GetSettings(repoRoot)
	if err != nil {
		return false, err
	}
	if settings.UsingGitLfsLocking != nil {
		return *settings.UsingGitLfsLocking, nil
	}
	return false, nil
}

// SetUsingGitLfsLocking updates the LFS locking flag.
func SetUsingGitLfsLocking(repoRoot string, enabled bool) error {
	settings, err := GetSettings(repoRoot)
	if err != nil {
		settings = &Settings{}
	}
	settings.UsingGitLfsLocking = &enabled
	return SaveSettings(repoRoot, settings)
}

// GetLfsUserName returns the configured lock user, or "" when unset. When
// empty the caller should fall back to the git user.name.
func GetLfsUserName(repoRoot string) (string, error) {
	settings, err := GetSettings(repoRoot)
	if err != nil {
		return "", err
	}
	if settings.LfsUserName != nil {
		return *settings.LfsUserName, nil
	}
	return "", nil
}

// SetLfsUserName updates the lock user in the settings.
func SetLfsUserName(repoRoot string, name string) error {
	settings, err := GetSettings(repoRoot)
	if err != nil {
		settings = &Settings{}
	}
	settings.LfsUserName = &name
	return SaveSettings(repoRoot, settings)
}

// GetStatusBranchPatterns returns the configured status-branch patterns.
func GetStatusBranchPatterns(repoRoot string) ([]string, error) {
	settings, err := GetSettings(repoRoot)
	if err != nil {
		return nil, err
	}
	return settings.StatusBranchPatterns, nil
}

// GetContentDirs returns the directories whose state the provider tracks.
// Defaults to ["Content"] when unset.
func GetContentDirs(repoRoot string) ([]string, error) {
	settings, err := GetSettings(repoRoot)
	if err != nil {
		return nil, err
	}
	if len(settings.ContentDirs) == 0 {
		return []string{"Content"}, nil
	}
	return settings.ContentDirs, nil
}

// GetLockablePatterns returns the wildcard patterns probed for the lockable
// attribute at connect time. Defaults to the usual binary-asset suffixes.
func GetLockablePatterns(repoRoot string) ([]string, error) {
	settings, err := GetSettings(repoRoot)
	if err != nil {
		return nil, err
	}
	if len(settings.LockablePatterns) == 0 {
		return []string{"*.uasset", "*.umap"}, nil
	}
	return settings.LockablePatterns, nil
}
