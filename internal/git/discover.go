package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// FindGitBinary locates a usable git executable: PATH first, then the
// install locations of common distributions and GUI clients that bundle
// their own git.
func FindGitBinary() string {
	if path, err := exec.LookPath("git"); err == nil {
		return path
	}

	for _, candidate := range knownGitPaths() {
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func knownGitPaths() []string {
	switch runtime.GOOS {
	case "windows":
		programFiles := os.Getenv("ProgramFiles")
		if programFiles == "" {
			programFiles = `C:\Program Files`
		}
		programFilesX86 := os.Getenv("ProgramFiles(x86)")
		if programFilesX86 == "" {
			programFilesX86 = `C:\Program Files (x86)`
		}
		localAppData := os.Getenv("LOCALAPPDATA")

		paths := []string{
			filepath.Join(programFiles, "Git", "bin", "git.exe"),
			filepath.Join(programFilesX86, "Git", "bin", "git.exe"),
			filepath.Join(localAppData, "Programs", "Git", "bin", "git.exe"),
			filepath.Join(programFilesX86, "SmartGit", "git", "bin", "git.exe"),
			filepath.Join(localAppData, "Atlassian", "SourceTree", "git_local", "bin", "git.exe"),
			filepath.Join(localAppData, "fournova", "Tower", "vendor", "Git", "bin", "git.exe"),
			filepath.Join(localAppData, "Fork", "gitInstance", "bin", "git.exe"),
		}
		// GitHub Desktop ships PortableGit under a hashed directory name
		if matches, err := filepath.Glob(filepath.Join(localAppData, "GitHubDesktop", "app-*", "resources", "app", "git", "cmd", "git.exe")); err == nil {
			paths = append(paths, matches...)
		}
		if matches, err := filepath.Glob(filepath.Join(localAppData, "GitHub", "PortableGit_*", "cmd", "git.exe")); err == nil {
			paths = append(paths, matches...)
		}
		return paths

	case "darwin":
		return []string{
			"/usr/local/git/bin/git",
			"/usr/local/bin/git",
			"/opt/homebrew/bin/git",
			"/usr/bin/git",
		}

	default:
		return []string{
			"/usr/bin/git",
			"/usr/local/bin/git",
		}
	}
}
