package git

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Minimum supported git version. Porcelain v2 status and a few log format
// placeholders used by the snapshot builder need at least 2.20.
const (
	minGitMajor = 2
	minGitMinor = 20
)

// Version is a parsed git version number.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Supported reports whether this version meets the minimum requirement.
func (v Version) Supported() bool {
	if v.Major != minGitMajor {
		return v.Major > minGitMajor
	}
	return v.Minor >= minGitMinor
}

// DetectVersion runs `git --version` and parses the result.
func DetectVersion() (Version, error) {
	out, err := exec.Command("git", "--version").Output()
	if err != nil {
		return Version{}, fmt.Errorf("failed to run git --version: %w", err)
	}
	return ParseVersion(string(out))
}

// ParseVersion parses strings like "git version 2.39.2" or
// "git version 2.39.2.windows.1".
func ParseVersion(s string) (Version, error) {
	parts := strings.Fields(s)
	if len(parts) < 3 || parts[0] != "git" || parts[1] != "version" {
		return Version{}, fmt.Errorf("unexpected git version output: %q", strings.TrimSpace(s))
	}

	nums := strings.Split(parts[2], ".")
	if len(nums) < 2 {
		return Version{}, fmt.Errorf("invalid version number: %q", parts[2])
	}

	major, err := strconv.Atoi(nums[0])
	if err != nil {
		return Version{}, fmt.Errorf("invalid major version: %q", nums[0])
	}
	minor, err := strconv.Atoi(nums[1])
	if err != nil {
		return Version{}, fmt.Errorf("invalid minor version: %q", nums[1])
	}

	patch := 0
	if len(nums) >= 3 {
		// Patch may carry non-numeric suffixes on some platforms.
		patch, _ = strconv.Atoi(nums[2])
	}

	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// CheckVersion fails with a clear diagnostic when git is missing or older
// than the minimum supported version.
func CheckVersion() error {
	v, err := DetectVersion()
	if err != nil {
		return err
	}
	if !v.Supported() {
		return fmt.Errorf("git %s is too old, minimum required is %d.%d", v, minGitMajor, minGitMinor)
	}
	return nil
}
