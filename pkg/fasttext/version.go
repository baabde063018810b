package fasttext

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

var (
	Version     = "v0.0.0-in-progress"
	UpstreamSHA = "unknown"
	UpstreamDir = "fastText"
)

// WrapperVersion returns the semantic version populated at build time via
// ldflags. In development it defaults to v0.0.0-in-progress.
func WrapperVersion() string {
	return Version
}

// UpstreamVersion returns the pinned engine commit.
func UpstreamVersion() string {
	return UpstreamSHA
}

// ParsedVersion parses Version. A malformed ldflags value is an error.
func ParsedVersion() (*semver.Version, error) {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("fasttext: wrapper version %q: %w", Version, err)
	}
	return v, nil
}

// SatisfiesVersion reports whether the wrapper version meets constraint, for
// example ">= 0.3.0". Prerelease builds only satisfy constraints that name a
// prerelease.
func SatisfiesVersion(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("fasttext: constraint %q: %w", constraint, err)
	}
	v, err := ParsedVersion()
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}
