package buildinfo

import "testing"

func TestFormatVersion_DevBuild(t *testing.T) {
	originalVersion, originalCommit, originalBuild := Version, CommitHash, BuildTimestamp
	defer func() { Version, CommitHash, BuildTimestamp = originalVersion, originalCommit, originalBuild }()

	Version, CommitHash, BuildTimestamp = "dev", "n/a", "n/a"

	if got, want := FormatVersion(), "Development version"; got != want {
		t.Errorf("FormatVersion() = %q, want %q", got, want)
	}
}

func TestFormatVersion_ProductionBuild(t *testing.T) {
	originalVersion, originalCommit, originalBuild := Version, CommitHash, BuildTimestamp
	defer func() { Version, CommitHash, BuildTimestamp = originalVersion, originalCommit, originalBuild }()

	Version = "v1.2.3"
	CommitHash = "abc123def456"
	BuildTimestamp = "2025-09-30T10:00:00Z"

	want := "v1.2.3 (abc123def456, built at 2025-09-30T10:00:00Z)"
	if got := FormatVersion(); got != want {
		t.Errorf("FormatVersion() = %q, want %q", got, want)
	}
}
