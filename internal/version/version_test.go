package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		// Save original values
		origVersion := Version
		origCommit := Commit
		origBuildTime := BuildTime
		defer func() {
			Version = origVersion
			Commit = origCommit
			BuildTime = origBuildTime
		}()

		Version = "dev"
		Commit = "unknown"
		BuildTime = "unknown"

		result := String()

		if !strings.Contains(result, "dev") {
			t.Errorf("String() = %q, should contain 'dev'", result)
		}
		if !strings.Contains(result, "unknown") {
			t.Errorf("String() = %q, should contain 'unknown'", result)
		}
		if !strings.Contains(result, "built") {
			t.Errorf("String() = %q, should contain 'built'", result)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		origVersion := Version
		origCommit := Commit
		origBuildTime := BuildTime
		defer func() {
			Version = origVersion
			Commit = origCommit
			BuildTime = origBuildTime
		}()

		Version = "2.3.1"
		Commit = "abc1234"
		BuildTime = "2025-06-01T00:00:00Z"

		result := String()

		if result != "2.3.1 (abc1234) built 2025-06-01T00:00:00Z" {
			t.Errorf("String() = %q, unexpected format", result)
		}
	})
}
