package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// ErrNoVersion is returned when a version cannot be determined.
var ErrNoVersion = errors.New("no version found")

// VersionReader reads the version metadata of a compiler binary.
type VersionReader interface {
	ReadVersion(ctx context.Context, binaryPath string) (string, error)
}

// ExecVersionReader runs the compiler and parses its banner.
// cl.exe prints its banner to stderr when run without arguments;
// clang and gcc print it for --version.
type ExecVersionReader struct {
	Args    []string
	Timeout time.Duration
}

var bannerVersion = regexp.MustCompile(`(?i)version\s+(\d+\.\d+(?:\.\d+)*)`)

// ReadVersion implements VersionReader.
func (r ExecVersionReader) ReadVersion(ctx context.Context, binaryPath string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, binaryPath, r.Args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	// cl.exe exits non-zero without input files; the banner is still printed.
	runErr := cmd.Run()

	if m := bannerVersion.FindSubmatch(out.Bytes()); m != nil {
		return string(m[1]), nil
	}
	if runErr != nil {
		return "", fmt.Errorf("failed to run %s: %w", binaryPath, runErr)
	}
	return "", fmt.Errorf("%w in output of %s", ErrNoVersion, binaryPath)
}

// PathVersionReader takes the version from the install layout, e.g.
// .../VC/Tools/MSVC/14.29.30133/bin/Hostx64/x64/cl.exe.
// MSVC toolset directories 14.x hold compiler version 19.x.
type PathVersionReader struct{}

var dottedVersion = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)*$`)

// ReadVersion implements VersionReader.
func (PathVersionReader) ReadVersion(_ context.Context, binaryPath string) (string, error) {
	dir := filepath.Dir(binaryPath)
	for {
		base := filepath.Base(dir)
		if dottedVersion.MatchString(base) {
			parts := strings.Split(base, ".")
			if parts[0] == "14" {
				parts[0] = "19"
			}
			return strings.Join(parts, "."), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w in path %s", ErrNoVersion, binaryPath)
}

// ChainVersionReader tries each reader in order.
type ChainVersionReader []VersionReader

// ReadVersion implements VersionReader.
func (c ChainVersionReader) ReadVersion(ctx context.Context, binaryPath string) (string, error) {
	var errs []error
	for _, r := range c {
		v, err := r.ReadVersion(ctx, binaryPath)
		if err == nil {
			return v, nil
		}
		errs = append(errs, err)
	}
	return "", errors.Join(errs...)
}

// DefaultVersionReader runs the binary, then falls back to the install path.
func DefaultVersionReader() VersionReader {
	return ChainVersionReader{ExecVersionReader{}, PathVersionReader{}}
}

// CompatibilityVersion reduces a compiler version to the major.minor form
// used by -fms-compatibility-version. Invalid input yields "".
func CompatibilityVersion(version string) string {
	v := canonical(version)
	if v == "" {
		return ""
	}
	mm := strings.TrimPrefix(semver.MajorMinor(v), "v")
	major, minor, ok := strings.Cut(mm, ".")
	if !ok {
		return mm
	}
	// MSVC versions keep a two-digit minor: 19.00, 19.29.
	if n, err := strconv.Atoi(minor); err == nil && n < 10 {
		minor = fmt.Sprintf("%02d", n)
	}
	return major + "." + minor
}

// exists reports whether path names a regular file.
func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
