package object

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version returns the header's version as a semver-compatible
// "vMAJOR.MINOR.0" string, suitable for comparison with
// golang.org/x/mod/semver.
func (h Header) Version() string {
	return fmt.Sprintf("v%d.%d.0", h.VersionMajor, h.VersionMinor)
}

// CheckVersion reports whether a file carrying this header may be loaded by
// a reader built against requiredVersion (also a "vMAJOR.MINOR[.PATCH]"
// string): the file's major version must match exactly, and its minor
// version must be greater than or equal to what the reader requires, since
// later minor versions only add opcodes and sections.
func (h Header) CheckVersion(requiredVersion string) error {
	fileVersion := h.Version()
	if !semver.IsValid(fileVersion) || !semver.IsValid(requiredVersion) {
		return fmt.Errorf("object: invalid version string (file %q, required %q)", fileVersion, requiredVersion)
	}
	if semver.Major(fileVersion) != semver.Major(requiredVersion) {
		return fmt.Errorf("object: incompatible major version: file is %s, reader requires %s", semver.Major(fileVersion), semver.Major(requiredVersion))
	}
	if semver.Compare(semver.MajorMinor(fileVersion), semver.MajorMinor(requiredVersion)) < 0 {
		return fmt.Errorf("object: file version %s is older than the minimum %s this reader requires", fileVersion, requiredVersion)
	}
	return nil
}
