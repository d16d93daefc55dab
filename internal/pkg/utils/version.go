// Package utils holds small helpers shared by the commands and the API.
package utils

import "runtime/debug"

// Version describes the build of the running binary.
type Version struct {
	Version   string
	GoVersion string
	Deps      []Dependency
}

// Dependency is one module compiled into the binary.
type Dependency struct {
	Path    string
	Version string
}

// GetVersion reads the build information embedded by the Go toolchain.
func GetVersion() (version Version) {
	// Defaults to main
	version.Version = "main"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		version.Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		// Current git hash
		if setting.Key == "vcs.revision" {
			version.Version = setting.Value
		}

		// The working tree had uncommitted changes
		if setting.Key == "vcs.modified" && setting.Value == "true" {
			version.Version += " (modified)"
		}
	}

	version.GoVersion = info.GoVersion

	for _, dep := range info.Deps {
		version.Deps = append(version.Deps, Dependency{
			Path:    dep.Path,
			Version: dep.Version,
		})
	}

	return version
}
