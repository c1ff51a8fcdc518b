// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// GetConfigDir returns the lethe configuration directory.
// LETHE_CONFIG_DIR wins on every platform; otherwise APPDATA is used on
// Windows and XDG_CONFIG_HOME or the home directory elsewhere.
func GetConfigDir() string {
	if dir := os.Getenv("LETHE_CONFIG_DIR"); dir != "" {
		return dir
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "lethe")
		}
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, ".lethe")
		}
		return ".lethe"
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "lethe")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lethe"
	}
	return filepath.Join(home, ".lethe")
}

// GetConfigFile returns the path to the main config file
func GetConfigFile() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// GetEnvFile returns the path to the optional dotenv file in the config dir
func GetEnvFile() string {
	return filepath.Join(GetConfigDir(), ".env")
}

// Stem returns the file name of path without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DeriveOutput builds "<dir>/<stem><suffix><ext>" next to the input file.
// A suffix already present at the end of the stem is not repeated.
func DeriveOutput(input, suffix, ext string) string {
	stem := Stem(input)
	if suffix != "" {
		stem = strings.TrimSuffix(stem, suffix)
	}
	return filepath.Join(filepath.Dir(input), stem+suffix+ext)
}

// DeriveRestored builds the output path for a reversed document. The
// anonymized suffix is stripped from the stem before the restored suffix
// is appended.
func DeriveRestored(input, anonymizedSuffix, restoredSuffix string) string {
	stem := Stem(input)
	if anonymizedSuffix != "" {
		stem = strings.TrimSuffix(stem, anonymizedSuffix)
	}
	return filepath.Join(filepath.Dir(input), stem+restoredSuffix+".txt")
}
