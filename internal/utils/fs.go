package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// LayerExtensions lists the file extensions tried for an asset layer, in
// order of preference.
var LayerExtensions = []string{".png", ".jpg", ".jpeg", ".tga", ".tex"}

var errFound = errors.New("found")

// DiscoverAssets returns customPath when it exists, otherwise the first
// existing default location. It returns "" when nothing was found.
func DiscoverAssets(customPath string) string {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			Info("Using assets path: %s", customPath)
			return customPath
		}
		Warn("Assets path NOT FOUND: %s", customPath)
		Info("Falling back to automatic discovery...")
	}

	possiblePaths := []string{"assets", filepath.Join("app", "src", "main", "assets")}
	if home, err := os.UserHomeDir(); err == nil {
		possiblePaths = append(possiblePaths,
			filepath.Join(home, ".local/share/depthflow/assets"),
			filepath.Join(home, ".config/depthflow/assets"),
		)
	}
	possiblePaths = append(possiblePaths, "/usr/share/depthflow/assets")

	for _, p := range possiblePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			Info("Discovered assets at: %s", p)
			return p
		}
	}

	Warn("Could not find an assets folder in any of the expected locations.")
	return ""
}

// FindLayerFile looks for name with any of LayerExtensions inside dir. When
// the direct lookup fails it walks dir and matches on the base name, since
// extracted packages often nest their files under materials/.
func FindLayerFile(dir, name string) string {
	if dir == "" || name == "" {
		return ""
	}

	for _, ext := range LayerExtensions {
		p := filepath.Join(dir, name+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}

	var foundPath string
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		base := d.Name()
		ext := strings.ToLower(filepath.Ext(base))
		if strings.TrimSuffix(base, filepath.Ext(base)) != name {
			return nil
		}
		for _, want := range LayerExtensions {
			if ext == want {
				foundPath = path
				return errFound
			}
		}
		return nil
	})
	return foundPath
}

// CacheDir returns the directory packages are extracted into.
func CacheDir(name string) string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "depthflow", name)
}
