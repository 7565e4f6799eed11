package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"depthflow/internal/convert"
	"depthflow/internal/utils"
)

// loadAssets resolves and decodes the layer bundle. Any failure falls back
// to placeholder layers so the window still opens.
func loadAssets(path string) *convert.Bundle {
	root := utils.DiscoverAssets(path)
	if root == "" {
		utils.Warn("No asset bundle found, using placeholder layers")
		return convert.FallbackBundle()
	}

	bundle, err := convert.LoadBundle(root, "")
	if err != nil {
		utils.Error("Failed to load assets from %s: %v", root, err)
		return convert.FallbackBundle()
	}

	w, h := bundle.Size()
	utils.Info("Assets loaded from %s (%dx%d)", bundle.Root, w, h)
	for l := convert.Layer(0); l < convert.LayerCount; l++ {
		if bundle.Status[l] != convert.StatusLoaded {
			utils.Warn("Layer %s: %s", l, bundle.Status[l])
		}
	}
	return bundle
}

func runDecode(texPath, outDir string) error {
	utils.Info("Decoding %s", texPath)
	img, err := convert.DecodeImageFile(texPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}

	base := strings.TrimSuffix(filepath.Base(texPath), filepath.Ext(texPath))
	outPath := filepath.Join(outDir, base+".png")

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", outPath, err)
	}
	utils.Info("Decode successful! Saved to: %s", outPath)
	return nil
}
