package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover lists the GoPro .360 files directly inside inputDir
// (non-recursive, case-insensitive extension match), sorted
// lexicographically for deterministic job submission order.
func Discover(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".360") {
			files = append(files, filepath.Join(inputDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// OutputName derives the deterministic destination filename for a source
// file: <stem>_fisheye.mp4, or <stem>_fisheye_masked.mp4 when masking.
func OutputName(source string, masking bool) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if masking {
		return stem + "_fisheye_masked.mp4"
	}
	return stem + "_fisheye.mp4"
}
