// 指示: miu200521358
package minteractor

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

const defaultOutputExt = ".glb"

var nowFunc = time.Now

// BuildDefaultOutputPath は入力パスから既定の出力パスを生成する。
func BuildDefaultOutputPath(inputPath string) string {
	return buildDefaultOutputPathAt(inputPath, nowFunc())
}

// buildDefaultOutputPathAt は指定時刻で既定の出力パスを生成する。
func buildDefaultOutputPathAt(inputPath string, now time.Time) string {
	dir := filepath.Dir(inputPath)
	ext := filepath.Ext(inputPath)
	base := strings.TrimSpace(strings.TrimSuffix(filepath.Base(inputPath), ext))
	if base == "" {
		return ""
	}
	if !isAssetExt(ext) {
		ext = defaultOutputExt
	}
	stamp := now.Format("20060102150405")
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", base, stamp, ext))
}

// ResolveOutputPath は出力パスを解決し、拡張子を検証する。未指定の場合は既定パスを使う。
func ResolveOutputPath(inputPath string, outputPath string) (string, error) {
	resolved := strings.TrimSpace(outputPath)
	if resolved == "" {
		resolved = BuildDefaultOutputPath(inputPath)
	}
	if resolved == "" {
		return "", merrors.NewMissingInput("出力パスが未指定です", nil)
	}
	if err := validateOutputExt(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

// validateOutputExt は出力拡張子が .glb / .gltf か検証する。
func validateOutputExt(path string) error {
	if !isAssetExt(filepath.Ext(path)) {
		return merrors.NewFormatNotSupported("出力拡張子が .glb / .gltf ではありません: %s", nil, path)
	}
	return nil
}

func isAssetExt(ext string) bool {
	return strings.EqualFold(ext, ".glb") || strings.EqualFold(ext, ".gltf")
}
