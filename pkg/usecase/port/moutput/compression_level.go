// 指示: miu200521358
package moutput

import "github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"

const (
	// MinCompressionLevel は最小の圧縮レベル。
	MinCompressionLevel = 0
	// MaxCompressionLevel は最大の圧縮レベル。
	MaxCompressionLevel = 4
)

// compressionTolerances は圧縮レベルごとのカーブ間引き許容誤差。レベル0は間引かない。
var compressionTolerances = map[int]float64{
	1: 0,
	2: 1e-7,
	3: 1e-6,
	4: 1e-5,
}

// ToleranceForLevel は圧縮レベルに対応する許容誤差を返す。lossless が true の場合は間引かない。
func ToleranceForLevel(level int) (tolerance float64, lossless bool, err error) {
	if level < MinCompressionLevel || level > MaxCompressionLevel {
		return 0, false, merrors.NewInvalidLevel("圧縮レベルは%d〜%dで指定してください: %d", nil, MinCompressionLevel, MaxCompressionLevel, level)
	}
	if level == MinCompressionLevel {
		return 0, true, nil
	}
	return compressionTolerances[level], false, nil
}
