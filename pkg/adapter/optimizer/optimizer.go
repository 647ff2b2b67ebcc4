// 指示: miu200521358
// Package optimizer は保存済みアセットのアニメーションカーブを間引く。
package optimizer

import (
	"bytes"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zlib"

	"github.com/miu200521358/mu_rig_retarget/pkg/adapter/io_model/gltf"
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/logging"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"
)

const (
	optimizedFileMode = 0o644
	interpolationStep = "STEP"
)

// CurveOptimizer はglTFアニメーションのキーを許容誤差内で間引く。
type CurveOptimizer struct {
	// CompressContainer が true の場合は出力をzlibストリームで包む。
	CompressContainer bool
	// ZlibLevel はzlib圧縮レベル。
	ZlibLevel int
}

// NewCurveOptimizer はCurveOptimizerを生成する。
func NewCurveOptimizer() *CurveOptimizer {
	return &CurveOptimizer{ZlibLevel: zlib.DefaultCompression}
}

var _ moutput.IAnimationOptimizer = (*CurveOptimizer)(nil)

// Optimize は指定パスのアセットを読み込み、間引いた結果で上書きする。
func (o *CurveOptimizer) Optimize(path string, level int) error {
	tolerance, lossless, err := moutput.ToleranceForLevel(level)
	if err != nil {
		return err
	}
	asset, err := gltf.ReadAsset(path)
	if err != nil {
		return merrors.NewOptimizerFailed("最適化対象の読み込みに失敗しました: %s", err, path)
	}
	tracks, err := asset.AnimationTracks()
	if err != nil {
		return merrors.NewOptimizerFailed("アニメーションの読み込みに失敗しました: %s", err, path)
	}
	if len(tracks) == 0 {
		return merrors.NewOptimizerFailed("アニメーションがありません: %s", nil, path)
	}

	before := asset.KeyCount()
	after := before
	if !lossless {
		after = 0
		for i := range tracks {
			tracks[i] = DecimateTrack(tracks[i], tolerance)
			after += len(tracks[i].Times)
		}
	}
	encoded, err := asset.Encode(tracks)
	if err != nil {
		return merrors.NewOptimizerFailed("最適化結果の生成に失敗しました: %s", err, path)
	}
	if o.CompressContainer {
		encoded, err = o.compress(encoded)
		if err != nil {
			return merrors.NewOptimizerFailed("最適化結果の圧縮に失敗しました: %s", err, path)
		}
	}
	if err := os.WriteFile(path, encoded, optimizedFileMode); err != nil {
		return merrors.NewOptimizerFailed("最適化結果の保存に失敗しました: %s", err, path)
	}
	logOptimizerInfo("アニメーション最適化完了: file=%s level=%d tolerance=%g keys=%d->%d",
		filepath.Base(path), level, tolerance, before, after)
	return nil
}

// compress はzlibストリームへ圧縮する。
func (o *CurveOptimizer) compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := zlib.NewWriterLevel(&buf, o.ZlibLevel)
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecimateTrack は補間で再現できるキーを取り除く。先頭と末尾のキーは必ず残す。
func DecimateTrack(track gltf.AnimationTrack, tolerance float64) gltf.AnimationTrack {
	count := len(track.Times)
	if count <= 2 {
		return track
	}
	kept := make([]int, 0, count)
	kept = append(kept, 0)
	if track.Interpolation == interpolationStep {
		for i := 1; i < count-1; i++ {
			if !withinTolerance(track.Values[i], track.Values[kept[len(kept)-1]], tolerance) {
				kept = append(kept, i)
			}
		}
	} else {
		anchor := 0
		for candidate := 2; candidate < count; candidate++ {
			if !reproducible(track, anchor, candidate, tolerance) {
				anchor = candidate - 1
				kept = append(kept, anchor)
			}
		}
	}
	kept = append(kept, count-1)

	decimated := track
	decimated.Times = make([]float64, len(kept))
	decimated.Values = make([][]float64, len(kept))
	for i, index := range kept {
		decimated.Times[i] = track.Times[index]
		decimated.Values[i] = track.Values[index]
	}
	return decimated
}

// reproducible は anchor と end の補間で間のキーが許容誤差内に収まるか判定する。
func reproducible(track gltf.AnimationTrack, anchor, end int, tolerance float64) bool {
	span := track.Times[end] - track.Times[anchor]
	if span <= 0 {
		return false
	}
	for i := anchor + 1; i < end; i++ {
		t := (track.Times[i] - track.Times[anchor]) / span
		var interpolated []float64
		if track.IsRotation() && len(track.Values[i]) == 4 {
			interpolated = slerpValues(track.Values[anchor], track.Values[end], t)
			if quaternionDistance(interpolated, track.Values[i]) > tolerance {
				return false
			}
			continue
		}
		interpolated = lerpValues(track.Values[anchor], track.Values[end], t)
		if !withinTolerance(interpolated, track.Values[i], tolerance) {
			return false
		}
	}
	return true
}

func lerpValues(from, to []float64, t float64) []float64 {
	values := make([]float64, len(from))
	for c := range from {
		values[c] = from[c] + (to[c]-from[c])*t
	}
	return values
}

func slerpValues(from, to []float64, t float64) []float64 {
	q1 := mmath.NewQuaternionByValues(from[0], from[1], from[2], from[3])
	q2 := mmath.NewQuaternionByValues(to[0], to[1], to[2], to[3])
	return q1.Slerp(q2, t).Slice()
}

// quaternionDistance は符号の違いを同一視した成分差の最大値を返す。
func quaternionDistance(a, b []float64) float64 {
	sign := 1.0
	if a[0]*b[0]+a[1]*b[1]+a[2]*b[2]+a[3]*b[3] < 0 {
		sign = -1.0
	}
	distance := 0.0
	for c := 0; c < 4; c++ {
		distance = math.Max(distance, math.Abs(a[c]-sign*b[c]))
	}
	return distance
}

func withinTolerance(a, b []float64, tolerance float64) bool {
	if len(a) != len(b) {
		return false
	}
	for c := range a {
		if math.Abs(a[c]-b[c]) > tolerance {
			return false
		}
	}
	return true
}

func logOptimizerInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}
