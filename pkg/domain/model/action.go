// 指示: miu200521358
package model

import (
	"math"
	"sort"

	"github.com/tiendc/go-deepcopy"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
)

// VectorKey は位置またはスケールのキーを表す。
type VectorKey struct {
	Frame float64
	Value mmath.Vec3
}

// QuaternionKey は回転キーを表す。
type QuaternionKey struct {
	Frame float64
	Value mmath.Quaternion
}

// WeightKey はモーフウェイトのキーを表す。Values はモーフターゲット順。
type WeightKey struct {
	Frame  float64
	Values []float64
}

// Action はノード1つ分の位置・回転・スケールとモーフウェイトのカーブを表す。
type Action struct {
	Name         string
	Translations []VectorKey
	Rotations    []QuaternionKey
	Scales       []VectorKey
	Weights      []WeightKey
}

// NewAction は空のアクションを生成する。
func NewAction(name string) *Action {
	return &Action{Name: name}
}

// KeyCount は全カーブのキー数合計を返す。
func (a *Action) KeyCount() int {
	if a == nil {
		return 0
	}
	return len(a.Translations) + len(a.Rotations) + len(a.Scales) + len(a.Weights)
}

// FrameRange はキーが存在するフレーム範囲を返す。キーが無い場合は ok=false。
func (a *Action) FrameRange() (start float64, end float64, ok bool) {
	if a == nil {
		return 0, 0, false
	}
	start = math.Inf(1)
	end = math.Inf(-1)
	visit := func(frame float64) {
		start = math.Min(start, frame)
		end = math.Max(end, frame)
		ok = true
	}
	for _, key := range a.Translations {
		visit(key.Frame)
	}
	for _, key := range a.Rotations {
		visit(key.Frame)
	}
	for _, key := range a.Scales {
		visit(key.Frame)
	}
	for _, key := range a.Weights {
		visit(key.Frame)
	}
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

// SetKey は行列を分解して指定フレームへキーを登録する。同フレームのキーは置き換える。
func (a *Action) SetKey(frame float64, local mmath.Mat4) {
	translation, rotation, scale := local.Decompose()
	a.Translations = upsertVectorKey(a.Translations, VectorKey{Frame: frame, Value: translation})
	a.Scales = upsertVectorKey(a.Scales, VectorKey{Frame: frame, Value: scale})
	a.Rotations = upsertQuaternionKey(a.Rotations, QuaternionKey{Frame: frame, Value: rotation})
}

// SetWeightKey は指定フレームへモーフウェイトのキーを登録する。同フレームのキーは置き換える。
func (a *Action) SetWeightKey(frame float64, values []float64) {
	key := WeightKey{Frame: frame, Values: append([]float64(nil), values...)}
	pos := sort.Search(len(a.Weights), func(i int) bool { return a.Weights[i].Frame >= frame })
	if pos < len(a.Weights) && a.Weights[pos].Frame == frame {
		a.Weights[pos] = key
		return
	}
	a.Weights = append(a.Weights, WeightKey{})
	copy(a.Weights[pos+1:], a.Weights[pos:])
	a.Weights[pos] = key
}

// Evaluate は指定フレームの姿勢を返す。カーブが無い成分は fallback の値を使う。
func (a *Action) Evaluate(frame float64, fallback mmath.Mat4) mmath.Mat4 {
	translation, rotation, scale := fallback.Decompose()
	if a == nil {
		return fallback
	}
	if len(a.Translations) > 0 {
		translation = evaluateVectorKeys(a.Translations, frame)
	}
	if len(a.Rotations) > 0 {
		rotation = evaluateQuaternionKeys(a.Rotations, frame)
	}
	if len(a.Scales) > 0 {
		scale = evaluateVectorKeys(a.Scales, frame)
	}
	return mmath.NewMat4FromTRS(translation, rotation, scale)
}

// Copy はアクションの深いコピーを返す。
func (a *Action) Copy() (*Action, error) {
	if a == nil {
		return nil, nil
	}
	copied := &Action{}
	if err := deepcopy.Copy(copied, *a); err != nil {
		return nil, err
	}
	return copied, nil
}

func upsertVectorKey(keys []VectorKey, key VectorKey) []VectorKey {
	pos := sort.Search(len(keys), func(i int) bool { return keys[i].Frame >= key.Frame })
	if pos < len(keys) && keys[pos].Frame == key.Frame {
		keys[pos] = key
		return keys
	}
	keys = append(keys, VectorKey{})
	copy(keys[pos+1:], keys[pos:])
	keys[pos] = key
	return keys
}

func upsertQuaternionKey(keys []QuaternionKey, key QuaternionKey) []QuaternionKey {
	pos := sort.Search(len(keys), func(i int) bool { return keys[i].Frame >= key.Frame })
	// 直前キーと同じ半球へそろえて補間の反転を防ぐ。
	if pos > 0 && keys[pos-1].Value.Dot(key.Value) < 0 {
		key.Value = key.Value.Negated()
	}
	if pos < len(keys) && keys[pos].Frame == key.Frame {
		keys[pos] = key
		return keys
	}
	keys = append(keys, QuaternionKey{})
	copy(keys[pos+1:], keys[pos:])
	keys[pos] = key
	return keys
}

func evaluateVectorKeys(keys []VectorKey, frame float64) mmath.Vec3 {
	if frame <= keys[0].Frame {
		return keys[0].Value
	}
	last := keys[len(keys)-1]
	if frame >= last.Frame {
		return last.Value
	}
	next := sort.Search(len(keys), func(i int) bool { return keys[i].Frame > frame })
	prev := keys[next-1]
	t := (frame - prev.Frame) / (keys[next].Frame - prev.Frame)
	return prev.Value.Lerp(keys[next].Value, t)
}

func evaluateQuaternionKeys(keys []QuaternionKey, frame float64) mmath.Quaternion {
	if frame <= keys[0].Frame {
		return keys[0].Value
	}
	last := keys[len(keys)-1]
	if frame >= last.Frame {
		return last.Value
	}
	next := sort.Search(len(keys), func(i int) bool { return keys[i].Frame > frame })
	prev := keys[next-1]
	t := (frame - prev.Frame) / (keys[next].Frame - prev.Frame)
	return prev.Value.Slerp(keys[next].Value, t)
}
