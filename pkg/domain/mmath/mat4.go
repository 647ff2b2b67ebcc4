// 指示: miu200521358
package mmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mat4 は列優先の4x4同次変換行列を表す。要素順はglTFと同じ。
type Mat4 [16]float64

// NewMat4 は単位行列を生成する。
func NewMat4() Mat4 {
	return Mat4(mgl64.Ident4())
}

// NewMat4ByValues は列優先の要素配列から行列を生成する。
func NewMat4ByValues(values []float64) (Mat4, error) {
	if len(values) != 16 {
		return NewMat4(), fmt.Errorf("行列の要素数が不正です: %d", len(values))
	}
	var m Mat4
	copy(m[:], values)
	return m, nil
}

// NewRotationMat4 は指定軸まわりの回転行列を度数法の角度から生成する。
func NewRotationMat4(axis Axis, degrees float64) Mat4 {
	radians := DegToRad(degrees)
	switch axis {
	case AXIS_X:
		return Mat4(mgl64.HomogRotate3DX(radians))
	case AXIS_Y:
		return Mat4(mgl64.HomogRotate3DY(radians))
	default:
		return Mat4(mgl64.HomogRotate3DZ(radians))
	}
}

// NewTranslationMat4 は平行移動行列を生成する。
func NewTranslationMat4(v Vec3) Mat4 {
	return Mat4(mgl64.Translate3D(v.X, v.Y, v.Z))
}

// NewScaleMat4 はスケール行列を生成する。
func NewScaleMat4(v Vec3) Mat4 {
	return Mat4(mgl64.Scale3D(v.X, v.Y, v.Z))
}

// NewMat4FromTRS は平行移動・回転・スケールから T*R*S の行列を生成する。
func NewMat4FromTRS(translation Vec3, rotation Quaternion, scale Vec3) Mat4 {
	return NewTranslationMat4(translation).Muled(rotation.ToMat4()).Muled(NewScaleMat4(scale))
}

// Muled は m * other を返す。
func (m Mat4) Muled(other Mat4) Mat4 {
	return Mat4(mgl64.Mat4(m).Mul4(mgl64.Mat4(other)))
}

// Inverted は逆行列を返す。
func (m Mat4) Inverted() Mat4 {
	return Mat4(mgl64.Mat4(m).Inv())
}

// At は行・列を指定して要素を返す。
func (m Mat4) At(row, col int) float64 {
	return m[col*4+row]
}

// Translation は平行移動成分を返す。
func (m Mat4) Translation() Vec3 {
	return NewVec3(m[12], m[13], m[14])
}

// SetTranslation は平行移動成分を差し替えた行列を返す。
func (m Mat4) SetTranslation(v Vec3) Mat4 {
	m[12] = v.X
	m[13] = v.Y
	m[14] = v.Z
	return m
}

// MulVec3 は点として変換した結果を返す。
func (m Mat4) MulVec3(v Vec3) Vec3 {
	r := mgl64.Mat4(m).Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 1})
	return NewVec3(r[0], r[1], r[2])
}

// MulDirection は方向ベクトルとして変換した結果を返す。平行移動は適用しない。
func (m Mat4) MulDirection(v Vec3) Vec3 {
	r := mgl64.Mat4(m).Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 0})
	return NewVec3(r[0], r[1], r[2])
}

// AxisX はX軸列を返す。
func (m Mat4) AxisX() Vec3 {
	return NewVec3(m[0], m[1], m[2])
}

// AxisY はY軸列を返す。ボーンの向きはこの軸で表す。
func (m Mat4) AxisY() Vec3 {
	return NewVec3(m[4], m[5], m[6])
}

// AxisZ はZ軸列を返す。
func (m Mat4) AxisZ() Vec3 {
	return NewVec3(m[8], m[9], m[10])
}

// Scale は各軸列の長さを返す。
func (m Mat4) Scale() Vec3 {
	scale := NewVec3(m.AxisX().Length(), m.AxisY().Length(), m.AxisZ().Length())
	if mgl64.Mat4(m).Det() < 0 {
		scale.X = -scale.X
	}
	return scale
}

// Orientation は回転成分のみの行列を返す。
func (m Mat4) Orientation() Mat4 {
	_, rotation, _ := m.Decompose()
	return rotation.ToMat4()
}

// Decompose は行列を平行移動・回転・スケールへ分解する。
func (m Mat4) Decompose() (Vec3, Quaternion, Vec3) {
	translation := m.Translation()
	scale := m.Scale()

	rot := mgl64.Ident4()
	axes := [3]Vec3{m.AxisX(), m.AxisY(), m.AxisZ()}
	factors := [3]float64{scale.X, scale.Y, scale.Z}
	for col := 0; col < 3; col++ {
		if math.Abs(factors[col]) <= mat4ScaleEpsilon {
			continue
		}
		axis := axes[col].MuledScalar(1 / factors[col])
		rot[col*4+0] = axis.X
		rot[col*4+1] = axis.Y
		rot[col*4+2] = axis.Z
	}
	rotation := newQuaternionFromMgl(mgl64.Mat4ToQuat(rot)).Normalized()
	return translation, rotation, scale
}

// NearEquals は全要素の差が閾値以内か判定する。
func (m Mat4) NearEquals(other Mat4, epsilon float64) bool {
	for i := range m {
		if math.Abs(m[i]-other[i]) > epsilon {
			return false
		}
	}
	return true
}

// IsIdentity は単位行列か判定する。
func (m Mat4) IsIdentity() bool {
	return m.NearEquals(NewMat4(), 1e-10)
}

// Slice はfloat配列へ変換する。
func (m Mat4) Slice() []float64 {
	values := make([]float64, 16)
	copy(values, m[:])
	return values
}

// String は文字列表現を返す。
func (m Mat4) String() string {
	return fmt.Sprintf(
		"[%.5f %.5f %.5f %.5f / %.5f %.5f %.5f %.5f / %.5f %.5f %.5f %.5f / %.5f %.5f %.5f %.5f]",
		m.At(0, 0), m.At(0, 1), m.At(0, 2), m.At(0, 3),
		m.At(1, 0), m.At(1, 1), m.At(1, 2), m.At(1, 3),
		m.At(2, 0), m.At(2, 1), m.At(2, 2), m.At(2, 3),
		m.At(3, 0), m.At(3, 1), m.At(3, 2), m.At(3, 3),
	)
}

const mat4ScaleEpsilon = 1e-12
