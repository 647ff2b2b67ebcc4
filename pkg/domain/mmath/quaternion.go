// 指示: miu200521358
package mmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quaternion は回転を表すクォータニオン。要素順はglTFと同じ (x, y, z, w)。
type Quaternion struct {
	X float64
	Y float64
	Z float64
	W float64
}

// NewQuaternion は単位クォータニオンを生成する。
func NewQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// NewQuaternionByValues は要素からクォータニオンを生成する。
func NewQuaternionByValues(x, y, z, w float64) Quaternion {
	return Quaternion{X: x, Y: y, Z: z, W: w}
}

// NewQuaternionFromAxisAngle は軸と度数法の角度からクォータニオンを生成する。
func NewQuaternionFromAxisAngle(axis Vec3, degrees float64) Quaternion {
	q := mgl64.QuatRotate(DegToRad(degrees), mgl64.Vec3{axis.X, axis.Y, axis.Z}.Normalize())
	return newQuaternionFromMgl(q)
}

func newQuaternionFromMgl(q mgl64.Quat) Quaternion {
	return Quaternion{X: q.V[0], Y: q.V[1], Z: q.V[2], W: q.W}
}

func (q Quaternion) mgl() mgl64.Quat {
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}
}

// Muled は q * other を返す。
func (q Quaternion) Muled(other Quaternion) Quaternion {
	return newQuaternionFromMgl(q.mgl().Mul(other.mgl()))
}

// MulVec3 はベクトルを回転させる。
func (q Quaternion) MulVec3(v Vec3) Vec3 {
	r := q.mgl().Rotate(mgl64.Vec3{v.X, v.Y, v.Z})
	return NewVec3(r[0], r[1], r[2])
}

// Normalized は正規化したクォータニオンを返す。
func (q Quaternion) Normalized() Quaternion {
	length := math.Sqrt(q.Dot(q))
	if length == 0 {
		return NewQuaternion()
	}
	return Quaternion{X: q.X / length, Y: q.Y / length, Z: q.Z / length, W: q.W / length}
}

// Dot は内積を返す。
func (q Quaternion) Dot(other Quaternion) float64 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Negated は全要素の符号を反転する。表す回転は同じ。
func (q Quaternion) Negated() Quaternion {
	return Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
}

// Slerp は球面線形補間した値を返す。
func (q Quaternion) Slerp(other Quaternion, t float64) Quaternion {
	if t <= 0 {
		return q
	}
	if t >= 1 {
		return other
	}
	target := other
	if q.Dot(other) < 0 {
		target = other.Negated()
	}
	return newQuaternionFromMgl(mgl64.QuatSlerp(q.mgl(), target.mgl(), t)).Normalized()
}

// ToMat4 は回転行列へ変換する。
func (q Quaternion) ToMat4() Mat4 {
	return Mat4(q.Normalized().mgl().Mat4())
}

// NearEquals は同じ回転を表すか判定する。符号反転は同一とみなす。
func (q Quaternion) NearEquals(other Quaternion, epsilon float64) bool {
	target := other
	if q.Dot(other) < 0 {
		target = other.Negated()
	}
	return math.Abs(q.X-target.X) <= epsilon &&
		math.Abs(q.Y-target.Y) <= epsilon &&
		math.Abs(q.Z-target.Z) <= epsilon &&
		math.Abs(q.W-target.W) <= epsilon
}

// Slice はfloat配列 (x, y, z, w) へ変換する。
func (q Quaternion) Slice() []float64 {
	return []float64{q.X, q.Y, q.Z, q.W}
}

// String は文字列表現を返す。
func (q Quaternion) String() string {
	return fmt.Sprintf("[x=%.5f, y=%.5f, z=%.5f, w=%.5f]", q.X, q.Y, q.Z, q.W)
}
