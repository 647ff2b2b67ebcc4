// 指示: miu200521358
package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
)

func TestActionEvaluateInterpolatesAndClamps(t *testing.T) {
	action := NewAction("Animation")
	action.SetKey(1, mmath.NewMat4FromTRS(mmath.ZERO_VEC3, mmath.NewQuaternion(), mmath.ONE_VEC3))
	action.SetKey(3, mmath.NewMat4FromTRS(
		mmath.NewVec3(2, 0, 0),
		mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Z_VEC3, 90),
		mmath.ONE_VEC3,
	))

	testCases := []struct {
		name        string
		frame       float64
		translation mmath.Vec3
		rotation    mmath.Quaternion
	}{
		{name: "before first", frame: -5, translation: mmath.ZERO_VEC3, rotation: mmath.NewQuaternion()},
		{name: "midpoint", frame: 2, translation: mmath.NewVec3(1, 0, 0), rotation: mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Z_VEC3, 45)},
		{name: "after last", frame: 10, translation: mmath.NewVec3(2, 0, 0), rotation: mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Z_VEC3, 90)},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			translation, rotation, _ := action.Evaluate(tc.frame, mmath.NewMat4()).Decompose()
			if !translation.NearEquals(tc.translation, 1e-9) {
				t.Fatalf("translation mismatch: got=%v want=%v", translation, tc.translation)
			}
			if !rotation.NearEquals(tc.rotation, 1e-9) {
				t.Fatalf("rotation mismatch: got=%v want=%v", rotation, tc.rotation)
			}
		})
	}
}

func TestActionSetKeyReplacesSameFrame(t *testing.T) {
	action := NewAction("Animation")
	action.SetKey(2, mmath.NewTranslationMat4(mmath.NewVec3(1, 0, 0)))
	action.SetKey(1, mmath.NewMat4())
	action.SetKey(2, mmath.NewTranslationMat4(mmath.NewVec3(3, 0, 0)))

	if len(action.Translations) != 2 {
		t.Fatalf("translation key count mismatch: %d", len(action.Translations))
	}
	if action.Translations[0].Frame != 1 || action.Translations[1].Frame != 2 {
		t.Fatalf("keys should be sorted: %+v", action.Translations)
	}
	if !action.Translations[1].Value.NearEquals(mmath.NewVec3(3, 0, 0), 1e-12) {
		t.Fatalf("same frame key should be replaced: %v", action.Translations[1].Value)
	}
	start, end, ok := action.FrameRange()
	if !ok || start != 1 || end != 2 {
		t.Fatalf("frame range mismatch: %v %v %v", start, end, ok)
	}
}

func TestActionEvaluateKeepsFallbackForMissingCurves(t *testing.T) {
	action := NewAction("Animation")
	action.Rotations = []QuaternionKey{{Frame: 0, Value: mmath.NewQuaternionFromAxisAngle(mmath.UNIT_X_VEC3, 90)}}
	fallback := mmath.NewTranslationMat4(mmath.NewVec3(0, 4, 0))

	translation, _, _ := action.Evaluate(0, fallback).Decompose()
	if !translation.NearEquals(mmath.NewVec3(0, 4, 0), 1e-12) {
		t.Fatalf("fallback translation should be kept: %v", translation)
	}
}

func TestActionCopyIsIndependent(t *testing.T) {
	action := NewAction("Animation")
	action.SetKey(1, mmath.NewTranslationMat4(mmath.NewVec3(1, 0, 0)))

	copied, err := action.Copy()
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	copied.Translations[0].Value = mmath.NewVec3(9, 9, 9)
	if !action.Translations[0].Value.NearEquals(mmath.NewVec3(1, 0, 0), 1e-12) {
		t.Fatalf("original should not change: %v", action.Translations[0].Value)
	}
	if copied.KeyCount() != action.KeyCount() {
		t.Fatalf("key count mismatch: %d %d", copied.KeyCount(), action.KeyCount())
	}
}

func TestActionSetWeightKeyKeepsOrder(t *testing.T) {
	action := NewAction("Animation")
	action.SetWeightKey(10, []float64{1, 0})
	action.SetWeightKey(1, []float64{0, 0})
	action.SetWeightKey(5, []float64{0.5, 0.25})
	action.SetWeightKey(10, []float64{1, 1})

	frames := make([]float64, 0, len(action.Weights))
	for _, key := range action.Weights {
		frames = append(frames, key.Frame)
	}
	if diff := cmp.Diff([]float64{1, 5, 10}, frames); diff != "" {
		t.Fatalf("weight frames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 1}, action.Weights[2].Values); diff != "" {
		t.Fatalf("same frame key should be replaced (-want +got):\n%s", diff)
	}
	if action.KeyCount() != 3 {
		t.Fatalf("weight keys should be counted: %d", action.KeyCount())
	}
	start, end, ok := action.FrameRange()
	if !ok || start != 1 || end != 10 {
		t.Fatalf("frame range mismatch: %v %v %v", start, end, ok)
	}

	copied, err := action.Copy()
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	copied.Weights[0].Values[0] = 9
	if action.Weights[0].Values[0] != 0 {
		t.Fatalf("copied weights should be independent: %v", action.Weights[0].Values)
	}
}
