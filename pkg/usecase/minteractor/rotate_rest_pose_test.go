// 指示: miu200521358
package minteractor

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/miu200521358/mu_rig_retarget/pkg/adapter/io_model/gltf"
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"
)

func TestRotateRestPoseUsecaseFromFile(t *testing.T) {
	dir := t.TempDir()
	fixture := newRestPoseFixture(t)
	inputPath := filepath.Join(dir, "rig.glb")
	options := moutput.DefaultSaveOptions()
	options.AnimationMode = moutput.ANIMATION_MODE_NONE
	if err := gltf.NewGltfRepository().Save(inputPath, fixture.scene, options); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	outputPath := filepath.Join(dir, "rotated.glb")

	result, err := newHeroUsecase(&recordingOptimizer{}).RotateRestPose(RotateRequest{
		InputPath:     inputPath,
		ArmatureIndex: -1,
		ArmatureName:  "Armature",
		Axis:          mmath.AXIS_Z,
		Angle:         -90,
		OutputPath:    outputPath,
	})
	if err != nil {
		t.Fatalf("RotateRestPose failed: %v", err)
	}
	if result.OutputPath != outputPath || result.Rotation.BoneCount != 3 || result.Rotation.RestoredCount != 1 {
		t.Fatalf("unexpected result: %+v %+v", result, result.Rotation)
	}

	rotated, err := gltf.NewGltfRepository().Load(outputPath)
	if err != nil {
		t.Fatalf("rotated asset should load: %v", err)
	}
	armature := rotated.FindByName("Armature")
	root := mustNode(t, rotated, rotated.BoneByName(armature, "Root")).Bone
	if !root.Tail.NearEquals(mmath.NewVec3(1, 0, 0), 1e-6) {
		t.Fatalf("rotated root tail mismatch: %v", root.Tail)
	}
	if got := root.Length(); math.Abs(got-1) > 1e-6 {
		t.Fatalf("root length should be kept: %v", got)
	}
	before := mustNode(t, fixture.scene, fixture.prop).World
	after := mustNode(t, rotated, rotated.FindByName("Prop")).World
	if !after.NearEquals(before, 1e-6) {
		t.Fatalf("attachment world should be kept:\n got=%v\nwant=%v", after, before)
	}
}

func TestRotateRestPoseUsecaseKeepsSceneWithoutOutput(t *testing.T) {
	fixture := newRestPoseFixture(t)
	result, err := newHeroUsecase(&recordingOptimizer{}).RotateRestPose(RotateRequest{
		Scene:         fixture.scene,
		ArmatureIndex: fixture.armature,
		Axis:          mmath.AXIS_X,
		Angle:         90,
	})
	if err != nil {
		t.Fatalf("RotateRestPose failed: %v", err)
	}
	if result.Scene != fixture.scene || result.OutputPath != "" {
		t.Fatalf("in-memory rotation should return the same scene without saving: %+v", result)
	}
}

func TestRotateRestPoseUsecaseErrors(t *testing.T) {
	fixture := newRestPoseFixture(t)
	testCases := []struct {
		name    string
		request RotateRequest
		want    error
	}{
		{name: "no scene", request: RotateRequest{ArmatureIndex: -1, Axis: mmath.AXIS_Z}, want: merrors.ErrMissingInput},
		{name: "no active armature", request: RotateRequest{Scene: fixture.scene, ArmatureIndex: -1, Axis: mmath.AXIS_Z}, want: merrors.ErrMissingInput},
		{name: "unknown armature", request: RotateRequest{Scene: fixture.scene, ArmatureIndex: -1, ArmatureName: "Nope", Axis: mmath.AXIS_Z}, want: merrors.ErrMissingInput},
		{name: "mesh selected", request: RotateRequest{Scene: fixture.scene, ArmatureIndex: fixture.prop, Axis: mmath.AXIS_Z}, want: merrors.ErrNotArmature},
		{name: "mesh by name", request: RotateRequest{Scene: fixture.scene, ArmatureIndex: -1, ArmatureName: "Prop", Axis: mmath.AXIS_Z}, want: merrors.ErrNotArmature},
		{name: "input ext", request: RotateRequest{InputPath: filepath.Join(t.TempDir(), "rig.fbx"), ArmatureIndex: -1, ArmatureName: "Armature", Axis: mmath.AXIS_Z}, want: merrors.ErrFormatNotSupported},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := newHeroUsecase(&recordingOptimizer{}).RotateRestPose(tc.request); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
