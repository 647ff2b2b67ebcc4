// 指示: miu200521358
package minteractor

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/miu200521358/mu_rig_retarget/pkg/adapter/io_model/gltf"
	"github.com/miu200521358/mu_rig_retarget/pkg/adapter/optimizer"
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"
)

// recordingOptimizer は呼び出しを記録するだけの最適化。
type recordingOptimizer struct {
	paths  []string
	levels []int
	err    error
}

func (o *recordingOptimizer) Optimize(path string, level int) error {
	o.paths = append(o.paths, path)
	o.levels = append(o.levels, level)
	return o.err
}

// emptyReader は何も追加しない読み込み。
type emptyReader struct{}

func (emptyReader) CanLoad(path string) bool { return true }

func (emptyReader) Load(path string) (*model.Scene, error) { return model.NewScene(), nil }

func (emptyReader) LoadInto(scene *model.Scene, path string) ([]int, error) { return nil, nil }

type progressRecorder struct {
	events []ExportProgressEvent
}

func (r *progressRecorder) ReportExportProgress(event ExportProgressEvent) {
	r.events = append(r.events, event)
}

// writeHeroSkeleton は Pelvis.001/Spine.001 を持つ静止スケルトンを書き出す。
func writeHeroSkeleton(t *testing.T, dir string) string {
	t.Helper()
	skeleton := model.NewScene()
	appendHeroRig(t, skeleton, "Hero", "Pelvis.001", "Spine.001", false)
	path := filepath.Join(dir, "skeleton.glb")
	if err := gltf.NewGltfRepository().Save(path, skeleton, moutput.DefaultSaveOptions()); err != nil {
		t.Fatalf("skeleton save failed: %v", err)
	}
	return path
}

// newHeroDriverScene はフレーム1〜10で動くドライバーのシーンを生成する。
func newHeroDriverScene(t *testing.T) (*model.Scene, heroRig) {
	t.Helper()
	scene := model.NewScene()
	scene.FrameStart = 1
	scene.FrameEnd = 10
	scene.CurrentFrame = 1
	rig := appendHeroRig(t, scene, "Hero", "Pelvis", "Spine", true)
	mustEvaluate(t, scene, scene.CurrentFrame)
	return scene, rig
}

func newHeroUsecase(optimizer moutput.IAnimationOptimizer) *RetargetUsecase {
	repository := gltf.NewGltfRepository()
	return NewRetargetUsecase(RetargetUsecaseDeps{
		AssetReader: repository,
		AssetWriter: repository,
		Optimizer:   optimizer,
	})
}

func TestExportAnimationHeroScenario(t *testing.T) {
	dir := t.TempDir()
	skeletonPath := writeHeroSkeleton(t, dir)
	scene, rig := newHeroDriverScene(t)
	nodeCount := scene.Len()
	recorder := &progressRecorder{}
	fakeOptimizer := &recordingOptimizer{}
	outputPath := filepath.Join(dir, "hero_anim.glb")

	result, err := newHeroUsecase(fakeOptimizer).ExportAnimation(ExportRequest{
		Scene:            scene,
		DriverRootIndex:  rig.armature,
		SkeletonPath:     skeletonPath,
		OutputPath:       outputPath,
		CompressionLevel: 2,
		ProgressReporter: recorder,
	})
	if err != nil {
		t.Fatalf("ExportAnimation failed: %v", err)
	}
	want := &ExportResult{
		OutputPath:    outputPath,
		LinkCount:     3,
		BakedFrames:   10,
		ExportedNodes: 4,
		Tolerance:     1e-7,
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2}, fakeOptimizer.levels); diff != "" {
		t.Fatalf("optimizer level mismatch (-want +got):\n%s", diff)
	}

	wantEvents := []ExportProgressEvent{
		{Type: ExportProgressEventTypeInputValidated, FrameCount: 10},
		{Type: ExportProgressEventTypeSkeletonImported, NodeCount: 3},
		{Type: ExportProgressEventTypeRetargetBound, LinkCount: 3},
		{Type: ExportProgressEventTypePoseBaked, NodeCount: 3, FrameCount: 10},
		{Type: ExportProgressEventTypeExportPartitioned, NodeCount: 4},
		{Type: ExportProgressEventTypeAssetSaved, NodeCount: 4},
		{Type: ExportProgressEventTypeDrivenRemoved, NodeCount: 3},
		{Type: ExportProgressEventTypeAnimationOptimized, NodeCount: 4, LinkCount: 3, FrameCount: 10},
	}
	if diff := cmp.Diff(wantEvents, recorder.events); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}

	if scene.FindByName("Hero.001") >= 0 {
		t.Fatalf("driven armature should be removed from the scene")
	}
	if got := len(scene.PreOrder()); got != nodeCount {
		t.Fatalf("scene should contain only the driver again: got %d nodes, want %d", got, nodeCount)
	}

	exported, err := gltf.NewGltfRepository().Load(outputPath)
	if err != nil {
		t.Fatalf("exported asset should load: %v", err)
	}
	if diff := cmp.Diff([]string{"Hero", "Pelvis", "Spine", "Body"}, namesOf(exported, exported.PreOrder())); diff != "" {
		t.Fatalf("exported names mismatch (-want +got):\n%s", diff)
	}
	armature := exported.FindByName("Hero")
	pelvis := exported.BoneByName(armature, "Pelvis")
	if pelvis < 0 || mustNode(t, exported, pelvis).Action == nil {
		t.Fatalf("exported Pelvis should carry an action")
	}
	for _, frame := range []int{1, 5, 10} {
		mustEvaluate(t, scene, frame)
		mustEvaluate(t, exported, frame)
		driverBasis := mustNode(t, scene, rig.pelvis).Bone.Basis
		exportedBasis := mustNode(t, exported, pelvis).Bone.Basis
		if !exportedBasis.NearEquals(driverBasis, 1e-4) {
			t.Fatalf("frame %d: exported basis mismatch:\n got=%v\nwant=%v", frame, exportedBasis, driverBasis)
		}
	}
}

func TestExportAnimationValidatesBeforeMutation(t *testing.T) {
	dir := t.TempDir()
	skeletonPath := writeHeroSkeleton(t, dir)
	scene, rig := newHeroDriverScene(t)
	outputPath := filepath.Join(dir, "out.glb")

	testCases := []struct {
		name    string
		request ExportRequest
		want    error
	}{
		{name: "scene", request: ExportRequest{DriverRootIndex: rig.armature, SkeletonPath: skeletonPath, OutputPath: outputPath}, want: merrors.ErrMissingInput},
		{name: "driver", request: ExportRequest{Scene: scene, DriverRootIndex: 99, SkeletonPath: skeletonPath, OutputPath: outputPath}, want: merrors.ErrMissingInput},
		{name: "skeleton", request: ExportRequest{Scene: scene, DriverRootIndex: rig.armature, OutputPath: outputPath}, want: merrors.ErrMissingInput},
		{name: "output", request: ExportRequest{Scene: scene, DriverRootIndex: rig.armature, SkeletonPath: skeletonPath}, want: merrors.ErrMissingInput},
		{name: "output ext", request: ExportRequest{Scene: scene, DriverRootIndex: rig.armature, SkeletonPath: skeletonPath, OutputPath: filepath.Join(dir, "out.fbx")}, want: merrors.ErrFormatNotSupported},
		{name: "level", request: ExportRequest{Scene: scene, DriverRootIndex: rig.armature, SkeletonPath: skeletonPath, OutputPath: outputPath, CompressionLevel: 5}, want: merrors.ErrInvalidLevel},
		{name: "skeleton ext", request: ExportRequest{Scene: scene, DriverRootIndex: rig.armature, SkeletonPath: filepath.Join(dir, "skeleton.fbx"), OutputPath: outputPath}, want: merrors.ErrFormatNotSupported},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			fakeOptimizer := &recordingOptimizer{}
			before := scene.Len()
			if _, err := newHeroUsecase(fakeOptimizer).ExportAnimation(tc.request); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if scene.Len() != before {
				t.Fatalf("scene should not change: %d -> %d", before, scene.Len())
			}
			if len(fakeOptimizer.paths) != 0 {
				t.Fatalf("optimizer should not run")
			}
		})
	}
}

func TestExportAnimationRejectsEmptyImport(t *testing.T) {
	dir := t.TempDir()
	scene, rig := newHeroDriverScene(t)
	usecase := NewRetargetUsecase(RetargetUsecaseDeps{
		AssetReader: emptyReader{},
		AssetWriter: gltf.NewGltfRepository(),
		Optimizer:   &recordingOptimizer{},
	})
	_, err := usecase.ExportAnimation(ExportRequest{
		Scene:           scene,
		DriverRootIndex: rig.armature,
		SkeletonPath:    filepath.Join(dir, "skeleton.glb"),
		OutputPath:      filepath.Join(dir, "out.glb"),
	})
	if !errors.Is(err, merrors.ErrEmptyImport) {
		t.Fatalf("expected empty import, got %v", err)
	}
}

func TestExportAnimationKeepsOutputWhenOptimizerFails(t *testing.T) {
	dir := t.TempDir()
	skeletonPath := writeHeroSkeleton(t, dir)
	scene, rig := newHeroDriverScene(t)
	outputPath := filepath.Join(dir, "out.glb")
	failing := &recordingOptimizer{err: errors.New("broken")}

	result, err := newHeroUsecase(failing).ExportAnimation(ExportRequest{
		Scene:            scene,
		DriverRootIndex:  rig.armature,
		SkeletonPath:     skeletonPath,
		OutputPath:       outputPath,
		CompressionLevel: 3,
	})
	if !errors.Is(err, merrors.ErrOptimizerFailed) {
		t.Fatalf("expected optimizer failure, got %v", err)
	}
	if result == nil || result.OutputPath != outputPath {
		t.Fatalf("result should describe the saved output: %+v", result)
	}
	if _, err := gltf.NewGltfRepository().Load(outputPath); err != nil {
		t.Fatalf("unoptimized output should remain loadable: %v", err)
	}
	if scene.FindByName("Hero.001") >= 0 {
		t.Fatalf("driven armature should be removed even when optimization fails")
	}
}

func TestExportAnimationWithCurveOptimizer(t *testing.T) {
	dir := t.TempDir()
	skeletonPath := writeHeroSkeleton(t, dir)
	scene, rig := newHeroDriverScene(t)
	outputPath := filepath.Join(dir, "out.glb")
	frameStart, frameEnd := 1, 5

	result, err := newHeroUsecase(optimizer.NewCurveOptimizer()).ExportAnimation(ExportRequest{
		Scene:            scene,
		DriverRootIndex:  rig.armature,
		SkeletonPath:     skeletonPath,
		OutputPath:       outputPath,
		CompressionLevel: 4,
		FrameStart:       &frameStart,
		FrameEnd:         &frameEnd,
		AnimationName:    "Walk",
	})
	if err != nil {
		t.Fatalf("ExportAnimation failed: %v", err)
	}
	if result.BakedFrames != 5 || result.Tolerance != 1e-5 {
		t.Fatalf("unexpected result: %+v", result)
	}
	asset, err := gltf.ReadAsset(outputPath)
	if err != nil {
		t.Fatalf("ReadAsset failed: %v", err)
	}
	tracks, err := asset.AnimationTracks()
	if err != nil {
		t.Fatalf("AnimationTracks failed: %v", err)
	}
	if len(tracks) == 0 {
		t.Fatalf("optimized output should keep animation tracks")
	}
	for _, track := range tracks {
		if len(track.Times) < 2 || len(track.Times) > 5 {
			t.Fatalf("track %s/%s should keep endpoints within 5 keys: %v", track.NodeName, track.Path, track.Times)
		}
	}
	exported, err := gltf.NewGltfRepository().Load(outputPath)
	if err != nil {
		t.Fatalf("optimized output should load: %v", err)
	}
	pelvis := exported.BoneByName(exported.FindByName("Hero"), "Pelvis")
	mustEvaluate(t, scene, 5)
	mustEvaluate(t, exported, 5)
	want := mustNode(t, scene, rig.pelvis).Bone.Basis
	if got := mustNode(t, exported, pelvis).Bone.Basis; !got.NearEquals(want, 1e-4) {
		t.Fatalf("optimized basis mismatch:\n got=%v\nwant=%v", got, want)
	}
}
