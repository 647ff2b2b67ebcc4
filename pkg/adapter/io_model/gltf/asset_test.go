// 指示: miu200521358
package gltf

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"
)

func TestAssetRewritesTracksAndKeepsMesh(t *testing.T) {
	fixture := newExportFixture(t)
	path := filepath.Join(t.TempDir(), "anim.glb")
	if err := NewGltfRepository().Save(path, fixture.scene, moutput.DefaultSaveOptions()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	asset, err := ReadAsset(path)
	if err != nil {
		t.Fatalf("ReadAsset failed: %v", err)
	}
	tracks, err := asset.AnimationTracks()
	if err != nil {
		t.Fatalf("AnimationTracks failed: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(tracks))
	}
	if asset.KeyCount() != 6 {
		t.Fatalf("expected 6 keys, got %d", asset.KeyCount())
	}
	rotationFound := false
	for _, track := range tracks {
		if track.NodeName != "Hips" {
			t.Fatalf("unexpected track node: %s", track.NodeName)
		}
		if track.IsRotation() {
			rotationFound = true
		}
	}
	if !rotationFound {
		t.Fatalf("rotation track not found")
	}

	// 先頭キーだけを残したトラックへ差し替える。
	trimmed := tracks[0]
	trimmed.Times = trimmed.Times[:1]
	trimmed.Values = trimmed.Values[:1]
	if err := asset.Write(path, []AnimationTrack{trimmed}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	rewritten, err := ReadAsset(path)
	if err != nil {
		t.Fatalf("ReadAsset after write failed: %v", err)
	}
	if rewritten.KeyCount() != 5 {
		t.Fatalf("expected 5 keys after rewrite, got %d", rewritten.KeyCount())
	}
	scene, err := NewGltfRepository().Load(path)
	if err != nil {
		t.Fatalf("Load after rewrite failed: %v", err)
	}
	cube := mustGetNode(t, scene, scene.FindByName("Cube"))
	if cube.Mesh == nil || len(cube.Mesh.Positions) != 3 {
		t.Fatalf("mesh lost on rewrite: %+v", cube.Mesh)
	}
}

func TestAssetKeepsMorphWeightTracks(t *testing.T) {
	fixture := newExportFixture(t)
	addCubeMorphs(t, fixture)
	path := filepath.Join(t.TempDir(), "morph.glb")
	if err := NewGltfRepository().Save(path, fixture.scene, moutput.DefaultSaveOptions()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	asset, err := ReadAsset(path)
	if err != nil {
		t.Fatalf("ReadAsset failed: %v", err)
	}
	tracks, err := asset.AnimationTracks()
	if err != nil {
		t.Fatalf("AnimationTracks failed: %v", err)
	}
	var weights *AnimationTrack
	for i := range tracks {
		if tracks[i].Path == gltfPathWeights {
			weights = &tracks[i]
		}
	}
	if weights == nil {
		t.Fatalf("weights track not found")
	}
	if len(weights.Times) != 3 || len(weights.Values) != 3 || len(weights.Values[1]) != 2 {
		t.Fatalf("weights track should hold one row per key: times=%d values=%v", len(weights.Times), weights.Values)
	}
	if err := asset.Write(path, tracks); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	scene, err := NewGltfRepository().Load(path)
	if err != nil {
		t.Fatalf("Load after rewrite failed: %v", err)
	}
	cube := mustGetNode(t, scene, scene.FindByName("Cube"))
	if len(cube.Mesh.Targets) != 2 || cube.Mesh.Targets[1].Name != "Blink" {
		t.Fatalf("morph targets lost on rewrite: %+v", cube.Mesh.Targets)
	}
	if cube.Action == nil || len(cube.Action.Weights) != 3 {
		t.Fatalf("weight keys lost on rewrite: %+v", cube.Action)
	}
}

func TestAssetWriteRejectsMismatchedTrack(t *testing.T) {
	fixture := newExportFixture(t)
	path := filepath.Join(t.TempDir(), "anim.glb")
	if err := NewGltfRepository().Save(path, fixture.scene, moutput.DefaultSaveOptions()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	asset, err := ReadAsset(path)
	if err != nil {
		t.Fatalf("ReadAsset failed: %v", err)
	}
	tracks, err := asset.AnimationTracks()
	if err != nil {
		t.Fatalf("AnimationTracks failed: %v", err)
	}
	broken := tracks[0]
	broken.Values = broken.Values[:1]
	if err := asset.Write(path, []AnimationTrack{broken}); !errors.Is(err, merrors.ErrSaveFailed) {
		t.Fatalf("expected save failure, got %v", err)
	}
}

func TestReadAssetRejectsUnknownExtension(t *testing.T) {
	if _, err := ReadAsset(filepath.Join(t.TempDir(), "anim.fbx")); !errors.Is(err, merrors.ErrFormatNotSupported) {
		t.Fatalf("expected format error, got %v", err)
	}
}
