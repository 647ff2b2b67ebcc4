// 指示: miu200521358
package gltf

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"
)

type exportFixture struct {
	scene    *model.Scene
	armature int
	hips     int
	spine    int
	cube     int
}

// newExportFixture はアーマチュア2ボーンと単体メッシュのシーンを生成する。
func newExportFixture(t *testing.T) exportFixture {
	t.Helper()
	scene := model.NewScene()
	mustAppend := func(node *model.Node) int {
		index, err := scene.AppendNode(node)
		if err != nil {
			t.Fatalf("AppendNode failed: %v", err)
		}
		return index
	}
	armature := mustAppend(model.NewNode("Armature", model.NODE_TYPE_ARMATURE, -1))

	hipsNode := model.NewNode("Hips", model.NODE_TYPE_BONE, armature)
	hipsNode.Bone.Head = mmath.NewVec3(0, 1, 0)
	hipsNode.Bone.Tail = mmath.NewVec3(0, 1.5, 0)
	hipsNode.Bone.Rest = mmath.NewTranslationMat4(hipsNode.Bone.Head)
	hips := mustAppend(hipsNode)

	spineNode := model.NewNode("Spine", model.NODE_TYPE_BONE, hips)
	spineNode.Bone.Head = mmath.NewVec3(0, 1.5, 0)
	spineNode.Bone.Tail = mmath.NewVec3(0, 2, 0)
	spineNode.Bone.Rest = mmath.NewTranslationMat4(spineNode.Bone.Head)
	spineNode.Bone.Connected = true
	spine := mustAppend(spineNode)

	cubeNode := model.NewNode("Cube", model.NODE_TYPE_MESH, -1)
	cubeNode.Local = mmath.NewTranslationMat4(mmath.NewVec3(2, 0, 0))
	cubeNode.Mesh = &model.MeshData{
		Positions: []mmath.Vec3{mmath.NewVec3(0, 0, 0), mmath.NewVec3(1, 0, 0), mmath.NewVec3(0, 1, 0)},
		Indices:   []uint32{0, 1, 2},
	}
	cube := mustAppend(cubeNode)

	hipsNode.Action = model.NewAction("Take")
	hipsNode.Action.SetKey(1, mmath.NewTranslationMat4(mmath.NewVec3(0, 1, 0)))
	hipsNode.Action.SetKey(10, mmath.NewTranslationMat4(mmath.NewVec3(0, 2, 0)))

	if err := scene.Evaluate(scene.CurrentFrame); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	return exportFixture{scene: scene, armature: armature, hips: hips, spine: spine, cube: cube}
}

func TestGltfRepositorySaveRoundTrip(t *testing.T) {
	fixture := newExportFixture(t)
	path := filepath.Join(t.TempDir(), "out", "anim.glb")
	options := moutput.DefaultSaveOptions()
	options.NameOverrides = map[int]string{fixture.hips: "mixamorig:Hips"}

	repository := NewGltfRepository()
	if err := repository.Save(path, fixture.scene, options); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := repository.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	armature := loaded.FindByName("Armature")
	if armature < 0 {
		t.Fatalf("armature not found")
	}
	if diff := cmp.Diff([]string{"mixamorig:Hips", "Spine"}, namesOf(loaded, loaded.Bones(armature))); diff != "" {
		t.Fatalf("bones mismatch (-want +got):\n%s", diff)
	}

	hips := mustGetNode(t, loaded, loaded.BoneByName(armature, "mixamorig:Hips"))
	if !hips.Bone.Rest.NearEquals(mmath.NewTranslationMat4(mmath.NewVec3(0, 1, 0)), 1e-6) {
		t.Fatalf("hips rest mismatch: %v", hips.Bone.Rest)
	}
	spine := mustGetNode(t, loaded, loaded.BoneByName(armature, "Spine"))
	if !spine.Bone.Connected || !spine.Bone.Tail.NearEquals(mmath.NewVec3(0, 2, 0), 1e-6) {
		t.Fatalf("spine extras not restored: connected=%v tail=%v", spine.Bone.Connected, spine.Bone.Tail)
	}
	if hips.Action == nil || len(hips.Action.Translations) != 2 {
		t.Fatalf("hips action not restored: %+v", hips.Action)
	}
	if hips.Action.Name != "Animation" {
		t.Fatalf("merged animation name mismatch: %s", hips.Action.Name)
	}
	if math.Abs(hips.Action.Translations[1].Frame-10) > 1e-4 {
		t.Fatalf("key frame mismatch: %v", hips.Action.Translations[1].Frame)
	}

	cube := mustGetNode(t, loaded, loaded.FindByName("Cube"))
	if !cube.IsMesh() || cube.Mesh == nil || len(cube.Mesh.Positions) != 3 || len(cube.Mesh.Indices) != 3 {
		t.Fatalf("mesh not restored: %+v", cube.Mesh)
	}
	if !cube.World.Translation().NearEquals(mmath.NewVec3(2, 0, 0), 1e-6) {
		t.Fatalf("cube translation mismatch: %v", cube.World.Translation())
	}
	if loaded.Fps != 30 || loaded.FrameStart != 1 || loaded.FrameEnd != 250 {
		t.Fatalf("scene settings mismatch: fps=%v range=%d-%d", loaded.Fps, loaded.FrameStart, loaded.FrameEnd)
	}
}

func TestGltfRepositorySaveEmbeddedGltf(t *testing.T) {
	fixture := newExportFixture(t)
	path := filepath.Join(t.TempDir(), "anim.gltf")
	options := moutput.DefaultSaveOptions()
	options.Format = moutput.EXPORT_FORMAT_GLTF

	repository := NewGltfRepository()
	if err := repository.Save(path, fixture.scene, options); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	doc, _, _, err := readDocument(path)
	if err != nil {
		t.Fatalf("readDocument failed: %v", err)
	}
	if len(doc.Buffers) != 1 || doc.Buffers[0].URI == "" {
		t.Fatalf("embedded buffer expected: %+v", doc.Buffers)
	}
	if _, err := repository.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
}

func TestGltfRepositorySaveSelectionReparentsAndSkipsAnimation(t *testing.T) {
	fixture := newExportFixture(t)
	path := filepath.Join(t.TempDir(), "partial.glb")
	options := moutput.DefaultSaveOptions()
	options.Selection = []int{fixture.hips, fixture.cube}

	if err := NewGltfRepository().Save(path, fixture.scene, options); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	doc, _, _, err := readDocument(path)
	if err != nil {
		t.Fatalf("readDocument failed: %v", err)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(doc.Nodes))
	}
	if diff := cmp.Diff([]int{0, 1}, doc.Scenes[0].Nodes); diff != "" {
		t.Fatalf("roots mismatch (-want +got):\n%s", diff)
	}
	if len(doc.Animations) != 0 {
		t.Fatalf("reparented node animation should be skipped: %d", len(doc.Animations))
	}
	if got := doc.Nodes[0].Translation; len(got) != 3 || math.Abs(got[1]-1) > 1e-6 {
		t.Fatalf("reparented hips should keep world translation: %v", got)
	}
}

func TestGltfRepositorySaveFollowsSelectionOrder(t *testing.T) {
	fixture := newExportFixture(t)
	path := filepath.Join(t.TempDir(), "ordered.glb")
	options := moutput.DefaultSaveOptions()
	options.Selection = []int{fixture.cube, fixture.spine, fixture.armature, fixture.hips}

	if err := NewGltfRepository().Save(path, fixture.scene, options); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	doc, _, _, err := readDocument(path)
	if err != nil {
		t.Fatalf("readDocument failed: %v", err)
	}
	names := make([]string, 0, len(doc.Nodes))
	for _, node := range doc.Nodes {
		names = append(names, node.Name)
	}
	// 親は子より先に出力される。
	if diff := cmp.Diff([]string{"Cube", "Armature", "Hips", "Spine"}, names); diff != "" {
		t.Fatalf("node order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1}, doc.Scenes[0].Nodes); diff != "" {
		t.Fatalf("roots mismatch (-want +got):\n%s", diff)
	}

	loaded, err := NewGltfRepository().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	loadedNames := make([]string, 0)
	for _, index := range loaded.PreOrder() {
		node, _ := loaded.Get(index)
		loadedNames = append(loadedNames, node.Name())
	}
	if diff := cmp.Diff([]string{"Cube", "Armature", "Hips", "Spine"}, loadedNames); diff != "" {
		t.Fatalf("loaded order mismatch (-want +got):\n%s", diff)
	}
}

func TestGltfRepositorySaveZUpConvertsRoots(t *testing.T) {
	scene := model.NewScene()
	node := model.NewNode("Marker", model.NODE_TYPE_GENERIC, -1)
	node.Local = mmath.NewTranslationMat4(mmath.NewVec3(0, 1, 0))
	if _, err := scene.AppendNode(node); err != nil {
		t.Fatalf("AppendNode failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "zup.glb")
	options := moutput.DefaultSaveOptions()
	options.UpAxis = moutput.UP_AXIS_Z

	if err := NewGltfRepository().Save(path, scene, options); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	doc, _, _, err := readDocument(path)
	if err != nil {
		t.Fatalf("readDocument failed: %v", err)
	}
	got := mmath.NewVec3(doc.Nodes[0].Translation[0], doc.Nodes[0].Translation[1], doc.Nodes[0].Translation[2])
	if !got.NearEquals(mmath.NewVec3(0, 0, 1), 1e-6) {
		t.Fatalf("z-up translation mismatch: %v", got)
	}
	if doc.Extras == nil || doc.Extras.UpAxis != "Z" {
		t.Fatalf("up axis extras mismatch: %+v", doc.Extras)
	}
}

func TestGltfRepositorySaveRejectsUnknownFormat(t *testing.T) {
	fixture := newExportFixture(t)
	options := moutput.DefaultSaveOptions()
	options.Format = "FBX"
	if err := NewGltfRepository().Save(filepath.Join(t.TempDir(), "x.fbx"), fixture.scene, options); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

// addCubeMorphs はCubeへモーフ2つとウェイトのアニメーションを追加する。
func addCubeMorphs(t *testing.T, fixture exportFixture) {
	t.Helper()
	cube := mustGetNode(t, fixture.scene, fixture.cube)
	cube.Mesh.Targets = []model.MorphTarget{
		{Name: "Smile", Offsets: []mmath.Vec3{mmath.ZERO_VEC3, mmath.NewVec3(0, 0.1, 0), mmath.ZERO_VEC3}},
		{Name: "Blink", Offsets: []mmath.Vec3{mmath.NewVec3(0, 0, 0.2), mmath.ZERO_VEC3, mmath.ZERO_VEC3}},
	}
	cube.Mesh.Weights = []float64{0.25, 0}
	cube.Action = model.NewAction("Face")
	cube.Action.SetWeightKey(1, []float64{0, 0})
	cube.Action.SetWeightKey(5, []float64{0.5, 1})
	cube.Action.SetWeightKey(10, []float64{1, 0})
}

func TestGltfRepositorySaveMorphTargets(t *testing.T) {
	testCases := []struct {
		name    string
		include bool
	}{
		{name: "included", include: true},
		{name: "excluded", include: false},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			fixture := newExportFixture(t)
			addCubeMorphs(t, fixture)
			path := filepath.Join(t.TempDir(), "morph.glb")
			options := moutput.DefaultSaveOptions()
			options.IncludeMorphTargets = tc.include

			if err := NewGltfRepository().Save(path, fixture.scene, options); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			loaded, err := NewGltfRepository().Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			cube := mustGetNode(t, loaded, loaded.FindByName("Cube"))

			if !tc.include {
				if len(cube.Mesh.Targets) != 0 {
					t.Fatalf("morph targets should not be written: %+v", cube.Mesh.Targets)
				}
				if cube.Action != nil {
					t.Fatalf("weight animation should not be written: %+v", cube.Action)
				}
				return
			}

			names := make([]string, 0, len(cube.Mesh.Targets))
			for _, target := range cube.Mesh.Targets {
				names = append(names, target.Name)
			}
			if diff := cmp.Diff([]string{"Smile", "Blink"}, names); diff != "" {
				t.Fatalf("morph names mismatch (-want +got):\n%s", diff)
			}
			if got := cube.Mesh.Targets[0].Offsets[1]; !got.NearEquals(mmath.NewVec3(0, 0.1, 0), 1e-6) {
				t.Fatalf("morph offset mismatch: %v", got)
			}
			if diff := cmp.Diff([]float64{0.25, 0}, cube.Mesh.Weights); diff != "" {
				t.Fatalf("default weights mismatch (-want +got):\n%s", diff)
			}
			if cube.Action == nil || len(cube.Action.Weights) != 3 {
				t.Fatalf("weight keys mismatch: %+v", cube.Action)
			}
			key := cube.Action.Weights[1]
			if math.Abs(key.Frame-5) > 1e-4 {
				t.Fatalf("weight key frame mismatch: %v", key.Frame)
			}
			if diff := cmp.Diff([]float64{0.5, 1}, key.Values); diff != "" {
				t.Fatalf("weight values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
