// 指示: miu200521358
package gltf

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

// writeGLBFileForTestWithBin はテスト用GLBを書き出す。
func writeGLBFileForTestWithBin(t *testing.T, path string, doc map[string]any, binChunk []byte) {
	t.Helper()
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}
	jsonPadSize := (4 - (len(jsonBytes) % 4)) % 4
	if jsonPadSize > 0 {
		jsonBytes = append(jsonBytes, bytes.Repeat([]byte(" "), jsonPadSize)...)
	}
	binBytes := append([]byte(nil), binChunk...)
	if len(binBytes) > 0 {
		binPadSize := (4 - (len(binBytes) % 4)) % 4
		if binPadSize > 0 {
			binBytes = append(binBytes, bytes.Repeat([]byte{0x00}, binPadSize)...)
		}
	}

	totalLength := uint32(12 + 8 + len(jsonBytes))
	if len(binBytes) > 0 {
		totalLength += uint32(8 + len(binBytes))
	}
	var buf bytes.Buffer
	header := []uint32{0x46546C67, 2, totalLength, uint32(len(jsonBytes)), 0x4E4F534A}
	for _, value := range header {
		if err := binary.Write(&buf, binary.LittleEndian, value); err != nil {
			t.Fatalf("write header failed: %v", err)
		}
	}
	buf.Write(jsonBytes)
	if len(binBytes) > 0 {
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(binBytes))); err != nil {
			t.Fatalf("write bin chunk length failed: %v", err)
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint32(0x004E4942)); err != nil {
			t.Fatalf("write bin chunk type failed: %v", err)
		}
		buf.Write(binBytes)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write file failed: %v", err)
	}
}

// float32Bytes はfloat値をリトルエンディアンのfloat32列へ変換する。
func float32Bytes(values ...float64) []byte {
	raw := make([]byte, 0, len(values)*4)
	for _, value := range values {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(float32(value)))
	}
	return raw
}

func mustGetNode(t *testing.T, scene *model.Scene, index int) *model.Node {
	t.Helper()
	node, err := scene.Get(index)
	if err != nil {
		t.Fatalf("Get(%d) failed: %v", index, err)
	}
	return node
}

func TestGltfRepositoryLoadClassifiesSkinJoints(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "skeleton.glb")
	doc := map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"nodes": []any{
			map[string]any{"name": "Armature", "children": []int{1}},
			map[string]any{"name": "Hips", "translation": []float64{0, 1, 0}, "children": []int{2}},
			map[string]any{"name": "Spine", "translation": []float64{0, 0.5, 0}, "children": []int{3}},
			map[string]any{"name": "Prop"},
		},
		"skins": []any{
			map[string]any{"joints": []int{1, 2}, "skeleton": 0},
		},
	}
	writeGLBFileForTestWithBin(t, path, doc, nil)

	repository := NewGltfRepository()
	scene, err := repository.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	armatureIndex := scene.FindByName("Armature")
	if armatureIndex < 0 {
		t.Fatalf("armature not found")
	}
	if !mustGetNode(t, scene, armatureIndex).IsArmature() {
		t.Fatalf("Armature should be classified as armature")
	}
	hipsIndex := scene.BoneByName(armatureIndex, "Hips")
	spineIndex := scene.BoneByName(armatureIndex, "Spine")
	if hipsIndex < 0 || spineIndex < 0 {
		t.Fatalf("bones not found: hips=%d spine=%d", hipsIndex, spineIndex)
	}
	hips := mustGetNode(t, scene, hipsIndex)
	if !hips.Bone.Head.NearEquals(mmath.NewVec3(0, 1, 0), 1e-9) {
		t.Fatalf("hips head mismatch: %v", hips.Bone.Head)
	}
	if !hips.Bone.Tail.NearEquals(mmath.NewVec3(0, 1.5, 0), 1e-9) {
		t.Fatalf("hips tail mismatch: %v", hips.Bone.Tail)
	}
	spine := mustGetNode(t, scene, spineIndex)
	if !spine.Bone.Tail.NearEquals(mmath.NewVec3(0, 2, 0), 1e-9) {
		t.Fatalf("spine tail should reuse parent length: %v", spine.Bone.Tail)
	}

	propIndex := scene.FindByName("Prop")
	prop := mustGetNode(t, scene, propIndex)
	if prop.ParentIndex != armatureIndex || prop.ParentBoneName != "Spine" {
		t.Fatalf("prop should be parented to Spine bone: parent=%d bone=%q", prop.ParentIndex, prop.ParentBoneName)
	}
	if !prop.World.Translation().NearEquals(mmath.NewVec3(0, 1.5, 0), 1e-9) {
		t.Fatalf("prop world mismatch: %v", prop.World.Translation())
	}
}

func TestGltfRepositoryLoadSynthesizesArmatureForRootJoints(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "joints.glb")
	doc := map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"nodes": []any{
			map[string]any{"name": "Root", "children": []int{1}},
			map[string]any{"name": "Tip", "translation": []float64{0, 2, 0}},
		},
		"skins": []any{
			map[string]any{"joints": []int{0, 1}},
		},
	}
	writeGLBFileForTestWithBin(t, path, doc, nil)

	scene, err := NewGltfRepository().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	roots := scene.Roots()
	if len(roots) != 1 {
		t.Fatalf("expected one root, got %v", roots)
	}
	armature := mustGetNode(t, scene, roots[0])
	if !armature.IsArmature() {
		t.Fatalf("synthesized root should be armature: %s", armature.NodeType)
	}
	got := namesOf(scene, scene.Bones(roots[0]))
	if diff := cmp.Diff([]string{"Root", "Tip"}, got); diff != "" {
		t.Fatalf("bones mismatch (-want +got):\n%s", diff)
	}
}

func TestGltfRepositoryLoadImportsAnimation(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "anim.glb")
	bin := append(float32Bytes(0, 1), float32Bytes(0, 0, 0, 3, 0, 0)...)
	doc := map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"nodes": []any{
			map[string]any{"name": "Cube"},
		},
		"animations": []any{
			map[string]any{
				"name":     "Move",
				"channels": []any{map[string]any{"sampler": 0, "target": map[string]any{"node": 0, "path": "translation"}}},
				"samplers": []any{map[string]any{"input": 0, "output": 1, "interpolation": "LINEAR"}},
			},
		},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": 5126, "count": 2, "type": "SCALAR"},
			map[string]any{"bufferView": 1, "componentType": 5126, "count": 2, "type": "VEC3"},
		},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 8},
			map[string]any{"buffer": 0, "byteOffset": 8, "byteLength": 24},
		},
		"buffers": []any{map[string]any{"byteLength": len(bin)}},
	}
	writeGLBFileForTestWithBin(t, path, doc, bin)

	scene, err := NewGltfRepository().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if scene.FrameStart != 0 || scene.FrameEnd != 30 {
		t.Fatalf("frame range mismatch: %d-%d", scene.FrameStart, scene.FrameEnd)
	}
	cube := mustGetNode(t, scene, scene.FindByName("Cube"))
	if cube.Action == nil || cube.Action.Name != "Move" || len(cube.Action.Translations) != 2 {
		t.Fatalf("action not imported: %+v", cube.Action)
	}
	if err := scene.Evaluate(15); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !cube.World.Translation().NearEquals(mmath.NewVec3(1.5, 0, 0), 1e-6) {
		t.Fatalf("interpolated translation mismatch: %v", cube.World.Translation())
	}
}

func TestGltfRepositoryLoadIntoKeepsNamesUnique(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "cube.glb")
	doc := map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"nodes": []any{map[string]any{"name": "Cube"}},
	}
	writeGLBFileForTestWithBin(t, path, doc, nil)

	scene := model.NewScene()
	if _, err := scene.AppendNode(model.NewNode("Cube", model.NODE_TYPE_GENERIC, -1)); err != nil {
		t.Fatalf("AppendNode failed: %v", err)
	}
	roots, err := NewGltfRepository().LoadInto(scene, path)
	if err != nil {
		t.Fatalf("LoadInto failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Cube.001"}, namesOf(scene, roots)); diff != "" {
		t.Fatalf("roots mismatch (-want +got):\n%s", diff)
	}
}

func TestGltfRepositoryLoadErrors(t *testing.T) {
	tempDir := t.TempDir()
	badMagic := filepath.Join(tempDir, "bad.glb")
	if err := os.WriteFile(badMagic, bytes.Repeat([]byte{0x01}, 32), 0o644); err != nil {
		t.Fatalf("write file failed: %v", err)
	}

	cases := []struct {
		name string
		path string
		want error
	}{
		{name: "missing", path: filepath.Join(tempDir, "missing.glb"), want: merrors.ErrMissingInput},
		{name: "extension", path: filepath.Join(tempDir, "model.fbx"), want: merrors.ErrFormatNotSupported},
		{name: "magic", path: badMagic, want: merrors.ErrParseFailed},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGltfRepository().Load(tc.path)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGltfRepositoryReportsLoadProgress(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "cube.glb")
	doc := map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"nodes": []any{map[string]any{"name": "Cube"}},
	}
	writeGLBFileForTestWithBin(t, path, doc, nil)

	events := make([]LoadProgressEventType, 0)
	repository := NewGltfRepository()
	repository.SetLoadProgressReporter(func(event LoadProgressEvent) {
		events = append(events, event.Type)
	})
	if _, err := repository.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []LoadProgressEventType{
		LoadProgressEventTypeFileReadComplete,
		LoadProgressEventTypeJsonParsed,
		LoadProgressEventTypeCompleted,
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func namesOf(scene *model.Scene, indexes []int) []string {
	names := make([]string, 0, len(indexes))
	for _, index := range indexes {
		node, err := scene.Get(index)
		if err != nil {
			names = append(names, "<missing>")
			continue
		}
		names = append(names, node.Name())
	}
	return names
}
