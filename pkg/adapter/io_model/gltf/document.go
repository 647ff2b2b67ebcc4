// 指示: miu200521358
package gltf

import (
	"encoding/json"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

const (
	gltfComponentTypeByte          = 5120
	gltfComponentTypeUnsignedByte  = 5121
	gltfComponentTypeShort         = 5122
	gltfComponentTypeUnsignedShort = 5123
	gltfComponentTypeUnsignedInt   = 5125
	gltfComponentTypeFloat         = 5126

	gltfTargetArrayBuffer        = 34962
	gltfTargetElementArrayBuffer = 34963

	gltfPathTranslation = "translation"
	gltfPathRotation    = "rotation"
	gltfPathScale       = "scale"
	gltfPathWeights     = "weights"

	gltfInterpolationLinear = "LINEAR"
	gltfInterpolationStep   = "STEP"

	gltfGenerator = "mu_rig_retarget"
)

// gltfDocument は読み書きするglTFトップレベル要素を表す。
type gltfDocument struct {
	Asset       gltfAsset        `json:"asset"`
	Scene       *int             `json:"scene,omitempty"`
	Scenes      []gltfScene      `json:"scenes,omitempty"`
	Nodes       []gltfNode       `json:"nodes,omitempty"`
	Meshes      []gltfMesh       `json:"meshes,omitempty"`
	Skins       []gltfSkin       `json:"skins,omitempty"`
	Animations  []gltfAnimation  `json:"animations,omitempty"`
	Accessors   []gltfAccessor   `json:"accessors,omitempty"`
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`
	Buffers     []gltfBuffer     `json:"buffers,omitempty"`
	Extras      *gltfSceneExtras `json:"extras,omitempty"`
}

// gltfAsset はglTF asset要素を表す。
type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

// gltfSceneExtras は文書全体に付与するシーン情報を表す。
type gltfSceneExtras struct {
	Fps        float64 `json:"fps,omitempty"`
	FrameStart *int    `json:"frameStart,omitempty"`
	FrameEnd   *int    `json:"frameEnd,omitempty"`
	UpAxis     string  `json:"upAxis,omitempty"`
}

// gltfScene はglTF scene要素を表す。
type gltfScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes"`
}

// gltfNode はglTF node要素を表す。
type gltfNode struct {
	Name        string          `json:"name,omitempty"`
	Mesh        *int            `json:"mesh,omitempty"`
	Skin        *int            `json:"skin,omitempty"`
	Children    []int           `json:"children,omitempty"`
	Matrix      []float64       `json:"matrix,omitempty"`
	Translation []float64       `json:"translation,omitempty"`
	Rotation    []float64       `json:"rotation,omitempty"`
	Scale       []float64       `json:"scale,omitempty"`
	Extras      json.RawMessage `json:"extras,omitempty"`
}

// gltfNodeExtras はノードへ付与する補助情報を表す。
type gltfNodeExtras struct {
	NodeType     string    `json:"nodeType,omitempty"`
	Tail         []float64 `json:"tail,omitempty"`
	Connected    bool      `json:"connected,omitempty"`
	OriginalName string    `json:"original_name,omitempty"`
}

// gltfMesh はglTF mesh要素を表す。
type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
	Weights    []float64       `json:"weights,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// gltfMeshExtras はモーフ名を保持するmesh.extrasを表す。
type gltfMeshExtras struct {
	TargetNames []string `json:"targetNames,omitempty"`
}

// gltfPrimitive はglTF mesh primitive要素を表す。
type gltfPrimitive struct {
	Attributes map[string]int   `json:"attributes"`
	Indices    *int             `json:"indices,omitempty"`
	Mode       *int             `json:"mode,omitempty"`
	Targets    []map[string]int `json:"targets,omitempty"`
}

// gltfSkin はglTF skin要素を表す。
type gltfSkin struct {
	Name                string `json:"name,omitempty"`
	InverseBindMatrices *int   `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int   `json:"skeleton,omitempty"`
	Joints              []int  `json:"joints"`
}

// gltfAnimation はglTF animation要素を表す。
type gltfAnimation struct {
	Name     string                 `json:"name,omitempty"`
	Channels []gltfAnimationChannel `json:"channels"`
	Samplers []gltfAnimationSampler `json:"samplers"`
}

// gltfAnimationChannel はglTF animation channel要素を表す。
type gltfAnimationChannel struct {
	Sampler int                        `json:"sampler"`
	Target  gltfAnimationChannelTarget `json:"target"`
}

// gltfAnimationChannelTarget はチャンネルの対象を表す。
type gltfAnimationChannelTarget struct {
	Node *int   `json:"node,omitempty"`
	Path string `json:"path"`
}

// gltfAnimationSampler はglTF animation sampler要素を表す。
type gltfAnimationSampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation,omitempty"`
}

// gltfAccessor はglTF accessor要素を表す。
type gltfAccessor struct {
	BufferView    *int      `json:"bufferView,omitempty"`
	ByteOffset    int       `json:"byteOffset,omitempty"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Normalized    bool      `json:"normalized,omitempty"`
	Min           []float64 `json:"min,omitempty"`
	Max           []float64 `json:"max,omitempty"`
}

// gltfBufferView はglTF bufferView要素を表す。
type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset,omitempty"`
	ByteLength int `json:"byteLength"`
	ByteStride int `json:"byteStride,omitempty"`
	Target     int `json:"target,omitempty"`
}

// gltfBuffer はglTF buffer要素を表す。
type gltfBuffer struct {
	ByteLength int    `json:"byteLength"`
	URI        string `json:"uri,omitempty"`
}

// parseNodeExtras はnode.extrasを解析する。オブジェクト以外のextrasは無視する。
func parseNodeExtras(raw json.RawMessage) gltfNodeExtras {
	extras := gltfNodeExtras{}
	if len(raw) == 0 {
		return extras
	}
	if err := json.Unmarshal(raw, &extras); err != nil {
		logGltfDebug("node.extras を解釈できないため無視します: %v", err)
		return gltfNodeExtras{}
	}
	return extras
}

// parseMeshExtras はmesh.extrasを解析する。解釈できない場合は空を返す。
func parseMeshExtras(raw json.RawMessage) gltfMeshExtras {
	extras := gltfMeshExtras{}
	if len(raw) == 0 {
		return extras
	}
	if err := json.Unmarshal(raw, &extras); err != nil {
		logGltfDebug("mesh.extras を解釈できないため無視します: %v", err)
		return gltfMeshExtras{}
	}
	return extras
}

// buildNodeParentIndexes はnode配列から親インデックス配列を生成する。
func buildNodeParentIndexes(nodes []gltfNode) ([]int, error) {
	parentIndexes := make([]int, len(nodes))
	for i := range parentIndexes {
		parentIndexes[i] = -1
	}
	for parentIndex, node := range nodes {
		for _, childIndex := range node.Children {
			if childIndex < 0 || childIndex >= len(nodes) {
				return nil, merrors.NewParseFailed("node.children のindexが不正です: %d", nil, childIndex)
			}
			if parentIndexes[childIndex] == -1 {
				parentIndexes[childIndex] = parentIndex
			}
		}
	}
	return parentIndexes, nil
}

// buildNodeOrder はルートから前順でnodeを並べる。循環がある場合はエラーを返す。
func buildNodeOrder(nodes []gltfNode, parents []int) ([]int, error) {
	order := make([]int, 0, len(nodes))
	visited := make([]bool, len(nodes))
	stack := make([]int, 0)
	for i := len(nodes) - 1; i >= 0; i-- {
		if parents[i] < 0 {
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true
		order = append(order, current)
		children := nodes[current].Children
		for i := len(children) - 1; i >= 0; i-- {
			if parents[children[i]] == current {
				stack = append(stack, children[i])
			}
		}
	}
	if len(order) != len(nodes) {
		return nil, merrors.NewParseFailed("node親子関係に循環があります", nil)
	}
	return order, nil
}

// buildNodeWorldMatrixes はnodeのローカル変換からワールド行列を算出する。
func buildNodeWorldMatrixes(nodes []gltfNode, parents []int, order []int) ([]mmath.Mat4, []mmath.Mat4, error) {
	locals := make([]mmath.Mat4, len(nodes))
	worlds := make([]mmath.Mat4, len(nodes))
	for _, nodeIndex := range order {
		local, err := nodeLocalMatrix(nodes[nodeIndex])
		if err != nil {
			return nil, nil, err
		}
		locals[nodeIndex] = local
		if parentIndex := parents[nodeIndex]; parentIndex >= 0 {
			worlds[nodeIndex] = worlds[parentIndex].Muled(local)
		} else {
			worlds[nodeIndex] = local
		}
	}
	return locals, worlds, nil
}

// nodeLocalMatrix はnode要素からローカル行列を生成する。
func nodeLocalMatrix(node gltfNode) (mmath.Mat4, error) {
	if len(node.Matrix) > 0 {
		mat, err := mmath.NewMat4ByValues(node.Matrix)
		if err != nil {
			return mmath.NewMat4(), merrors.NewParseFailed("node.matrix の要素数が不正です: %d", err, len(node.Matrix))
		}
		return mat, nil
	}
	translation, err := parseVec3(node.Translation, mmath.ZERO_VEC3, "node.translation")
	if err != nil {
		return mmath.NewMat4(), err
	}
	scale, err := parseVec3(node.Scale, mmath.ONE_VEC3, "node.scale")
	if err != nil {
		return mmath.NewMat4(), err
	}
	rotation, err := parseQuaternion(node.Rotation)
	if err != nil {
		return mmath.NewMat4(), err
	}
	return mmath.NewMat4FromTRS(translation, rotation, scale), nil
}

// parseVec3 はスライスをVec3へ変換する。
func parseVec3(values []float64, defaultValue mmath.Vec3, label string) (mmath.Vec3, error) {
	if len(values) == 0 {
		return defaultValue, nil
	}
	if len(values) != 3 {
		return mmath.ZERO_VEC3, merrors.NewParseFailed("%s の要素数が不正です: %d", nil, label, len(values))
	}
	return mmath.NewVec3(values[0], values[1], values[2]), nil
}

// parseQuaternion はスライスをQuaternionへ変換する。
func parseQuaternion(values []float64) (mmath.Quaternion, error) {
	if len(values) == 0 {
		return mmath.NewQuaternion(), nil
	}
	if len(values) != 4 {
		return mmath.NewQuaternion(), merrors.NewParseFailed("node.rotation の要素数が不正です: %d", nil, len(values))
	}
	return mmath.NewQuaternionByValues(values[0], values[1], values[2], values[3]).Normalized(), nil
}
