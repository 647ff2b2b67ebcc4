// 指示: miu200521358
// Package model はシーン上のノード・ボーン・アクションを保持するアリーナを提供する。
package model

import (
	"strings"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
)

// NodeType はノード種別を表す。
type NodeType int

const (
	// NODE_TYPE_GENERIC は空ノード。
	NODE_TYPE_GENERIC NodeType = iota
	// NODE_TYPE_MESH はメッシュを持つノード。
	NODE_TYPE_MESH
	// NODE_TYPE_ARMATURE はスケルトンのルート。
	NODE_TYPE_ARMATURE
	// NODE_TYPE_BONE はアーマチュア配下のボーン。
	NODE_TYPE_BONE
)

// String はノード種別名を返す。
func (t NodeType) String() string {
	switch t {
	case NODE_TYPE_MESH:
		return "mesh"
	case NODE_TYPE_ARMATURE:
		return "armature"
	case NODE_TYPE_BONE:
		return "bone"
	default:
		return "generic"
	}
}

// ParseNodeType はノード種別名を解析する。未知の名前は false を返す。
func ParseNodeType(name string) (NodeType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "generic":
		return NODE_TYPE_GENERIC, true
	case "mesh":
		return NODE_TYPE_MESH, true
	case "armature":
		return NODE_TYPE_ARMATURE, true
	case "bone":
		return NODE_TYPE_BONE, true
	default:
		return NODE_TYPE_GENERIC, false
	}
}

// Node はシーンアリーナ上の1ノードを表す。親子はインデックスで参照する。
type Node struct {
	index          int
	name           string
	NodeType       NodeType
	ParentIndex    int
	ChildIndexes   []int
	ParentBoneName string
	// Local はオブジェクトでは親基準の姿勢、ボーンでは親ボーン基準の評価済み姿勢。
	Local         mmath.Mat4
	World         mmath.Mat4
	ParentInverse mmath.Mat4
	Bone          *BoneData
	Mesh          *MeshData
	Action        *Action
	Links         []TransformLink

	evaluatedLocal mmath.Mat4
	removed        bool
}

// NewNode は単位姿勢のノードを生成する。インデックスはシーン追加時に確定する。
func NewNode(name string, nodeType NodeType, parentIndex int) *Node {
	node := &Node{
		index:          -1,
		name:           name,
		NodeType:       nodeType,
		ParentIndex:    parentIndex,
		Local:          mmath.NewMat4(),
		World:          mmath.NewMat4(),
		ParentInverse:  mmath.NewMat4(),
		evaluatedLocal: mmath.NewMat4(),
	}
	if nodeType == NODE_TYPE_BONE {
		node.Bone = NewBoneData()
	}
	return node
}

// Index はアリーナ上のインデックスを返す。
func (n *Node) Index() int {
	return n.index
}

// Name は名前を返す。
func (n *Node) Name() string {
	return n.name
}

// IsRemoved は削除済みか判定する。
func (n *Node) IsRemoved() bool {
	return n.removed
}

// IsBone はボーンか判定する。
func (n *Node) IsBone() bool {
	return n.NodeType == NODE_TYPE_BONE
}

// IsMesh はメッシュか判定する。
func (n *Node) IsMesh() bool {
	return n.NodeType == NODE_TYPE_MESH
}

// IsArmature はアーマチュアか判定する。
func (n *Node) IsArmature() bool {
	return n.NodeType == NODE_TYPE_ARMATURE
}

// BoneData はボーン固有の情報を表す。座標はすべてアーマチュア空間。
type BoneData struct {
	Head      mmath.Vec3
	Tail      mmath.Vec3
	Rest      mmath.Mat4
	Connected bool
	// Pose はアクションが無い時に使う静的なポーズ差分。
	Pose mmath.Mat4
	// Basis は評価済みのポーズ差分。
	Basis mmath.Mat4
	// PoseMatrix は評価済みのアーマチュア空間姿勢。
	PoseMatrix mmath.Mat4
}

// NewBoneData は原点でY軸向きのボーン情報を生成する。
func NewBoneData() *BoneData {
	return &BoneData{
		Head:       mmath.ZERO_VEC3,
		Tail:       mmath.UNIT_Y_VEC3,
		Rest:       mmath.NewMat4(),
		Pose:       mmath.NewMat4(),
		Basis:      mmath.NewMat4(),
		PoseMatrix: mmath.NewMat4(),
	}
}

// Length はボーン長を返す。
func (b *BoneData) Length() float64 {
	return b.Tail.Distance(b.Head)
}

// MeshData はメッシュ形状を表す。出力時にそのまま引き継ぐ。
type MeshData struct {
	Positions []mmath.Vec3
	Indices   []uint32
	// Targets はモーフターゲット。Offsets は Positions と同じ頂点数を持つ。
	Targets []MorphTarget
	// Weights はモーフの既定ウェイト。
	Weights []float64
}

// MorphTarget はモーフ1つ分の頂点移動量を表す。
type MorphTarget struct {
	Name    string
	Offsets []mmath.Vec3
}
