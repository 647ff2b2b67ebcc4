// 指示: miu200521358
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

const (
	// DefaultFps は既定のフレームレート。
	DefaultFps = 30.0
	// noEditArmature は編集セッションが無い状態を表す。
	noEditArmature = -1
)

// Scene はノードアリーナを表す。インデックスはシーンの生存期間中変わらない。
type Scene struct {
	nodes        []*Node
	FrameStart   int
	FrameEnd     int
	Fps          float64
	CurrentFrame int
	editArmature int
}

// NewScene は空のシーンを生成する。
func NewScene() *Scene {
	return &Scene{
		FrameStart:   1,
		FrameEnd:     250,
		Fps:          DefaultFps,
		CurrentFrame: 1,
		editArmature: noEditArmature,
	}
}

// Len は削除済みを含むアリーナ長を返す。
func (s *Scene) Len() int {
	return len(s.nodes)
}

// Contains は生存ノードか判定する。
func (s *Scene) Contains(index int) bool {
	return index >= 0 && index < len(s.nodes) && !s.nodes[index].removed
}

// Get は生存ノードを返す。
func (s *Scene) Get(index int) (*Node, error) {
	if !s.Contains(index) {
		return nil, merrors.NewNodeNotFound("ノードが見つかりません: index=%d", nil, index)
	}
	return s.nodes[index], nil
}

// node は存在確認済みのインデックスでノードを返す。
func (s *Scene) node(index int) *Node {
	if !s.Contains(index) {
		return nil
	}
	return s.nodes[index]
}

// AppendNode はノードを追加してインデックスを返す。名前が衝突した場合は連番を付与する。
func (s *Scene) AppendNode(node *Node) (int, error) {
	if node == nil {
		return -1, fmt.Errorf("追加ノードがnilです")
	}
	if node.ParentIndex >= 0 && !s.Contains(node.ParentIndex) {
		return -1, merrors.NewNodeNotFound("親ノードが見つかりません: index=%d", nil, node.ParentIndex)
	}
	if node.NodeType == NODE_TYPE_BONE && s.armatureFrom(node.ParentIndex) < 0 {
		return -1, fmt.Errorf("ボーンの親にアーマチュアがありません: %s", node.name)
	}
	node.index = len(s.nodes)
	node.removed = false
	node.ChildIndexes = nil
	node.name = s.uniqueName(node.name, node.NodeType, node.ParentIndex)
	s.nodes = append(s.nodes, node)
	if node.ParentIndex >= 0 {
		parent := s.nodes[node.ParentIndex]
		parent.ChildIndexes = append(parent.ChildIndexes, node.index)
	}
	return node.index, nil
}

// uniqueName は衝突しない名前を返す。ボーンはアーマチュア内、その他はシーン内で一意にする。
func (s *Scene) uniqueName(name string, nodeType NodeType, parentIndex int) string {
	taken := func(candidate string) bool {
		if nodeType == NODE_TYPE_BONE {
			return s.BoneByName(s.armatureFrom(parentIndex), candidate) >= 0
		}
		return s.FindByName(candidate) >= 0
	}
	if !taken(name) {
		return name
	}
	base := trimNumericSuffix(name)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// trimNumericSuffix は末尾の ".NNN" 形式の連番を取り除く。
func trimNumericSuffix(name string) string {
	pos := strings.LastIndex(name, ".")
	if pos < 0 || pos == len(name)-1 {
		return name
	}
	if _, err := strconv.Atoi(name[pos+1:]); err != nil {
		return name
	}
	return name[:pos]
}

// Indexes は生存ノードのインデックスを昇順で返す。
func (s *Scene) Indexes() []int {
	indexes := make([]int, 0, len(s.nodes))
	for _, node := range s.nodes {
		if !node.removed {
			indexes = append(indexes, node.index)
		}
	}
	return indexes
}

// Roots は親を持たない生存ノードを返す。
func (s *Scene) Roots() []int {
	roots := make([]int, 0)
	for _, node := range s.nodes {
		if !node.removed && node.ParentIndex < 0 {
			roots = append(roots, node.index)
		}
	}
	return roots
}

// Children は生存する子ノードを順序どおり返す。
func (s *Scene) Children(index int) []int {
	node := s.node(index)
	if node == nil {
		return nil
	}
	children := make([]int, 0, len(node.ChildIndexes))
	for _, childIndex := range node.ChildIndexes {
		if s.Contains(childIndex) {
			children = append(children, childIndex)
		}
	}
	return children
}

// ObjectChildren はボーン以外の子ノードを返す。
func (s *Scene) ObjectChildren(index int) []int {
	children := make([]int, 0)
	for _, childIndex := range s.Children(index) {
		if s.nodes[childIndex].NodeType != NODE_TYPE_BONE {
			children = append(children, childIndex)
		}
	}
	return children
}

// Descendants は自身を先頭にした前順走査で子孫を返す。
func (s *Scene) Descendants(index int) []int {
	if !s.Contains(index) {
		return nil
	}
	result := make([]int, 0)
	stack := []int{index}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, current)
		children := s.Children(current)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return result
}

// PreOrder はシーン全体を前順で返す。
func (s *Scene) PreOrder() []int {
	result := make([]int, 0, len(s.nodes))
	for _, rootIndex := range s.Roots() {
		result = append(result, s.Descendants(rootIndex)...)
	}
	return result
}

// RootBones はアーマチュア直下のボーンを返す。
func (s *Scene) RootBones(armatureIndex int) []int {
	bones := make([]int, 0)
	for _, childIndex := range s.Children(armatureIndex) {
		if s.nodes[childIndex].NodeType == NODE_TYPE_BONE {
			bones = append(bones, childIndex)
		}
	}
	return bones
}

// ChildBones はボーン直下のボーンを返す。
func (s *Scene) ChildBones(boneIndex int) []int {
	return s.RootBones(boneIndex)
}

// Bones はアーマチュアの全ボーンを前順で返す。
func (s *Scene) Bones(armatureIndex int) []int {
	node := s.node(armatureIndex)
	if node == nil || node.NodeType != NODE_TYPE_ARMATURE {
		return nil
	}
	result := make([]int, 0)
	stack := make([]int, 0)
	roots := s.RootBones(armatureIndex)
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, current)
		children := s.ChildBones(current)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return result
}

// ArmatureOf はボーンが属するアーマチュアを返す。見つからない場合は -1。
func (s *Scene) ArmatureOf(index int) int {
	node := s.node(index)
	if node == nil {
		return -1
	}
	if node.NodeType == NODE_TYPE_ARMATURE {
		return index
	}
	if node.NodeType != NODE_TYPE_BONE {
		return -1
	}
	return s.armatureFrom(node.ParentIndex)
}

// armatureFrom は指定ノードから親方向へボーンを辿り、最初のアーマチュアを返す。
func (s *Scene) armatureFrom(index int) int {
	for current := index; current >= 0; {
		node := s.node(current)
		if node == nil {
			return -1
		}
		switch node.NodeType {
		case NODE_TYPE_ARMATURE:
			return current
		case NODE_TYPE_BONE:
			current = node.ParentIndex
		default:
			return -1
		}
	}
	return -1
}

// ParentBone はボーンの親ボーンを返す。ルートボーンは -1。
func (s *Scene) ParentBone(boneIndex int) int {
	node := s.node(boneIndex)
	if node == nil || node.NodeType != NODE_TYPE_BONE {
		return -1
	}
	parent := s.node(node.ParentIndex)
	if parent == nil || parent.NodeType != NODE_TYPE_BONE {
		return -1
	}
	return parent.index
}

// BoneByName はアーマチュア内のボーンを名前で検索する。見つからない場合は -1。
func (s *Scene) BoneByName(armatureIndex int, name string) int {
	for _, boneIndex := range s.Bones(armatureIndex) {
		if s.nodes[boneIndex].name == name {
			return boneIndex
		}
	}
	return -1
}

// FindByName はボーン以外の生存ノードを名前で検索する。見つからない場合は -1。
func (s *Scene) FindByName(name string) int {
	for _, node := range s.nodes {
		if !node.removed && node.NodeType != NODE_TYPE_BONE && node.name == name {
			return node.index
		}
	}
	return -1
}

// BoneAttachments はアーマチュアのボーンに親子付けされたオブジェクトを返す。
func (s *Scene) BoneAttachments(armatureIndex int) []int {
	attachments := make([]int, 0)
	for _, childIndex := range s.ObjectChildren(armatureIndex) {
		if s.nodes[childIndex].ParentBoneName != "" {
			attachments = append(attachments, childIndex)
		}
	}
	return attachments
}

// RemoveSubtree はノードと子孫を削除し、削除したインデックスを返す。
func (s *Scene) RemoveSubtree(index int) []int {
	removed := s.Descendants(index)
	if len(removed) == 0 {
		return nil
	}
	node := s.nodes[index]
	if parent := s.node(node.ParentIndex); parent != nil {
		kept := parent.ChildIndexes[:0]
		for _, childIndex := range parent.ChildIndexes {
			if childIndex != index {
				kept = append(kept, childIndex)
			}
		}
		parent.ChildIndexes = kept
	}
	for _, removedIndex := range removed {
		s.nodes[removedIndex].removed = true
	}
	return removed
}

// AddLink は姿勢コピー関係を追加する。
func (s *Scene) AddLink(ownerIndex int, link TransformLink) error {
	owner, err := s.Get(ownerIndex)
	if err != nil {
		return err
	}
	target, err := s.Get(link.TargetIndex)
	if err != nil {
		return err
	}
	if link.SubtargetName != "" && s.BoneByName(target.index, link.SubtargetName) < 0 {
		return merrors.NewNodeNotFound("ターゲットボーンが見つかりません: %s/%s", nil, target.name, link.SubtargetName)
	}
	owner.Links = append(owner.Links, link)
	return nil
}

// ClearLinks は姿勢コピー関係をすべて外す。
func (s *Scene) ClearLinks(ownerIndex int) {
	if node := s.node(ownerIndex); node != nil {
		node.Links = nil
	}
}

// IsEditing は編集セッション中か判定する。
func (s *Scene) IsEditing() bool {
	return s.editArmature != noEditArmature
}
