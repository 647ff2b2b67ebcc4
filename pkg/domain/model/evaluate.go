// 指示: miu200521358
package model

import (
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

// evaluatedPose は姿勢コピー解決前の評価値を表す。
type evaluatedPose struct {
	world mmath.Mat4
	basis mmath.Mat4
}

// Evaluate は指定フレームでシーン全体の姿勢を評価する。
// 1巡目でアクションと静的姿勢を評価し、2巡目で姿勢コピー関係を解決する。
func (s *Scene) Evaluate(frame int) error {
	if s.IsEditing() {
		return merrors.NewEditModeActive("編集セッション中は姿勢を評価できません", nil)
	}
	order := s.evaluationOrder()
	for _, index := range order {
		s.evaluateNode(index, float64(frame), nil)
	}

	linked := false
	for _, index := range order {
		if len(s.nodes[index].Links) > 0 {
			linked = true
			break
		}
	}
	if !linked {
		return nil
	}

	snapshot := make(map[int]evaluatedPose, len(order))
	for _, index := range order {
		node := s.nodes[index]
		pose := evaluatedPose{world: node.World, basis: mmath.NewMat4()}
		if node.Bone != nil {
			pose.basis = node.Bone.Basis
		}
		snapshot[index] = pose
	}
	for _, index := range order {
		s.evaluateNode(index, float64(frame), snapshot)
	}
	return nil
}

// LocalOf は現在の評価結果と一致する親基準の姿勢を返す。
func (s *Scene) LocalOf(index int) (mmath.Mat4, error) {
	node, err := s.Get(index)
	if err != nil {
		return mmath.NewMat4(), err
	}
	return node.evaluatedLocal, nil
}

// SetWorld はワールド姿勢が指定値になるよう親基準の姿勢を逆算する。子孫は再評価する。
func (s *Scene) SetWorld(index int, world mmath.Mat4) error {
	node, err := s.Get(index)
	if err != nil {
		return err
	}
	if node.NodeType == NODE_TYPE_BONE {
		return merrors.NewInvalidRange("ボーンのワールド姿勢は直接設定できません: %s", nil, node.name)
	}
	basis := s.parentBasis(node).Muled(node.ParentInverse)
	node.Local = basis.Inverted().Muled(world)
	node.World = world
	node.evaluatedLocal = node.Local
	for _, descendant := range s.Descendants(index)[1:] {
		s.evaluateNode(descendant, float64(s.CurrentFrame), nil)
	}
	return nil
}

// evaluationOrder は前順で評価順を返す。アーマチュア直下はボーンを先に評価する。
func (s *Scene) evaluationOrder() []int {
	order := make([]int, 0, len(s.nodes))
	stack := make([]int, 0)
	roots := s.Roots()
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, current)

		children := s.Children(current)
		sorted := make([]int, 0, len(children))
		for _, childIndex := range children {
			if s.nodes[childIndex].NodeType == NODE_TYPE_BONE {
				sorted = append(sorted, childIndex)
			}
		}
		for _, childIndex := range children {
			if s.nodes[childIndex].NodeType != NODE_TYPE_BONE {
				sorted = append(sorted, childIndex)
			}
		}
		for i := len(sorted) - 1; i >= 0; i-- {
			stack = append(stack, sorted[i])
		}
	}
	return order
}

// evaluateNode は1ノードを評価する。snapshot が nil の場合は姿勢コピーを無視する。
func (s *Scene) evaluateNode(index int, frame float64, snapshot map[int]evaluatedPose) {
	node := s.nodes[index]
	if node.NodeType == NODE_TYPE_BONE && node.Bone != nil {
		s.evaluateBone(node, frame, snapshot)
		return
	}

	local := node.Local
	if node.Action != nil {
		local = node.Action.Evaluate(frame, node.Local)
	}
	basis := s.parentBasis(node).Muled(node.ParentInverse)
	world := basis.Muled(local)
	if snapshot != nil {
		for _, link := range node.Links {
			if link.Space != TRANSFORM_SPACE_WORLD {
				continue
			}
			if targetWorld, ok := s.linkTargetWorld(link, snapshot); ok {
				world = targetWorld
			}
		}
	}
	node.World = world
	node.evaluatedLocal = basis.Inverted().Muled(world)
}

// evaluateBone はボーンの評価を行う。
func (s *Scene) evaluateBone(node *Node, frame float64, snapshot map[int]evaluatedPose) {
	bone := node.Bone
	armatureWorld := mmath.NewMat4()
	if armature := s.node(s.armatureFrom(node.ParentIndex)); armature != nil {
		armatureWorld = armature.World
	}
	restLocal := bone.Rest
	parentPose := mmath.NewMat4()
	if parentIndex := s.ParentBone(node.index); parentIndex >= 0 {
		parent := s.nodes[parentIndex].Bone
		restLocal = parent.Rest.Inverted().Muled(bone.Rest)
		parentPose = parent.PoseMatrix
	}

	local := restLocal.Muled(bone.Pose)
	if node.Action != nil {
		local = node.Action.Evaluate(frame, local)
	}
	node.Local = local
	basis := restLocal.Inverted().Muled(local)

	if snapshot != nil {
		for _, link := range node.Links {
			switch link.Space {
			case TRANSFORM_SPACE_BONE_LOCAL:
				if linkedBasis, ok := s.linkBoneLocalBasis(bone, link, snapshot); ok {
					basis = linkedBasis
					local = restLocal.Muled(basis)
				}
			case TRANSFORM_SPACE_WORLD:
				if targetWorld, ok := s.linkTargetWorld(link, snapshot); ok {
					pose := armatureWorld.Inverted().Muled(targetWorld)
					local = parentPose.Inverted().Muled(pose)
					basis = restLocal.Inverted().Muled(local)
				}
			}
		}
	}

	bone.Basis = basis
	bone.PoseMatrix = parentPose.Muled(local)
	node.World = armatureWorld.Muled(bone.PoseMatrix)
	node.evaluatedLocal = local
}

// parentBasis は親側の基準行列を返す。ボーン親子付けの場合はボーンの評価姿勢を使う。
func (s *Scene) parentBasis(node *Node) mmath.Mat4 {
	parent := s.node(node.ParentIndex)
	if parent == nil {
		return mmath.NewMat4()
	}
	if node.ParentBoneName != "" && parent.NodeType == NODE_TYPE_ARMATURE {
		if boneIndex := s.BoneByName(parent.index, node.ParentBoneName); boneIndex >= 0 {
			return parent.World.Muled(s.nodes[boneIndex].Bone.PoseMatrix)
		}
	}
	return parent.World
}

// linkTargetWorld はターゲットの1巡目のワールド姿勢を返す。
func (s *Scene) linkTargetWorld(link TransformLink, snapshot map[int]evaluatedPose) (mmath.Mat4, bool) {
	targetIndex := link.TargetIndex
	if link.SubtargetName != "" {
		targetIndex = s.BoneByName(link.TargetIndex, link.SubtargetName)
	}
	pose, ok := snapshot[targetIndex]
	if !ok {
		return mmath.NewMat4(), false
	}
	return pose.world, true
}

// linkBoneLocalBasis はターゲットボーンのポーズ差分を所有ボーンのレスト向きへ写す。
func (s *Scene) linkBoneLocalBasis(owner *BoneData, link TransformLink, snapshot map[int]evaluatedPose) (mmath.Mat4, bool) {
	if link.SubtargetName == "" {
		return mmath.NewMat4(), false
	}
	targetIndex := s.BoneByName(link.TargetIndex, link.SubtargetName)
	pose, ok := snapshot[targetIndex]
	if !ok {
		return mmath.NewMat4(), false
	}
	ownerOrientation := owner.Rest.Orientation()
	targetOrientation := s.nodes[targetIndex].Bone.Rest.Orientation()
	return ownerOrientation.Inverted().
		Muled(targetOrientation).
		Muled(pose.basis).
		Muled(targetOrientation.Inverted()).
		Muled(ownerOrientation), true
}
