// 指示: miu200521358
package model

import (
	"github.com/tiendc/go-deepcopy"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

// EditSession はアーマチュアのレスト姿勢を編集する期間を表す。
// 取得後は必ず Close を呼び、シーンを評価可能な状態へ戻す。
type EditSession struct {
	scene         *Scene
	armatureIndex int
	snapshot      map[int]BoneData
	closed        bool
}

// BeginEdit はアーマチュアの編集セッションを開始する。
func (s *Scene) BeginEdit(armatureIndex int) (*EditSession, error) {
	armature, err := s.Get(armatureIndex)
	if err != nil {
		return nil, err
	}
	if armature.NodeType != NODE_TYPE_ARMATURE {
		return nil, merrors.NewNotArmature("アーマチュアではありません: %s", nil, armature.name)
	}
	if s.IsEditing() {
		return nil, merrors.NewEditModeActive("別の編集セッションが開いています", nil)
	}

	snapshot := make(map[int]BoneData)
	for _, boneIndex := range s.Bones(armatureIndex) {
		var copied BoneData
		if err := deepcopy.Copy(&copied, *s.nodes[boneIndex].Bone); err != nil {
			return nil, err
		}
		snapshot[boneIndex] = copied
	}
	s.editArmature = armatureIndex
	return &EditSession{scene: s, armatureIndex: armatureIndex, snapshot: snapshot}, nil
}

// ArmatureIndex は編集中のアーマチュアを返す。
func (e *EditSession) ArmatureIndex() int {
	return e.armatureIndex
}

// RootBones は親ボーンを持たないボーンを返す。
func (e *EditSession) RootBones() []int {
	return e.scene.RootBones(e.armatureIndex)
}

// ChildBones は直下の子ボーンを返す。
func (e *EditSession) ChildBones(boneIndex int) []int {
	return e.scene.ChildBones(boneIndex)
}

// Bone は編集中アーマチュアのボーンを返す。
func (e *EditSession) Bone(boneIndex int) (*Node, error) {
	if e.closed {
		return nil, merrors.NewEditModeActive("編集セッションは終了しています", nil)
	}
	node, err := e.scene.Get(boneIndex)
	if err != nil {
		return nil, err
	}
	if node.NodeType != NODE_TYPE_BONE || e.scene.ArmatureOf(boneIndex) != e.armatureIndex {
		return nil, merrors.NewNodeNotFound("編集中アーマチュアのボーンではありません: %s", nil, node.name)
	}
	return node, nil
}

// SetBoneRest はボーンのレスト姿勢と頭・先端を更新する。接続された子ボーンの頭は先端へ追従する。
func (e *EditSession) SetBoneRest(boneIndex int, rest mmath.Mat4, head, tail mmath.Vec3) error {
	node, err := e.Bone(boneIndex)
	if err != nil {
		return err
	}
	node.Bone.Rest = rest.SetTranslation(head)
	node.Bone.Head = head
	node.Bone.Tail = tail
	for _, childIndex := range e.scene.ChildBones(boneIndex) {
		child := e.scene.nodes[childIndex].Bone
		if !child.Connected {
			continue
		}
		child.Head = tail
		child.Rest = child.Rest.SetTranslation(tail)
	}
	return nil
}

// Rollback は編集開始時のボーン情報へ戻す。
func (e *EditSession) Rollback() error {
	for boneIndex, saved := range e.snapshot {
		if !e.scene.Contains(boneIndex) {
			continue
		}
		restored := &BoneData{}
		if err := deepcopy.Copy(restored, saved); err != nil {
			return err
		}
		e.scene.nodes[boneIndex].Bone = restored
	}
	return nil
}

// Close は編集セッションを終了し、現在フレームで再評価する。複数回呼んでも安全。
func (e *EditSession) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.scene.editArmature = noEditArmature
	return e.scene.Evaluate(e.scene.CurrentFrame)
}
