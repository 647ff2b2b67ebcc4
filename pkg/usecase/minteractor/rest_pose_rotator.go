// 指示: miu200521358
package minteractor

import (
	"math"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

// maxRotateDegrees はレスト姿勢回転で受け付ける角度の絶対値の上限。
const maxRotateDegrees = 360.0

// ChildAttachment はボーンに親子付けされたオブジェクトの編集前の状態を表す。
type ChildAttachment struct {
	ObjectIndex    int
	World          mmath.Mat4
	ParentBoneName string
}

// RotateResult はレスト姿勢回転の結果を表す。
type RotateResult struct {
	BoneCount     int
	RestoredCount int
	// Warnings は復元できなかった子オブジェクトの不整合。処理自体は成功している。
	Warnings error
}

// restPoseFrame は回転待ちのボーンと親の回転後姿勢を表す。
type restPoseFrame struct {
	boneIndex int
	parent    mmath.Mat4
	hasParent bool
}

// RotateRestPose はアーマチュアの全ボーンのレスト姿勢を親から順に回転する。
// ボーン長は保たれ、ボーンに親子付けされたオブジェクトのワールド姿勢は編集前の値へ戻す。
func RotateRestPose(scene *model.Scene, armatureIndex int, axis mmath.Axis, degrees float64) (result *RotateResult, err error) {
	if scene == nil {
		return nil, merrors.NewMissingInput("シーンが未設定です", nil)
	}
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) || degrees < -maxRotateDegrees || degrees > maxRotateDegrees {
		return nil, merrors.NewInvalidRange("回転角度は-360〜360で指定してください: %g", nil, degrees)
	}
	parsedAxis, err := mmath.ParseAxis(string(axis))
	if err != nil {
		return nil, merrors.NewInvalidRange("回転軸が不正です: %s", err, axis)
	}
	axis = parsedAxis
	armature, err := scene.Get(armatureIndex)
	if err != nil {
		return nil, err
	}
	if !armature.IsArmature() {
		return nil, merrors.NewNotArmature("選択オブジェクトはアーマチュアではありません: %s", nil, armature.Name())
	}

	attachments, err := captureAttachments(scene, armatureIndex)
	if err != nil {
		return nil, err
	}
	lengths := make(map[int]float64)
	for _, boneIndex := range scene.Bones(armatureIndex) {
		node, err := scene.Get(boneIndex)
		if err != nil {
			return nil, err
		}
		lengths[boneIndex] = node.Bone.Length()
	}

	session, err := scene.BeginEdit(armatureIndex)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil && err == nil {
			result, err = nil, closeErr
		}
	}()

	boneCount, err := rotateBones(session, axis, degrees, lengths)
	if err != nil {
		if rollbackErr := session.Rollback(); rollbackErr != nil {
			err = merrors.Append(err, rollbackErr)
		}
		return nil, err
	}
	if err := session.Close(); err != nil {
		return nil, err
	}

	result = &RotateResult{BoneCount: boneCount}
	for _, attachment := range attachments {
		restored, restoreErr := restoreAttachment(scene, armatureIndex, attachment)
		if restoreErr != nil {
			return nil, restoreErr
		}
		if !restored {
			result.Warnings = merrors.Append(result.Warnings, merrors.NewAttachmentInconsistent(
				"親ボーンが見つからないため子オブジェクトを復元できません: object=%d bone=%s", nil,
				attachment.ObjectIndex, attachment.ParentBoneName))
			continue
		}
		result.RestoredCount++
	}
	logRetargetInfo("レスト姿勢回転完了: armature=%s axis=%s angle=%g bones=%d restored=%d",
		armature.Name(), axis, degrees, result.BoneCount, result.RestoredCount)
	return result, nil
}

// captureAttachments はボーンに親子付けされたオブジェクトのワールド姿勢と親ボーン名を控える。
func captureAttachments(scene *model.Scene, armatureIndex int) ([]ChildAttachment, error) {
	indexes := scene.BoneAttachments(armatureIndex)
	attachments := make([]ChildAttachment, 0, len(indexes))
	for _, index := range indexes {
		node, err := scene.Get(index)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, ChildAttachment{
			ObjectIndex:    index,
			World:          node.World,
			ParentBoneName: node.ParentBoneName,
		})
	}
	return attachments, nil
}

// rotateBones はルートボーンから順にレスト姿勢を回転し、処理したボーン数を返す。
func rotateBones(session *model.EditSession, axis mmath.Axis, degrees float64, lengths map[int]float64) (int, error) {
	rotation := mmath.NewRotationMat4(axis, degrees)
	stack := make([]restPoseFrame, 0)
	roots := session.RootBones()
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, restPoseFrame{boneIndex: roots[i]})
	}

	count := 0
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node, err := session.Bone(frame.boneIndex)
		if err != nil {
			return count, err
		}

		current := node.Bone.Rest
		var rotated mmath.Mat4
		if frame.hasParent {
			local := frame.parent.Inverted().Muled(current)
			rotated = frame.parent.Muled(local.Muled(rotation))
		} else {
			rotated = current.Muled(rotation)
		}
		head := rotated.Translation()
		direction := rotated.MulDirection(mmath.UNIT_Y_VEC3).Normalized()
		tail := head.Added(direction.MuledScalar(lengths[frame.boneIndex]))
		if err := session.SetBoneRest(frame.boneIndex, rotated, head, tail); err != nil {
			return count, err
		}
		count++

		children := session.ChildBones(frame.boneIndex)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, restPoseFrame{boneIndex: children[i], parent: rotated, hasParent: true})
		}
	}
	return count, nil
}

// restoreAttachment は親ボーンの新しいレスト姿勢から親逆行列を作り直し、控えたワールド姿勢へ戻す。
// 親ボーンが見つからない場合は false を返す。
func restoreAttachment(scene *model.Scene, armatureIndex int, attachment ChildAttachment) (bool, error) {
	node, err := scene.Get(attachment.ObjectIndex)
	if err != nil {
		logRetargetWarn("%s: 子オブジェクトが見つかりません: index=%d", model.RetargetWarningAttachmentUnrestored, attachment.ObjectIndex)
		return false, nil
	}
	boneIndex := scene.BoneByName(armatureIndex, attachment.ParentBoneName)
	if boneIndex < 0 {
		logRetargetWarn("%s: 親ボーンが見つかりません: object=%s bone=%s",
			model.RetargetWarningAttachmentUnrestored, node.Name(), attachment.ParentBoneName)
		return false, nil
	}
	bone, err := scene.Get(boneIndex)
	if err != nil {
		return false, err
	}
	node.ParentInverse = bone.Bone.Rest.Inverted()
	if err := scene.SetWorld(attachment.ObjectIndex, attachment.World); err != nil {
		return false, err
	}
	return true, nil
}
