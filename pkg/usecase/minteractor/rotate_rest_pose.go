// 指示: miu200521358
package minteractor

import (
	"strings"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"
)

// RotateRestPose は対象アーマチュアのレスト姿勢を回転する。出力先があれば結果を保存する。
func (uc *RetargetUsecase) RotateRestPose(request RotateRequest) (*RotateRestPoseResult, error) {
	scene := request.Scene
	if scene == nil {
		if strings.TrimSpace(request.InputPath) == "" {
			return nil, merrors.NewMissingInput("回転対象のシーンが未設定です", nil)
		}
		loaded, err := uc.LoadScene(nil, request.InputPath)
		if err != nil {
			return nil, err
		}
		scene = loaded
	}

	armatureIndex, err := resolveArmatureIndex(scene, request.ArmatureIndex, request.ArmatureName)
	if err != nil {
		return nil, err
	}
	rotation, err := RotateRestPose(scene, armatureIndex, request.Axis, request.Angle)
	if err != nil {
		return nil, err
	}
	for _, warning := range merrors.Errors(rotation.Warnings) {
		logRetargetWarn("%s: %v", model.RetargetWarningAttachmentUnrestored, warning)
	}

	result := &RotateRestPoseResult{Scene: scene, Rotation: rotation}
	if strings.TrimSpace(request.OutputPath) == "" {
		return result, nil
	}
	if err := uc.SaveScene(nil, request.OutputPath, scene, restPoseSaveOptions(scene)); err != nil {
		return nil, err
	}
	result.OutputPath = request.OutputPath
	return result, nil
}

// resolveArmatureIndex は対象アーマチュアを決める。インデックスが負の場合は名前で検索する。
func resolveArmatureIndex(scene *model.Scene, armatureIndex int, armatureName string) (int, error) {
	if armatureIndex < 0 {
		name := strings.TrimSpace(armatureName)
		if name == "" {
			return -1, merrors.NewMissingInput("アクティブなアーマチュアがありません", nil)
		}
		armatureIndex = scene.FindByName(name)
		if armatureIndex < 0 {
			return -1, merrors.NewMissingInput("アーマチュアが見つかりません: %s", nil, name)
		}
	}
	node, err := scene.Get(armatureIndex)
	if err != nil {
		return -1, merrors.NewMissingInput("アクティブなアーマチュアがありません", err)
	}
	if !node.IsArmature() {
		return -1, merrors.NewNotArmature("選択オブジェクトはアーマチュアではありません: %s", nil, node.Name())
	}
	return armatureIndex, nil
}

// restPoseSaveOptions はシーン全体を保存するオプションを返す。
func restPoseSaveOptions(scene *model.Scene) SaveOptions {
	options := moutput.DefaultSaveOptions()
	options.Fps = scene.Fps
	return options
}
