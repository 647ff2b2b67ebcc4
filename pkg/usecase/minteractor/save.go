// 指示: miu200521358
package minteractor

import (
	"fmt"
	"strings"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"
)

// SaveScene はシーンをアセットとして保存する。
func (uc *RetargetUsecase) SaveScene(rep moutput.IAssetWriter, path string, scene *model.Scene, opts SaveOptions) error {
	writer := rep
	if writer == nil {
		writer = uc.assetWriter
	}
	if writer == nil {
		return fmt.Errorf("アセット保存リポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return merrors.NewMissingInput("保存先パスが未指定です", nil)
	}
	if scene == nil {
		return merrors.NewMissingInput("保存対象シーンが未設定です", nil)
	}
	return writer.Save(path, scene, opts)
}
