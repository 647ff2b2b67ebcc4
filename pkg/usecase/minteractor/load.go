// 指示: miu200521358
package minteractor

import (
	"fmt"
	"strings"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"
)

// LoadScene はアセットを新しいシーンとして読み込む。
func (uc *RetargetUsecase) LoadScene(rep moutput.IAssetReader, path string) (*model.Scene, error) {
	repo := rep
	if repo == nil {
		repo = uc.assetReader
	}
	if repo == nil {
		return nil, fmt.Errorf("アセット読み込みリポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return nil, merrors.NewMissingInput("読み込みパスが未指定です", nil)
	}
	if !repo.CanLoad(path) {
		return nil, merrors.NewFormatNotSupported("入力形式が未対応です: %s", nil, path)
	}
	return repo.Load(path)
}

// importSkeleton はスケルトンアセットを既存シーンへ読み込み、追加したルートを返す。
func (uc *RetargetUsecase) importSkeleton(scene *model.Scene, path string) ([]int, error) {
	if uc.assetReader == nil {
		return nil, fmt.Errorf("アセット読み込みリポジトリが設定されていません")
	}
	if !uc.assetReader.CanLoad(path) {
		return nil, merrors.NewFormatNotSupported("スケルトン形式が未対応です: %s", nil, path)
	}
	roots, err := uc.assetReader.LoadInto(scene, path)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, merrors.NewEmptyImport("スケルトンにノードがありません: %s", nil, path)
	}
	return roots, nil
}
