// 指示: miu200521358
package minteractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"
)

// ExportAnimation はスケルトンアセットを読み込み、ドライバー階層の動きを焼き込んで書き出す。
// 保存後に最適化が失敗した場合、出力ファイルは未最適化のまま残る。
func (uc *RetargetUsecase) ExportAnimation(request ExportRequest) (*ExportResult, error) {
	tolerance, lossless, err := uc.validateExportRequest(request)
	if err != nil {
		return nil, err
	}
	scene := request.Scene
	bakeRange := resolveBakeRange(scene, request.FrameStart, request.FrameEnd)
	reportExportProgress(request.ProgressReporter, ExportProgressEvent{
		Type:       ExportProgressEventTypeInputValidated,
		FrameCount: bakeRange.FrameCount(),
	})

	roots, err := uc.importSkeleton(scene, request.SkeletonPath)
	if err != nil {
		return nil, err
	}
	drivenRoot := roots[0]
	reportExportProgress(request.ProgressReporter, ExportProgressEvent{
		Type:      ExportProgressEventTypeSkeletonImported,
		NodeCount: len(scene.Descendants(drivenRoot)),
	})
	logRetargetInfo("スケルトン読み込み完了: file=%s roots=%d", filepath.Base(request.SkeletonPath), len(roots))

	result, err := uc.bakeAndSave(request, bakeRange, drivenRoot)
	removed := RemoveDrivenHierarchy(scene, roots...)
	if err != nil {
		return nil, err
	}
	reportExportProgress(request.ProgressReporter, ExportProgressEvent{
		Type:      ExportProgressEventTypeDrivenRemoved,
		NodeCount: removed,
	})

	result.Tolerance = tolerance
	result.Lossless = lossless
	if err := uc.optimizer.Optimize(result.OutputPath, request.CompressionLevel); err != nil {
		if errors.Is(err, merrors.ErrOptimizerFailed) {
			return result, err
		}
		return result, merrors.NewOptimizerFailed("アニメーション最適化に失敗しました: %s", err, result.OutputPath)
	}
	reportExportProgress(request.ProgressReporter, ExportProgressEvent{
		Type:       ExportProgressEventTypeAnimationOptimized,
		NodeCount:  result.ExportedNodes,
		LinkCount:  result.LinkCount,
		FrameCount: result.BakedFrames,
	})
	logRetargetInfo("アニメーション書き出し完了: file=%s level=%d tolerance=%g", filepath.Base(result.OutputPath), request.CompressionLevel, tolerance)
	return result, nil
}

// validateExportRequest は破壊的な変更の前に入力を検証し、圧縮レベルの許容誤差を返す。
func (uc *RetargetUsecase) validateExportRequest(request ExportRequest) (float64, bool, error) {
	if request.Scene == nil {
		return 0, false, merrors.NewMissingInput("シーンが未設定です", nil)
	}
	if !request.Scene.Contains(request.DriverRootIndex) {
		return 0, false, merrors.NewMissingInput("ドライバールートを選択してください", nil)
	}
	if strings.TrimSpace(request.SkeletonPath) == "" {
		return 0, false, merrors.NewMissingInput("スケルトンファイルを指定してください", nil)
	}
	if strings.TrimSpace(request.OutputPath) == "" {
		return 0, false, merrors.NewMissingInput("出力ファイルを指定してください", nil)
	}
	if err := validateOutputExt(request.OutputPath); err != nil {
		return 0, false, err
	}
	tolerance, lossless, err := moutput.ToleranceForLevel(request.CompressionLevel)
	if err != nil {
		return 0, false, err
	}
	if uc.assetReader == nil || uc.assetWriter == nil || uc.optimizer == nil {
		return 0, false, fmt.Errorf("アセット入出力または最適化の依存が設定されていません")
	}
	if request.Scene.IsEditing() {
		return 0, false, merrors.NewEditModeActive("編集セッション中は書き出せません", nil)
	}
	return tolerance, lossless, nil
}

// bakeAndSave は関係構築、焼き込み、出力対象の選別と保存を行う。
func (uc *RetargetUsecase) bakeAndSave(request ExportRequest, bakeRange BakeRange, drivenRoot int) (*ExportResult, error) {
	scene := request.Scene
	correspondence, err := BindRetarget(scene, request.DriverRootIndex, drivenRoot)
	if err != nil {
		return nil, err
	}
	reportExportProgress(request.ProgressReporter, ExportProgressEvent{
		Type:      ExportProgressEventTypeRetargetBound,
		LinkCount: len(correspondence.Links),
	})

	baked, err := BakePose(scene, drivenRoot, bakeRange)
	if err != nil {
		return nil, err
	}
	reportExportProgress(request.ProgressReporter, ExportProgressEvent{
		Type:       ExportProgressEventTypePoseBaked,
		NodeCount:  len(baked.KeyedNodes),
		FrameCount: baked.Frames,
	})

	selection := PartitionExport(scene, request.DriverRootIndex, drivenRoot)
	reportExportProgress(request.ProgressReporter, ExportProgressEvent{
		Type:      ExportProgressEventTypeExportPartitioned,
		NodeCount: len(selection),
	})

	options := animationSaveOptions(request, selection, correspondence)
	if err := uc.SaveScene(nil, request.OutputPath, scene, options); err != nil {
		if errors.Is(err, merrors.ErrSaveFailed) {
			return nil, err
		}
		return nil, merrors.NewSaveFailed("アニメーションの保存に失敗しました: %s", err, request.OutputPath)
	}
	reportExportProgress(request.ProgressReporter, ExportProgressEvent{
		Type:      ExportProgressEventTypeAssetSaved,
		NodeCount: len(selection),
	})

	return &ExportResult{
		OutputPath:    request.OutputPath,
		LinkCount:     len(correspondence.Links),
		BakedFrames:   baked.Frames,
		ExportedNodes: len(selection),
	}, nil
}

// animationSaveOptions はアニメーション書き出し用の保存オプションを組み立てる。
func animationSaveOptions(request ExportRequest, selection []int, correspondence *Correspondence) SaveOptions {
	options := moutput.DefaultSaveOptions()
	options.Selection = selection
	options.NameOverrides = correspondence.OriginalNames
	if strings.TrimSpace(request.AnimationName) != "" {
		options.AnimationName = request.AnimationName
	}
	options.Fps = request.Scene.Fps
	if request.Fps > 0 {
		options.Fps = request.Fps
	}
	return options
}

// resolveBakeRange は指定が無い端をシーンのフレーム範囲で補う。
func resolveBakeRange(scene *model.Scene, frameStart, frameEnd *int) BakeRange {
	bakeRange := BakeRange{Start: scene.FrameStart, End: scene.FrameEnd}
	if frameStart != nil {
		bakeRange.Start = *frameStart
	}
	if frameEnd != nil {
		bakeRange.End = *frameEnd
	}
	return bakeRange
}

// reportExportProgress は進捗通知先があれば通知する。
func reportExportProgress(reporter IExportProgressReporter, event ExportProgressEvent) {
	if reporter == nil {
		return
	}
	reporter.ReportExportProgress(event)
}
