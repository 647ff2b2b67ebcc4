// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"
)

// SaveOptions は保存時オプションを表す。
type SaveOptions = moutput.SaveOptions

// ExportProgressEventType はアニメーション書き出しの進捗イベント種別を表す。
type ExportProgressEventType string

const (
	// ExportProgressEventTypeInputValidated は入力検証完了イベントを表す。
	ExportProgressEventTypeInputValidated ExportProgressEventType = "input_validated"
	// ExportProgressEventTypeSkeletonImported はスケルトン読み込み完了イベントを表す。
	ExportProgressEventTypeSkeletonImported ExportProgressEventType = "skeleton_imported"
	// ExportProgressEventTypeRetargetBound はリターゲット関係構築完了イベントを表す。
	ExportProgressEventTypeRetargetBound ExportProgressEventType = "retarget_bound"
	// ExportProgressEventTypePoseBaked は焼き込み完了イベントを表す。
	ExportProgressEventTypePoseBaked ExportProgressEventType = "pose_baked"
	// ExportProgressEventTypeExportPartitioned は出力対象確定イベントを表す。
	ExportProgressEventTypeExportPartitioned ExportProgressEventType = "export_partitioned"
	// ExportProgressEventTypeAssetSaved はアセット保存完了イベントを表す。
	ExportProgressEventTypeAssetSaved ExportProgressEventType = "asset_saved"
	// ExportProgressEventTypeDrivenRemoved はドリブン階層削除完了イベントを表す。
	ExportProgressEventTypeDrivenRemoved ExportProgressEventType = "driven_removed"
	// ExportProgressEventTypeAnimationOptimized はアニメーション最適化完了イベントを表す。
	ExportProgressEventTypeAnimationOptimized ExportProgressEventType = "animation_optimized"
)

// ExportProgressEvent はアニメーション書き出しの進捗イベントを表す。
type ExportProgressEvent struct {
	Type       ExportProgressEventType
	NodeCount  int
	LinkCount  int
	FrameCount int
}

// IExportProgressReporter はアニメーション書き出しの進捗通知契約を表す。
type IExportProgressReporter interface {
	// ReportExportProgress は書き出し進捗を通知する。
	ReportExportProgress(event ExportProgressEvent)
}

// ExportRequest はアニメーション書き出し要求を表す。
type ExportRequest struct {
	Scene            *model.Scene
	DriverRootIndex  int
	SkeletonPath     string
	OutputPath       string
	CompressionLevel int
	// FrameStart, FrameEnd が nil の場合はシーンのフレーム範囲を使う。
	FrameStart       *int
	FrameEnd         *int
	Fps              float64
	AnimationName    string
	ProgressReporter IExportProgressReporter
}

// ExportResult はアニメーション書き出し結果を表す。
type ExportResult struct {
	OutputPath    string
	LinkCount     int
	BakedFrames   int
	ExportedNodes int
	Tolerance     float64
	Lossless      bool
}

// RotateRequest はレスト姿勢回転要求を表す。
type RotateRequest struct {
	// Scene が nil の場合は InputPath から読み込む。
	Scene     *model.Scene
	InputPath string
	// ArmatureIndex が負の場合は ArmatureName で検索する。
	ArmatureIndex int
	ArmatureName  string
	Axis          mmath.Axis
	Angle         float64
	// OutputPath が空の場合は保存しない。
	OutputPath string
}

// RotateRestPoseResult はレスト姿勢回転ユースケースの結果を表す。
type RotateRestPoseResult struct {
	Scene      *model.Scene
	Rotation   *RotateResult
	OutputPath string
}
