// 指示: miu200521358
// Package minteractor はリターゲット、焼き込み、レスト姿勢回転のユースケースを提供する。
package minteractor

import "github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"

// RetargetUsecaseDeps はリターゲットユースケースの依存を表す。
type RetargetUsecaseDeps struct {
	AssetReader moutput.IAssetReader
	AssetWriter moutput.IAssetWriter
	Optimizer   moutput.IAnimationOptimizer
}

// RetargetUsecase はアニメーション書き出しとレスト姿勢回転をまとめたユースケースを表す。
type RetargetUsecase struct {
	assetReader moutput.IAssetReader
	assetWriter moutput.IAssetWriter
	optimizer   moutput.IAnimationOptimizer
}

// NewRetargetUsecase はリターゲットユースケースを生成する。
func NewRetargetUsecase(deps RetargetUsecaseDeps) *RetargetUsecase {
	return &RetargetUsecase{
		assetReader: deps.AssetReader,
		assetWriter: deps.AssetWriter,
		optimizer:   deps.Optimizer,
	}
}
