// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

// bakedActionSuffix は焼き込みで生成するアクション名の接尾辞。
const bakedActionSuffix = "Action"

// BakeRange は焼き込むフレーム範囲を表す。両端を含む。
type BakeRange struct {
	Start int
	End   int
}

// FrameCount はサンプリングするフレーム数を返す。逆転した範囲は0。
func (r BakeRange) FrameCount() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// BakeResult は焼き込み結果を表す。
type BakeResult struct {
	Frames     int
	KeyedNodes []int
}

// bakeSample は1フレーム分の評価済み姿勢を表す。
type bakeSample struct {
	frame int
	local mmath.Mat4
}

// BakePose はドリブン階層全体を1フレームずつ評価し、見た目どおりの姿勢を新しいアクションへ書き込む。
// 既存のアクションは置き換え、モーフウェイトのキーだけを引き継ぐ。姿勢コピー関係は残す。
func BakePose(scene *model.Scene, drivenRoot int, bakeRange BakeRange) (*BakeResult, error) {
	if scene == nil {
		return nil, merrors.NewMissingInput("シーンが未設定です", nil)
	}
	if !scene.Contains(drivenRoot) {
		return nil, merrors.NewMissingInput("ドリブンルートが見つかりません: index=%d", nil, drivenRoot)
	}
	frameCount := bakeRange.FrameCount()
	if frameCount == 0 {
		logRetargetDebug("焼き込み範囲が空のためスキップ: %d-%d", bakeRange.Start, bakeRange.End)
		return &BakeResult{KeyedNodes: []int{}}, nil
	}

	nodes := scene.Descendants(drivenRoot)
	samples := make(map[int][]bakeSample, len(nodes))
	for frame := bakeRange.Start; frame <= bakeRange.End; frame++ {
		if err := scene.Evaluate(frame); err != nil {
			return nil, err
		}
		for _, index := range nodes {
			local, err := scene.LocalOf(index)
			if err != nil {
				return nil, err
			}
			samples[index] = append(samples[index], bakeSample{frame: frame, local: local})
		}
	}

	for _, index := range nodes {
		node, err := scene.Get(index)
		if err != nil {
			return nil, err
		}
		action := model.NewAction(node.Name() + bakedActionSuffix)
		for _, sample := range samples[index] {
			action.SetKey(float64(sample.frame), sample.local)
		}
		if node.Action != nil && len(node.Action.Weights) > 0 {
			// モーフウェイトは姿勢から求まらないため元のキーを引き継ぐ。
			previous, err := node.Action.Copy()
			if err != nil {
				return nil, err
			}
			action.Weights = previous.Weights
		}
		node.Action = action
	}
	if err := scene.Evaluate(scene.CurrentFrame); err != nil {
		return nil, err
	}

	logRetargetInfo("焼き込み完了: frames=%d-%d nodes=%d", bakeRange.Start, bakeRange.End, len(nodes))
	return &BakeResult{Frames: frameCount, KeyedNodes: nodes}, nil
}
