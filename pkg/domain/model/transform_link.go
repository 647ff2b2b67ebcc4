// 指示: miu200521358
package model

// TransformSpace は姿勢コピーの座標空間を表す。
type TransformSpace int

const (
	// TRANSFORM_SPACE_WORLD はワールド姿勢をそのまま写す。
	TRANSFORM_SPACE_WORLD TransformSpace = iota
	// TRANSFORM_SPACE_BONE_LOCAL はボーンのレスト向き基準で写す。
	TRANSFORM_SPACE_BONE_LOCAL
)

// String は座標空間名を返す。
func (s TransformSpace) String() string {
	if s == TRANSFORM_SPACE_BONE_LOCAL {
		return "bone_local"
	}
	return "world"
}

// TransformLink は所有ノードがターゲットの姿勢を写す関係を表す。
type TransformLink struct {
	TargetIndex int
	// SubtargetName はターゲットがアーマチュアの場合のボーン名。
	SubtargetName string
	Space         TransformSpace
}
