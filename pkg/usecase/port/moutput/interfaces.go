// 指示: miu200521358
package moutput

import "github.com/miu200521358/mu_rig_retarget/pkg/domain/model"

// ExportFormat は出力形式を表す。
type ExportFormat string

const (
	// EXPORT_FORMAT_GLB はバイナリglTF。
	EXPORT_FORMAT_GLB ExportFormat = "GLB"
	// EXPORT_FORMAT_GLTF はJSONとバッファを埋め込んだglTF。
	EXPORT_FORMAT_GLTF ExportFormat = "GLTF_EMBEDDED"
)

// AnimationMode はアニメーション出力方式を表す。
type AnimationMode string

const (
	// ANIMATION_MODE_ACTIVE_ACTIONS は各ノードの現在のアクションを出力する。
	ANIMATION_MODE_ACTIVE_ACTIONS AnimationMode = "ACTIVE_ACTIONS"
	// ANIMATION_MODE_NONE はアニメーションを出力しない。
	ANIMATION_MODE_NONE AnimationMode = "NONE"
)

// UpAxis は出力座標系の上方向を表す。
type UpAxis string

const (
	// UP_AXIS_Y はY軸上向き。
	UP_AXIS_Y UpAxis = "Y"
	// UP_AXIS_Z はZ軸上向き。
	UP_AXIS_Z UpAxis = "Z"
)

// SaveOptions は保存時のオプションを表す。
type SaveOptions struct {
	Format ExportFormat
	// Selection は出力ノード。nil の場合は全生存ノードを出力する。
	// 指定時は並び順どおりに出力し、選択済みの祖先は子より先に置く。
	Selection       []int
	AnimationMode   AnimationMode
	MergeAnimations bool
	AnimationName   string
	IncludeExtras   bool
	// IncludeMorphTargets が true の場合はモーフターゲットとウェイトのアニメーションを書き出す。
	IncludeMorphTargets bool
	IncludeSkins        bool
	UpAxis              UpAxis
	// NameOverrides は出力時に差し替えるノード名。
	NameOverrides map[int]string
	Fps           float64
}

// DefaultSaveOptions はアニメーション書き出し用の既定オプションを返す。
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{
		Format:              EXPORT_FORMAT_GLB,
		AnimationMode:       ANIMATION_MODE_ACTIVE_ACTIONS,
		MergeAnimations:     true,
		AnimationName:       "Animation",
		IncludeExtras:       true,
		IncludeMorphTargets: true,
		UpAxis:              UP_AXIS_Y,
		Fps:                 model.DefaultFps,
	}
}

// IAssetReader はアセット読み込み契約を表す。
type IAssetReader interface {
	CanLoad(path string) bool
	Load(path string) (*model.Scene, error)
	// LoadInto は既存シーンへ読み込み、追加したルートノードを返す。
	LoadInto(scene *model.Scene, path string) ([]int, error)
}

// IAssetWriter はアセット保存契約を表す。
type IAssetWriter interface {
	Save(path string, scene *model.Scene, options SaveOptions) error
}

// IAnimationOptimizer は保存済みアセットのアニメーション最適化契約を表す。
type IAnimationOptimizer interface {
	Optimize(path string, level int) error
}
