// 指示: miu200521358
package model

const (
	// RetargetWarningAttachmentUnrestored は親ボーン消失で子オブジェクトを復元できなかった警告。
	RetargetWarningAttachmentUnrestored = "RetargetWarningAttachmentUnrestored"
	// RetargetWarningAnimationReparented は出力親が変わりアニメーションを書き出せなかった警告。
	RetargetWarningAnimationReparented = "RetargetWarningAnimationReparented"
	// RetargetWarningLinkTargetMissing は姿勢コピーのターゲットボーンが見つからなかった警告。
	RetargetWarningLinkTargetMissing = "RetargetWarningLinkTargetMissing"
)
