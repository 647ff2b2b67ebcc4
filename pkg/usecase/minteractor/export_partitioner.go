// 指示: miu200521358
package minteractor

import "github.com/miu200521358/mu_rig_retarget/pkg/domain/model"

// PartitionExport は出力対象ノードを返す。ドリブン階層のメッシュ以外のノードを前順に並べ、
// 続けてドライバー階層のメッシュノードを前順に並べる。種別は各ノードごとに判定する。
func PartitionExport(scene *model.Scene, driverRoot, drivenRoot int) []int {
	selection := make([]int, 0)
	seen := make(map[int]struct{})
	appendWhere := func(root int, include func(node *model.Node) bool) {
		for _, index := range scene.Descendants(root) {
			if _, ok := seen[index]; ok {
				continue
			}
			node, err := scene.Get(index)
			if err != nil || !include(node) {
				continue
			}
			seen[index] = struct{}{}
			selection = append(selection, index)
		}
	}
	appendWhere(drivenRoot, func(node *model.Node) bool { return !node.IsMesh() })
	appendWhere(driverRoot, func(node *model.Node) bool { return node.IsMesh() })
	return selection
}

// RemoveDrivenHierarchy はドリブン階層を種別に関係なく丸ごと削除し、削除したノード数を返す。
func RemoveDrivenHierarchy(scene *model.Scene, roots ...int) int {
	removed := 0
	for _, root := range roots {
		if !scene.Contains(root) {
			continue
		}
		removed += len(scene.RemoveSubtree(root))
	}
	logRetargetDebug("ドリブン階層削除: roots=%d nodes=%d", len(roots), removed)
	return removed
}
