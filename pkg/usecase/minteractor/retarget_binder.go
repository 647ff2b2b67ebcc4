// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

// RetargetLink はドリブン側ノードがドライバー側の姿勢を写す関係を表す。
type RetargetLink struct {
	DrivenIndex int
	DriverIndex int
	// SubtargetName はボーン同士の関係の場合のドライバー側ボーン名。
	SubtargetName string
	Space         model.TransformSpace
}

// Correspondence は1回のエクスポートで使うドリブン側とドライバー側の対応表を表す。
type Correspondence struct {
	DrivenToDriver map[int]int
	// OriginalNames はドリブン側ノードの本来の名前。出力時の名前差し替えに使う。
	OriginalNames map[int]string
	Links         []RetargetLink
}

func newCorrespondence() *Correspondence {
	return &Correspondence{
		DrivenToDriver: make(map[int]int),
		OriginalNames:  make(map[int]string),
		Links:          make([]RetargetLink, 0),
	}
}

// isLinked はドリブン側ノードに関係が張られているか判定する。
func (c *Correspondence) isLinked(drivenIndex int) bool {
	_, ok := c.DrivenToDriver[drivenIndex]
	return ok
}

// BindRetarget はドライバー階層を前順に辿り、名前が対応するドリブン側ノードへ姿勢コピー関係を張る。
// 対応が見つからないノードは読み飛ばし、子孫の探索は続ける。
func BindRetarget(scene *model.Scene, driverRoot, drivenRoot int) (*Correspondence, error) {
	if scene == nil {
		return nil, merrors.NewMissingInput("シーンが未設定です", nil)
	}
	if !scene.Contains(driverRoot) {
		return nil, merrors.NewMissingInput("ドライバールートが見つかりません: index=%d", nil, driverRoot)
	}
	if !scene.Contains(drivenRoot) {
		return nil, merrors.NewMissingInput("ドリブンルートが見つかりません: index=%d", nil, drivenRoot)
	}

	candidates := drivenObjects(scene, drivenRoot)
	correspondence := newCorrespondence()
	stack := []int{driverRoot}
	for len(stack) > 0 {
		driverIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		driver, err := scene.Get(driverIndex)
		if err != nil {
			return nil, err
		}

		if err := bindObject(scene, correspondence, driver, candidates); err != nil {
			return nil, err
		}
		if driver.IsArmature() {
			if err := bindArmature(scene, correspondence, driver, candidates); err != nil {
				return nil, err
			}
		}

		children := scene.ObjectChildren(driverIndex)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	logRetargetInfo("リターゲット関係構築完了: driver=%d driven=%d links=%d", driverRoot, drivenRoot, len(correspondence.Links))
	return correspondence, nil
}

// drivenObjects はドリブン階層のボーン以外のノードを前順で返す。ルート自身を含む。
func drivenObjects(scene *model.Scene, drivenRoot int) []*model.Node {
	objects := make([]*model.Node, 0)
	for _, index := range scene.Descendants(drivenRoot) {
		node, err := scene.Get(index)
		if err != nil || node.IsBone() {
			continue
		}
		objects = append(objects, node)
	}
	return objects
}

// bindObject は名前が対応する最初のドリブン側ノードへワールド空間の姿勢コピーを張る。
func bindObject(scene *model.Scene, correspondence *Correspondence, driver *model.Node, candidates []*model.Node) error {
	for _, driven := range candidates {
		if !MatchNodeName(driver.Name(), driven.Name()) {
			continue
		}
		if correspondence.isLinked(driven.Index()) {
			logRetargetDebug("対応済みのためスキップ: %s -> %s", driven.Name(), driver.Name())
			return nil
		}
		link := RetargetLink{DrivenIndex: driven.Index(), DriverIndex: driver.Index(), Space: model.TRANSFORM_SPACE_WORLD}
		if err := addRetargetLink(scene, correspondence, link); err != nil {
			return err
		}
		correspondence.OriginalNames[driven.Index()] = driver.Name()
		logRetargetDebug("ノード対応: %s -> %s", driven.Name(), driver.Name())
		return nil
	}
	return nil
}

// bindArmature は最初のドリブン側アーマチュアを対応させ、同名ボーンへボーンローカルの姿勢コピーを張る。
func bindArmature(scene *model.Scene, correspondence *Correspondence, driver *model.Node, candidates []*model.Node) error {
	var drivenArmature *model.Node
	for _, driven := range candidates {
		if driven.IsArmature() {
			drivenArmature = driven
			break
		}
	}
	if drivenArmature == nil {
		logRetargetWarn("%s: 対応するアーマチュアがありません: %s", model.RetargetWarningLinkTargetMissing, driver.Name())
		return nil
	}
	correspondence.OriginalNames[drivenArmature.Index()] = driver.Name()

	drivenBones := scene.Bones(drivenArmature.Index())
	for _, driverBoneIndex := range scene.Bones(driver.Index()) {
		driverBone, err := scene.Get(driverBoneIndex)
		if err != nil {
			return err
		}
		for _, drivenBoneIndex := range drivenBones {
			drivenBone, err := scene.Get(drivenBoneIndex)
			if err != nil {
				return err
			}
			if !MatchNodeName(driverBone.Name(), drivenBone.Name()) {
				continue
			}
			if correspondence.isLinked(drivenBoneIndex) {
				break
			}
			link := RetargetLink{
				DrivenIndex:   drivenBoneIndex,
				DriverIndex:   driver.Index(),
				SubtargetName: driverBone.Name(),
				Space:         model.TRANSFORM_SPACE_BONE_LOCAL,
			}
			if err := addRetargetLink(scene, correspondence, link); err != nil {
				return err
			}
			correspondence.OriginalNames[drivenBoneIndex] = driverBone.Name()
			break
		}
	}
	return nil
}

// addRetargetLink はシーンへ姿勢コピー関係を追加し、対応表へ記録する。
// ドリブン側ノードの関係は常に1つで、以前の関係は外す。
func addRetargetLink(scene *model.Scene, correspondence *Correspondence, link RetargetLink) error {
	scene.ClearLinks(link.DrivenIndex)
	if err := scene.AddLink(link.DrivenIndex, model.TransformLink{
		TargetIndex:   link.DriverIndex,
		SubtargetName: link.SubtargetName,
		Space:         link.Space,
	}); err != nil {
		return err
	}
	if link.SubtargetName == "" {
		correspondence.DrivenToDriver[link.DrivenIndex] = link.DriverIndex
	} else if boneIndex := scene.BoneByName(link.DriverIndex, link.SubtargetName); boneIndex >= 0 {
		correspondence.DrivenToDriver[link.DrivenIndex] = boneIndex
	}
	correspondence.Links = append(correspondence.Links, link)
	return nil
}
