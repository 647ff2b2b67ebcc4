// 指示: miu200521358
package minteractor

import (
	"testing"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
)

func mustAppend(t *testing.T, scene *model.Scene, node *model.Node) int {
	t.Helper()
	index, err := scene.AppendNode(node)
	if err != nil {
		t.Fatalf("AppendNode failed: %v", err)
	}
	return index
}

func appendNode(t *testing.T, scene *model.Scene, parentIndex int, name string, nodeType model.NodeType) int {
	t.Helper()
	return mustAppend(t, scene, model.NewNode(name, nodeType, parentIndex))
}

// appendBone はヘッド位置を原点とするY軸向きのボーンを追加する。
func appendBone(t *testing.T, scene *model.Scene, parentIndex int, name string, head, tail mmath.Vec3, connected bool) int {
	t.Helper()
	node := model.NewNode(name, model.NODE_TYPE_BONE, parentIndex)
	node.Bone.Head = head
	node.Bone.Tail = tail
	node.Bone.Rest = mmath.NewTranslationMat4(head)
	node.Bone.Connected = connected
	return mustAppend(t, scene, node)
}

func mustNode(t *testing.T, scene *model.Scene, index int) *model.Node {
	t.Helper()
	node, err := scene.Get(index)
	if err != nil {
		t.Fatalf("Get(%d) failed: %v", index, err)
	}
	return node
}

func mustEvaluate(t *testing.T, scene *model.Scene, frame int) {
	t.Helper()
	if err := scene.Evaluate(frame); err != nil {
		t.Fatalf("Evaluate(%d) failed: %v", frame, err)
	}
}

func namesOf(scene *model.Scene, indexes []int) []string {
	names := make([]string, 0, len(indexes))
	for _, index := range indexes {
		node, err := scene.Get(index)
		if err != nil {
			names = append(names, "<missing>")
			continue
		}
		names = append(names, node.Name())
	}
	return names
}

// heroRig はドライバー用アーマチュアと各ボーンのインデックスを表す。
type heroRig struct {
	armature int
	pelvis   int
	spine    int
	body     int
}

// appendHeroRig は Hero アーマチュアに Pelvis/Spine ボーンとメッシュを追加する。
// Pelvis はフレーム1から10にかけてZ軸まわりに90度回転する。
func appendHeroRig(t *testing.T, scene *model.Scene, armatureName, pelvisName, spineName string, animated bool) heroRig {
	t.Helper()
	armature := appendNode(t, scene, -1, armatureName, model.NODE_TYPE_ARMATURE)
	pelvis := appendBone(t, scene, armature, pelvisName, mmath.NewVec3(0, 1, 0), mmath.NewVec3(0, 1.5, 0), false)
	spine := appendBone(t, scene, pelvis, spineName, mmath.NewVec3(0, 1.5, 0), mmath.NewVec3(0, 2, 0), true)

	rig := heroRig{armature: armature, pelvis: pelvis, spine: spine, body: -1}
	if animated {
		pelvisNode := mustNode(t, scene, pelvis)
		pelvisNode.Action = model.NewAction("HeroAction")
		restLocal := pelvisNode.Bone.Rest
		pelvisNode.Action.SetKey(1, restLocal)
		pelvisNode.Action.SetKey(10, restLocal.Muled(mmath.NewRotationMat4(mmath.AXIS_Z, 90)))

		bodyNode := model.NewNode("Body", model.NODE_TYPE_MESH, armature)
		bodyNode.Mesh = &model.MeshData{
			Positions: []mmath.Vec3{mmath.NewVec3(0, 0, 0), mmath.NewVec3(1, 0, 0), mmath.NewVec3(0, 1, 0)},
			Indices:   []uint32{0, 1, 2},
		}
		rig.body = mustAppend(t, scene, bodyNode)
	}
	return rig
}
