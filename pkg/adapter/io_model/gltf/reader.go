// 指示: miu200521358
// Package gltf はglTF/GLBアセットとシーンアリーナの相互変換を提供する。
package gltf

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/logging"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

const (
	// 子ボーンも長さ情報も無い末端ボーンの既定長。
	defaultBoneLength = 0.1
	minBoneLength     = 1e-6
)

// LoadProgressEventType はglTF読込進捗イベント種別を表す。
type LoadProgressEventType string

const (
	// LoadProgressEventTypeFileReadComplete はファイル読込完了イベントを表す。
	LoadProgressEventTypeFileReadComplete LoadProgressEventType = "file_read_complete"
	// LoadProgressEventTypeJsonParsed はJSON解析完了イベントを表す。
	LoadProgressEventTypeJsonParsed LoadProgressEventType = "json_parsed"
	// LoadProgressEventTypeCompleted はglTF読込完了イベントを表す。
	LoadProgressEventTypeCompleted LoadProgressEventType = "completed"
)

// LoadProgressEvent はglTF読込進捗イベントを表す。
type LoadProgressEvent struct {
	Type           LoadProgressEventType
	FileSizeBytes  int
	NodeCount      int
	AnimationCount int
}

// GltfRepository はglTF/GLBの読み書きを表す。
type GltfRepository struct {
	// Fps はアニメーション時刻とフレームの換算に使う。文書にfpsがあればそちらを優先する。
	Fps                  float64
	loadProgressReporter func(LoadProgressEvent)
}

// NewGltfRepository はGltfRepositoryを生成する。
func NewGltfRepository() *GltfRepository {
	return &GltfRepository{Fps: model.DefaultFps}
}

// SetLoadProgressReporter は読込進捗受信コールバックを設定する。
func (r *GltfRepository) SetLoadProgressReporter(reporter func(LoadProgressEvent)) {
	if r == nil {
		return
	}
	r.loadProgressReporter = reporter
}

// CanLoad は拡張子に応じて読み込み可否を判定する。
func (r *GltfRepository) CanLoad(path string) bool {
	ext := filepath.Ext(path)
	return strings.EqualFold(ext, ".glb") || strings.EqualFold(ext, ".gltf")
}

// InferName はパスから表示名を推定する。
func (r *GltfRepository) InferName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load はアセットを新しいシーンへ読み込む。シーンのフレーム範囲はアニメーションに合わせる。
func (r *GltfRepository) Load(path string) (*model.Scene, error) {
	scene := model.NewScene()
	loaded, err := r.load(scene, path, true)
	if err != nil {
		return nil, err
	}
	if len(loaded) == 0 {
		return nil, merrors.NewEmptyImport("読み込んだアセットにノードがありません: %s", nil, path)
	}
	return scene, nil
}

// LoadInto はアセットを既存シーンへ読み込み、追加したルートノードを返す。
func (r *GltfRepository) LoadInto(scene *model.Scene, path string) ([]int, error) {
	if scene == nil {
		return nil, fmt.Errorf("読み込み先シーンが未設定です")
	}
	return r.load(scene, path, false)
}

// load はアセットをシーンへ展開する。
func (r *GltfRepository) load(scene *model.Scene, path string, applySceneSettings bool) ([]int, error) {
	if !r.CanLoad(path) {
		return nil, merrors.NewFormatNotSupported("glTF/GLB以外の拡張子です: %s", nil, path)
	}
	loadTargetName := filepath.Base(path)
	logGltfInfo("glTF読込開始: file=%s", loadTargetName)

	doc, binChunk, size, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	r.reportLoadProgress(LoadProgressEvent{Type: LoadProgressEventTypeFileReadComplete, FileSizeBytes: size})
	r.reportLoadProgress(LoadProgressEvent{
		Type:           LoadProgressEventTypeJsonParsed,
		FileSizeBytes:  size,
		NodeCount:      len(doc.Nodes),
		AnimationCount: len(doc.Animations),
	})
	logGltfInfo("glTF読込ステップ: JSON解析完了 nodes=%d skins=%d animations=%d", len(doc.Nodes), len(doc.Skins), len(doc.Animations))

	builder, err := newSceneBuilder(doc, binChunk)
	if err != nil {
		return nil, err
	}
	roots, err := builder.appendTo(scene)
	if err != nil {
		return nil, err
	}
	logGltfInfo("glTF読込ステップ: ノード展開完了 roots=%d", len(roots))

	fps := r.resolveFps(doc)
	keyRange, err := builder.applyAnimation(scene, fps)
	if err != nil {
		return nil, err
	}
	if applySceneSettings {
		scene.Fps = fps
		if doc.Extras != nil && doc.Extras.FrameStart != nil && doc.Extras.FrameEnd != nil {
			scene.FrameStart = *doc.Extras.FrameStart
			scene.FrameEnd = *doc.Extras.FrameEnd
		} else if keyRange.ok {
			scene.FrameStart = int(math.Floor(keyRange.start))
			scene.FrameEnd = int(math.Ceil(keyRange.end))
		}
		scene.CurrentFrame = scene.FrameStart
	}
	if !scene.IsEditing() {
		if err := scene.Evaluate(scene.CurrentFrame); err != nil {
			return nil, err
		}
	}

	r.reportLoadProgress(LoadProgressEvent{
		Type:           LoadProgressEventTypeCompleted,
		FileSizeBytes:  size,
		NodeCount:      len(doc.Nodes),
		AnimationCount: len(doc.Animations),
	})
	logGltfInfo("glTF読込完了: file=%s roots=%d", loadTargetName, len(roots))
	return roots, nil
}

// resolveFps は文書のfpsを優先してフレームレートを決める。
func (r *GltfRepository) resolveFps(doc *gltfDocument) float64 {
	if doc.Extras != nil && doc.Extras.Fps > 0 {
		return doc.Extras.Fps
	}
	if r != nil && r.Fps > 0 {
		return r.Fps
	}
	return model.DefaultFps
}

// reportLoadProgress は読込進捗イベントを通知する。
func (r *GltfRepository) reportLoadProgress(event LoadProgressEvent) {
	if r == nil || r.loadProgressReporter == nil {
		return
	}
	r.loadProgressReporter(event)
}

// readDocument はglb/gltfを読み取り、文書とBINバッファを返す。
func readDocument(path string) (*gltfDocument, []byte, int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, 0, merrors.NewMissingInput("アセットファイルが見つかりません: %s", err, path)
		}
		return nil, nil, 0, merrors.NewParseFailed("アセットファイルの読み取りに失敗しました", err)
	}

	jsonChunk := b
	var binChunk []byte
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		jsonChunk, binChunk, err = parseGLBChunks(b)
		if err != nil {
			return nil, nil, 0, err
		}
	}

	doc := &gltfDocument{}
	if err := json.Unmarshal(jsonChunk, doc); err != nil {
		return nil, nil, 0, merrors.NewParseFailed("glTF JSONの解析に失敗しました", err)
	}
	if len(doc.Buffers) > 1 {
		return nil, nil, 0, merrors.NewFormatNotSupported("複数bufferは未対応です: %d", nil, len(doc.Buffers))
	}
	if len(doc.Buffers) == 1 && doc.Buffers[0].URI != "" {
		binChunk, err = resolveBufferData(doc.Buffers[0].URI, path)
		if err != nil {
			return nil, nil, 0, err
		}
	}
	return doc, binChunk, len(b), nil
}

// keyFrameRange は読み込んだキーのフレーム範囲を表す。
type keyFrameRange struct {
	start float64
	end   float64
	ok    bool
}

func (k *keyFrameRange) visit(frame float64) {
	if !k.ok {
		k.start, k.end, k.ok = frame, frame, true
		return
	}
	k.start = math.Min(k.start, frame)
	k.end = math.Max(k.end, frame)
}

// sceneBuilder はglTF文書をシーンノードへ展開する。
type sceneBuilder struct {
	doc        *gltfDocument
	binChunk   []byte
	parents    []int
	order      []int
	locals     []mmath.Mat4
	worlds     []mmath.Mat4
	nodeTypes  []model.NodeType
	extras     []gltfNodeExtras
	sceneIndex []int

	// armatureWorlds はシーン上のアーマチュアごとの読込時ワールド行列。
	armatureWorlds map[int]mmath.Mat4
	// syntheticArmatures はglTF親ごとに補完したアーマチュア。
	syntheticArmatures map[int]int
}

// newSceneBuilder は親子・ワールド行列・ノード種別を解決する。
func newSceneBuilder(doc *gltfDocument, binChunk []byte) (*sceneBuilder, error) {
	parents, err := buildNodeParentIndexes(doc.Nodes)
	if err != nil {
		return nil, err
	}
	order, err := buildNodeOrder(doc.Nodes, parents)
	if err != nil {
		return nil, err
	}
	locals, worlds, err := buildNodeWorldMatrixes(doc.Nodes, parents, order)
	if err != nil {
		return nil, err
	}
	builder := &sceneBuilder{
		doc:        doc,
		binChunk:   binChunk,
		parents:    parents,
		order:      order,
		locals:     locals,
		worlds:     worlds,
		extras:     make([]gltfNodeExtras, len(doc.Nodes)),
		sceneIndex: make([]int, len(doc.Nodes)),

		armatureWorlds:     make(map[int]mmath.Mat4),
		syntheticArmatures: make(map[int]int),
	}
	for i, node := range doc.Nodes {
		builder.extras[i] = parseNodeExtras(node.Extras)
		builder.sceneIndex[i] = -1
	}
	builder.nodeTypes = builder.classifyNodes()
	return builder, nil
}

// classifyNodes はextras、メッシュ、スキン情報からノード種別を決める。
func (b *sceneBuilder) classifyNodes() []model.NodeType {
	nodeTypes := make([]model.NodeType, len(b.doc.Nodes))
	explicit := make([]bool, len(b.doc.Nodes))
	for i, node := range b.doc.Nodes {
		if nodeType, ok := model.ParseNodeType(b.extras[i].NodeType); ok {
			nodeTypes[i] = nodeType
			explicit[i] = true
			continue
		}
		if node.Mesh != nil {
			nodeTypes[i] = model.NODE_TYPE_MESH
		}
	}

	jointSet := map[int]struct{}{}
	for _, skin := range b.doc.Skins {
		for _, joint := range skin.Joints {
			if joint >= 0 && joint < len(nodeTypes) && !explicit[joint] {
				nodeTypes[joint] = model.NODE_TYPE_BONE
				jointSet[joint] = struct{}{}
			}
		}
	}
	for _, skin := range b.doc.Skins {
		if skin.Skeleton != nil {
			skeleton := *skin.Skeleton
			if _, isJoint := jointSet[skeleton]; !isJoint && skeleton >= 0 && skeleton < len(nodeTypes) && !explicit[skeleton] {
				nodeTypes[skeleton] = model.NODE_TYPE_ARMATURE
			}
		}
	}
	for joint := range jointSet {
		parent := b.parents[joint]
		if parent < 0 || explicit[parent] {
			continue
		}
		if _, isJoint := jointSet[parent]; isJoint {
			continue
		}
		if nodeTypes[parent] == model.NODE_TYPE_GENERIC {
			nodeTypes[parent] = model.NODE_TYPE_ARMATURE
		}
	}
	return nodeTypes
}

// appendTo はノードを前順でシーンへ追加し、ルートのシーンインデックスを返す。
func (b *sceneBuilder) appendTo(scene *model.Scene) ([]int, error) {
	roots := make([]int, 0)
	for _, gltfIndex := range b.order {
		nodeType := b.nodeTypes[gltfIndex]
		parent := b.parents[gltfIndex]

		parentScene := -1
		if parent >= 0 {
			parentScene = b.sceneIndex[parent]
		}
		if nodeType == model.NODE_TYPE_BONE && !b.hasArmatureParent(scene, parentScene) {
			armatureIndex, created, err := b.syntheticArmature(scene, parent, parentScene)
			if err != nil {
				return nil, err
			}
			if created && parentScene < 0 {
				roots = append(roots, armatureIndex)
			}
			parentScene = armatureIndex
		}

		node := model.NewNode(b.nodeName(gltfIndex), nodeType, parentScene)
		switch nodeType {
		case model.NODE_TYPE_BONE:
			b.fillBone(scene, node, gltfIndex, parentScene)
		default:
			node.Local = b.locals[gltfIndex]
			if parentScene >= 0 {
				parentNode, _ := scene.Get(parentScene)
				if parentNode.IsBone() {
					// ボーン配下のオブジェクトはアーマチュアの子としてボーン名で親子付けする。
					node.ParentBoneName = parentNode.Name()
					node.ParentIndex = scene.ArmatureOf(parentScene)
				}
			}
		}
		if nodeType == model.NODE_TYPE_MESH {
			mesh, err := b.readMesh(gltfIndex)
			if err != nil {
				return nil, err
			}
			node.Mesh = mesh
		}

		index, err := scene.AppendNode(node)
		if err != nil {
			return nil, err
		}
		b.sceneIndex[gltfIndex] = index
		if nodeType == model.NODE_TYPE_ARMATURE {
			b.armatureWorlds[index] = b.worlds[gltfIndex]
		}
		if parentScene < 0 {
			roots = append(roots, index)
		}
	}
	return roots, nil
}

// hasArmatureParent はボーンの親がボーンまたはアーマチュアか判定する。
func (b *sceneBuilder) hasArmatureParent(scene *model.Scene, parentScene int) bool {
	if parentScene < 0 {
		return false
	}
	parentNode, err := scene.Get(parentScene)
	if err != nil {
		return false
	}
	return parentNode.IsBone() || parentNode.IsArmature()
}

// syntheticArmature はアーマチュアを持たないジョイント群のためにアーマチュアを補う。
// 同じ親の下のジョイントは1つのアーマチュアを共有する。
func (b *sceneBuilder) syntheticArmature(scene *model.Scene, gltfParent int, parentScene int) (int, bool, error) {
	if index, ok := b.syntheticArmatures[gltfParent]; ok {
		return index, false, nil
	}
	armature := model.NewNode("Armature", model.NODE_TYPE_ARMATURE, parentScene)
	index, err := scene.AppendNode(armature)
	if err != nil {
		return -1, false, err
	}
	world := mmath.NewMat4()
	if gltfParent >= 0 {
		world = b.worlds[gltfParent]
	}
	b.armatureWorlds[index] = world
	b.syntheticArmatures[gltfParent] = index
	logGltfDebug("アーマチュアを補完しました: parent=%d", gltfParent)
	return index, true, nil
}

// fillBone はジョイントのワールド行列からアーマチュア空間のレスト姿勢を設定する。
func (b *sceneBuilder) fillBone(scene *model.Scene, node *model.Node, gltfIndex int, parentScene int) {
	armatureWorld, ok := b.armatureWorlds[scene.ArmatureOf(parentScene)]
	if !ok {
		armatureWorld = mmath.NewMat4()
	}
	rest := armatureWorld.Inverted().Muled(b.worlds[gltfIndex])
	node.Bone.Rest = rest
	node.Bone.Head = rest.Translation()
	node.Bone.Connected = b.extras[gltfIndex].Connected

	if tail := b.extras[gltfIndex].Tail; len(tail) == 3 {
		node.Bone.Tail = mmath.NewVec3(tail[0], tail[1], tail[2])
		return
	}
	direction := rest.AxisY().Normalized()
	length := b.boneLength(gltfIndex, armatureWorld, direction)
	node.Bone.Tail = node.Bone.Head.Added(direction.MuledScalar(length))
}

// boneLength は最初の子ジョイントの頭をボーン軸へ射影して長さを推定する。
func (b *sceneBuilder) boneLength(gltfIndex int, armatureWorld mmath.Mat4, direction mmath.Vec3) float64 {
	head := armatureWorld.Inverted().Muled(b.worlds[gltfIndex]).Translation()
	for _, child := range b.doc.Nodes[gltfIndex].Children {
		if b.nodeTypes[child] != model.NODE_TYPE_BONE {
			continue
		}
		childHead := armatureWorld.Inverted().Muled(b.worlds[child]).Translation()
		if length := childHead.Subed(head).Dot(direction); length > minBoneLength {
			return length
		}
	}
	if parent := b.parents[gltfIndex]; parent >= 0 && b.nodeTypes[parent] == model.NODE_TYPE_BONE {
		parentHead := armatureWorld.Inverted().Muled(b.worlds[parent]).Translation()
		if length := head.Distance(parentHead); length > minBoneLength {
			return length
		}
	}
	return defaultBoneLength
}

// nodeName はノード名を返す。名前が無い場合はインデックスから生成する。
func (b *sceneBuilder) nodeName(gltfIndex int) string {
	name := strings.TrimSpace(b.doc.Nodes[gltfIndex].Name)
	if name == "" {
		return fmt.Sprintf("node_%d", gltfIndex)
	}
	return name
}

// readMesh はメッシュの全プリミティブから位置、インデックス、モーフターゲットを連結して読み取る。
func (b *sceneBuilder) readMesh(gltfIndex int) (*model.MeshData, error) {
	meshRef := b.doc.Nodes[gltfIndex].Mesh
	mesh := &model.MeshData{}
	if meshRef == nil {
		return mesh, nil
	}
	if *meshRef < 0 || *meshRef >= len(b.doc.Meshes) {
		return nil, merrors.NewParseFailed("node.mesh のindexが不正です: %d", nil, *meshRef)
	}
	source := b.doc.Meshes[*meshRef]
	mesh.Targets = newMorphTargets(source)
	if len(mesh.Targets) > 0 {
		mesh.Weights = make([]float64, len(mesh.Targets))
		copy(mesh.Weights, source.Weights)
	}
	for _, primitive := range source.Primitives {
		positionIndex, ok := primitive.Attributes["POSITION"]
		if !ok {
			continue
		}
		positions, err := readAccessorFloatValues(b.doc, positionIndex, b.binChunk)
		if err != nil {
			return nil, err
		}
		base := uint32(len(mesh.Positions))
		for _, row := range positions {
			mesh.Positions = append(mesh.Positions, mmath.NewVec3(row[0], row[1], row[2]))
		}
		if err := b.readMorphOffsets(mesh, primitive, len(positions)); err != nil {
			return nil, err
		}
		if primitive.Indices == nil {
			continue
		}
		indices, err := readAccessorIntValues(b.doc, *primitive.Indices, b.binChunk)
		if err != nil {
			return nil, err
		}
		for _, row := range indices {
			mesh.Indices = append(mesh.Indices, base+uint32(row[0]))
		}
	}
	return mesh, nil
}

// newMorphTargets はプリミティブの最大ターゲット数ぶんのモーフを名前付きで用意する。
func newMorphTargets(source gltfMesh) []model.MorphTarget {
	count := 0
	for _, primitive := range source.Primitives {
		if len(primitive.Targets) > count {
			count = len(primitive.Targets)
		}
	}
	if count == 0 {
		return nil
	}
	names := parseMeshExtras(source.Extras).TargetNames
	targets := make([]model.MorphTarget, count)
	for i := range targets {
		if i < len(names) && names[i] != "" {
			targets[i].Name = names[i]
		} else {
			targets[i].Name = fmt.Sprintf("Morph%d", i)
		}
	}
	return targets
}

// readMorphOffsets はプリミティブ1つ分の頂点移動量を各モーフへ追加する。移動量の無いモーフは0で埋める。
func (b *sceneBuilder) readMorphOffsets(mesh *model.MeshData, primitive gltfPrimitive, vertexCount int) error {
	for targetIndex := range mesh.Targets {
		offsets := make([]mmath.Vec3, vertexCount)
		if targetIndex < len(primitive.Targets) {
			if accessorIndex, ok := primitive.Targets[targetIndex]["POSITION"]; ok {
				rows, err := readAccessorFloatValues(b.doc, accessorIndex, b.binChunk)
				if err != nil {
					return err
				}
				if len(rows) != vertexCount {
					return merrors.NewParseFailed("モーフの頂点数が一致しません: target=%d", nil, targetIndex)
				}
				for i, row := range rows {
					offsets[i] = mmath.NewVec3(row[0], row[1], row[2])
				}
			}
		}
		mesh.Targets[targetIndex].Offsets = append(mesh.Targets[targetIndex].Offsets, offsets...)
	}
	return nil
}

// applyAnimation は最初のアニメーションをノードのアクションとして取り込む。
func (b *sceneBuilder) applyAnimation(scene *model.Scene, fps float64) (keyFrameRange, error) {
	keyRange := keyFrameRange{}
	if len(b.doc.Animations) == 0 {
		return keyRange, nil
	}
	animation := b.doc.Animations[0]
	name := animation.Name
	if name == "" {
		name = "Animation"
	}
	for _, channel := range animation.Channels {
		if channel.Target.Node == nil {
			continue
		}
		gltfIndex := *channel.Target.Node
		if gltfIndex < 0 || gltfIndex >= len(b.sceneIndex) || b.sceneIndex[gltfIndex] < 0 {
			return keyRange, merrors.NewParseFailed("channel.target.node が不正です: %d", nil, gltfIndex)
		}
		if channel.Sampler < 0 || channel.Sampler >= len(animation.Samplers) {
			return keyRange, merrors.NewParseFailed("channel.sampler が不正です: %d", nil, channel.Sampler)
		}
		sampler := animation.Samplers[channel.Sampler]
		times, err := readAccessorFloatValues(b.doc, sampler.Input, b.binChunk)
		if err != nil {
			return keyRange, err
		}
		values, err := readAccessorFloatValues(b.doc, sampler.Output, b.binChunk)
		if err != nil {
			return keyRange, err
		}
		if len(values) < len(times) {
			return keyRange, merrors.NewParseFailed("sampler.output の要素数が不足しています", nil)
		}
		if channel.Target.Path == gltfPathWeights {
			values, err = groupWeightValues(values, len(times))
			if err != nil {
				return keyRange, err
			}
		}

		node, err := scene.Get(b.sceneIndex[gltfIndex])
		if err != nil {
			return keyRange, err
		}
		if node.Action == nil {
			node.Action = model.NewAction(name)
		}
		for i, row := range times {
			frame := row[0] * fps
			keyRange.visit(frame)
			switch channel.Target.Path {
			case gltfPathTranslation:
				node.Action.Translations = append(node.Action.Translations, model.VectorKey{
					Frame: frame, Value: mmath.NewVec3(values[i][0], values[i][1], values[i][2]),
				})
			case gltfPathScale:
				node.Action.Scales = append(node.Action.Scales, model.VectorKey{
					Frame: frame, Value: mmath.NewVec3(values[i][0], values[i][1], values[i][2]),
				})
			case gltfPathRotation:
				node.Action.Rotations = append(node.Action.Rotations, model.QuaternionKey{
					Frame: frame,
					Value: mmath.NewQuaternionByValues(values[i][0], values[i][1], values[i][2], values[i][3]).Normalized(),
				})
			case gltfPathWeights:
				node.Action.Weights = append(node.Action.Weights, model.WeightKey{Frame: frame, Values: values[i]})
			default:
				logGltfDebug("未対応のアニメーションパスを無視します: %s", channel.Target.Path)
			}
		}
	}
	return keyRange, nil
}

// groupWeightValues はスカラー列のウェイトをキーごとの行へまとめる。
func groupWeightValues(values [][]float64, keyCount int) ([][]float64, error) {
	if keyCount == 0 {
		return nil, nil
	}
	flat := make([]float64, 0, len(values))
	for _, row := range values {
		flat = append(flat, row...)
	}
	if len(flat)%keyCount != 0 {
		return nil, merrors.NewParseFailed("ウェイトの要素数がキー数で割り切れません: %d/%d", nil, len(flat), keyCount)
	}
	width := len(flat) / keyCount
	grouped := make([][]float64, keyCount)
	for i := range grouped {
		grouped[i] = flat[i*width : (i+1)*width]
	}
	return grouped, nil
}

// logGltfInfo はglTF入出力のINFOログを出力する。
func logGltfInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logGltfDebug はglTF入出力のデバッグログを出力する。
func logGltfDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}

// logGltfWarn はglTF入出力の警告ログを出力する。
func logGltfWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
}
