// 指示: miu200521358
package gltf

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"

	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/model"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"
)

const gltfVersion = "2.0"

// Save はシーンの選択ノードをglTF/GLBとして保存する。
func (r *GltfRepository) Save(path string, scene *model.Scene, options moutput.SaveOptions) error {
	if scene == nil {
		return merrors.NewSaveFailed("保存対象シーンが未設定です", nil)
	}
	if strings.TrimSpace(path) == "" {
		return merrors.NewMissingInput("保存先パスが未指定です", nil)
	}
	format, err := resolveExportFormat(path, options.Format)
	if err != nil {
		return err
	}
	if options.Fps <= 0 {
		options.Fps = scene.Fps
	}
	if options.Fps <= 0 {
		options.Fps = model.DefaultFps
	}
	logGltfInfo("glTF保存開始: file=%s format=%s", filepath.Base(path), format)

	exporter := newSceneExporter(scene, options)
	doc, err := exporter.build()
	if err != nil {
		return err
	}
	if err := writeDocument(path, doc, exporter.buffer.bytes(), format); err != nil {
		return err
	}
	logGltfInfo("glTF保存完了: file=%s nodes=%d animations=%d", filepath.Base(path), len(doc.Nodes), len(doc.Animations))
	return nil
}

// resolveExportFormat は指定形式と拡張子から出力形式を決める。
func resolveExportFormat(path string, format moutput.ExportFormat) (moutput.ExportFormat, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if format == "" {
		if ext == ".gltf" {
			return moutput.EXPORT_FORMAT_GLTF, nil
		}
		return moutput.EXPORT_FORMAT_GLB, nil
	}
	switch format {
	case moutput.EXPORT_FORMAT_GLB, moutput.EXPORT_FORMAT_GLTF:
		return format, nil
	default:
		return "", merrors.NewFormatNotSupported("出力形式が未対応です: %s", nil, format)
	}
}

// writeDocument は文書とBINバッファを指定形式で書き込む。
func writeDocument(path string, doc *gltfDocument, bin []byte, format moutput.ExportFormat) error {
	encoded, err := encodeDocument(doc, bin, format)
	if err != nil {
		return err
	}
	return writeAssetFile(path, encoded)
}

// encodeDocument は文書とBINバッファを指定形式のバイト列へ変換する。
func encodeDocument(doc *gltfDocument, bin []byte, format moutput.ExportFormat) ([]byte, error) {
	doc.Asset = gltfAsset{Version: gltfVersion, Generator: gltfGenerator}
	doc.Buffers = nil
	if len(bin) > 0 {
		buffer := gltfBuffer{ByteLength: len(bin)}
		if format == moutput.EXPORT_FORMAT_GLTF {
			buffer.URI = encodeDataURI(bin)
		}
		doc.Buffers = []gltfBuffer{buffer}
	}

	if format == moutput.EXPORT_FORMAT_GLTF {
		jsonBytes, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, merrors.NewSaveFailed("glTF JSONの生成に失敗しました", err)
		}
		return jsonBytes, nil
	}

	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, merrors.NewSaveFailed("glTF JSONの生成に失敗しました", err)
	}
	glbBytes, err := encodeGLB(jsonBytes, bin)
	if err != nil {
		return nil, merrors.NewSaveFailed("GLBの生成に失敗しました", err)
	}
	return glbBytes, nil
}

// upAxisConversion はY上向きのシーンを出力座標系へ写す行列を返す。
func upAxisConversion(axis moutput.UpAxis) mmath.Mat4 {
	if axis == moutput.UP_AXIS_Z {
		return mmath.NewRotationMat4(mmath.AXIS_X, 90)
	}
	return mmath.NewMat4()
}

// sceneExporter は選択ノードをglTF文書へ組み立てる。
type sceneExporter struct {
	scene      *model.Scene
	options    moutput.SaveOptions
	buffer     *bufferBuilder
	conversion mmath.Mat4

	order    []int
	outputOf map[int]int
	parentOf map[int]int
	natural  map[int]bool
}

func newSceneExporter(scene *model.Scene, options moutput.SaveOptions) *sceneExporter {
	return &sceneExporter{
		scene:      scene,
		options:    options,
		buffer:     &bufferBuilder{},
		conversion: upAxisConversion(options.UpAxis),
		outputOf:   make(map[int]int),
		parentOf:   make(map[int]int),
		natural:    make(map[int]bool),
	}
}

// build は文書全体を組み立てる。
func (e *sceneExporter) build() (*gltfDocument, error) {
	if err := e.collect(); err != nil {
		return nil, err
	}
	doc := &gltfDocument{Nodes: make([]gltfNode, len(e.order))}
	for outputIndex, index := range e.order {
		node, err := e.scene.Get(index)
		if err != nil {
			return nil, err
		}
		element, err := e.nodeElement(node)
		if err != nil {
			return nil, err
		}
		if node.IsMesh() && node.Mesh != nil && len(node.Mesh.Positions) > 0 {
			meshIndex := len(doc.Meshes)
			doc.Meshes = append(doc.Meshes, e.buildMesh(node))
			element.Mesh = &meshIndex
		}
		doc.Nodes[outputIndex] = element
	}
	roots := make([]int, 0)
	for outputIndex, index := range e.order {
		if parentOutput := e.parentOf[index]; parentOutput >= 0 {
			doc.Nodes[parentOutput].Children = append(doc.Nodes[parentOutput].Children, outputIndex)
		} else {
			roots = append(roots, outputIndex)
		}
	}
	sceneIndex := 0
	doc.Scene = &sceneIndex
	doc.Scenes = []gltfScene{{Name: "Scene", Nodes: roots}}

	if e.options.IncludeSkins {
		doc.Skins = e.buildSkins()
	}
	if e.options.AnimationMode == moutput.ANIMATION_MODE_ACTIVE_ACTIONS {
		animations, err := e.buildAnimations()
		if err != nil {
			return nil, err
		}
		doc.Animations = animations
	}
	if e.options.IncludeExtras {
		frameStart := e.scene.FrameStart
		frameEnd := e.scene.FrameEnd
		doc.Extras = &gltfSceneExtras{
			Fps:        e.options.Fps,
			FrameStart: &frameStart,
			FrameEnd:   &frameEnd,
			UpAxis:     string(e.options.UpAxis),
		}
	}
	doc.Accessors = e.buffer.accessors
	doc.BufferViews = e.buffer.bufferViews
	return doc, nil
}

// collect は出力ノードの順序と出力上の親を決める。
func (e *sceneExporter) collect() error {
	selected := make(map[int]struct{})
	if e.options.Selection == nil {
		for _, index := range e.scene.Indexes() {
			selected[index] = struct{}{}
		}
	} else {
		for _, index := range e.options.Selection {
			if !e.scene.Contains(index) {
				return merrors.NewNodeNotFound("出力対象ノードが見つかりません: index=%d", nil, index)
			}
			selected[index] = struct{}{}
		}
	}
	if len(selected) == 0 {
		return merrors.NewSaveFailed("出力対象ノードがありません", nil)
	}

	if e.options.Selection == nil {
		for _, index := range e.scene.PreOrder() {
			e.emit(index)
		}
	} else {
		for _, index := range e.options.Selection {
			e.emitWithAncestors(index, selected)
		}
	}
	for _, index := range e.order {
		structural := e.structuralParent(index)
		outputParent := structural
		for outputParent >= 0 {
			if _, ok := selected[outputParent]; ok {
				break
			}
			outputParent = e.structuralParent(outputParent)
		}
		e.natural[index] = outputParent == structural
		if outputParent >= 0 {
			e.parentOf[index] = e.outputOf[outputParent]
		} else {
			e.parentOf[index] = -1
		}
	}
	return nil
}

// emit は未出力のノードを出力順へ追加する。
func (e *sceneExporter) emit(index int) {
	if _, ok := e.outputOf[index]; ok {
		return
	}
	e.outputOf[index] = len(e.order)
	e.order = append(e.order, index)
}

// emitWithAncestors は選択済みの祖先を先に出力してからノードを出力する。
func (e *sceneExporter) emitWithAncestors(index int, selected map[int]struct{}) {
	ancestors := make([]int, 0)
	for parent := e.structuralParent(index); parent >= 0; parent = e.structuralParent(parent) {
		if _, ok := selected[parent]; ok {
			ancestors = append(ancestors, parent)
		}
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		e.emit(ancestors[i])
	}
	e.emit(index)
}

// structuralParent は出力階層上の親を返す。ボーン親子付けのオブジェクトはボーンを親とする。
func (e *sceneExporter) structuralParent(index int) int {
	node, err := e.scene.Get(index)
	if err != nil {
		return -1
	}
	if node.ParentBoneName != "" {
		if boneIndex := e.scene.BoneByName(node.ParentIndex, node.ParentBoneName); boneIndex >= 0 {
			return boneIndex
		}
	}
	return node.ParentIndex
}

// staticLocal は出力親基準の静的姿勢を返す。
func (e *sceneExporter) staticLocal(node *model.Node) mmath.Mat4 {
	index := node.Index()
	var local mmath.Mat4
	switch {
	case !e.natural[index]:
		parentWorld := mmath.NewMat4()
		if parentOutput := e.parentOf[index]; parentOutput >= 0 {
			if parent, err := e.scene.Get(e.order[parentOutput]); err == nil {
				parentWorld = parent.World
			}
		}
		local = parentWorld.Inverted().Muled(node.World)
	case node.IsBone():
		local = node.Bone.Rest
		if parentBone := e.scene.ParentBone(index); parentBone >= 0 {
			parent, _ := e.scene.Get(parentBone)
			local = parent.Bone.Rest.Inverted().Muled(node.Bone.Rest)
		}
	default:
		local = node.ParentInverse.Muled(node.Local)
	}
	if e.parentOf[index] < 0 {
		local = e.conversion.Muled(local)
	}
	return local
}

// nodeElement はノード要素を生成する。
func (e *sceneExporter) nodeElement(node *model.Node) (gltfNode, error) {
	name := node.Name()
	if override, ok := e.options.NameOverrides[node.Index()]; ok && override != "" {
		name = override
	}
	element := gltfNode{Name: name}
	local := e.staticLocal(node)
	if !local.IsIdentity() {
		translation, rotation, scale := local.Decompose()
		element.Translation = translation.Slice()
		element.Rotation = rotation.Slice()
		element.Scale = scale.Slice()
	}
	if !e.options.IncludeExtras {
		return element, nil
	}
	extras := gltfNodeExtras{NodeType: node.NodeType.String()}
	if node.IsBone() {
		extras.Tail = node.Bone.Tail.Slice()
		extras.Connected = node.Bone.Connected
	}
	if name != node.Name() {
		extras.OriginalName = node.Name()
	}
	raw, err := json.Marshal(extras)
	if err != nil {
		return element, merrors.NewSaveFailed("node.extras の生成に失敗しました: %s", err, name)
	}
	element.Extras = raw
	return element, nil
}

// buildMesh はメッシュ要素を生成する。
func (e *sceneExporter) buildMesh(node *model.Node) gltfMesh {
	rows := make([][]float64, len(node.Mesh.Positions))
	for i, position := range node.Mesh.Positions {
		rows[i] = position.Slice()
	}
	positionAccessor := e.buffer.addFloatAccessor(rows, "VEC3", gltfTargetArrayBuffer, true)
	primitive := gltfPrimitive{Attributes: map[string]int{"POSITION": positionAccessor}}
	if len(node.Mesh.Indices) > 0 {
		indexAccessor := e.buffer.addIndexAccessor(node.Mesh.Indices)
		primitive.Indices = &indexAccessor
	}
	mesh := gltfMesh{Name: node.Name()}
	if e.exportsMorphs(node) {
		names := make([]string, len(node.Mesh.Targets))
		mesh.Weights = make([]float64, len(node.Mesh.Targets))
		copy(mesh.Weights, node.Mesh.Weights)
		for i, target := range node.Mesh.Targets {
			offsets := make([][]float64, len(node.Mesh.Positions))
			for v := range offsets {
				if v < len(target.Offsets) {
					offsets[v] = target.Offsets[v].Slice()
				} else {
					offsets[v] = []float64{0, 0, 0}
				}
			}
			targetAccessor := e.buffer.addFloatAccessor(offsets, "VEC3", gltfTargetArrayBuffer, true)
			primitive.Targets = append(primitive.Targets, map[string]int{"POSITION": targetAccessor})
			names[i] = target.Name
		}
		if raw, err := json.Marshal(gltfMeshExtras{TargetNames: names}); err == nil {
			mesh.Extras = raw
		}
	}
	mesh.Primitives = []gltfPrimitive{primitive}
	return mesh
}

// exportsMorphs はモーフターゲットを書き出すか判定する。
func (e *sceneExporter) exportsMorphs(node *model.Node) bool {
	return e.options.IncludeMorphTargets && node.Mesh != nil && len(node.Mesh.Targets) > 0
}

// buildSkins は選択アーマチュアごとにスキンを生成する。
func (e *sceneExporter) buildSkins() []gltfSkin {
	skins := make([]gltfSkin, 0)
	for _, index := range e.order {
		armature, err := e.scene.Get(index)
		if err != nil || !armature.IsArmature() {
			continue
		}
		joints := make([]int, 0)
		inverseBinds := make([][]float64, 0)
		for _, boneIndex := range e.scene.Bones(index) {
			outputIndex, ok := e.outputOf[boneIndex]
			if !ok {
				continue
			}
			bone, _ := e.scene.Get(boneIndex)
			joints = append(joints, outputIndex)
			inverseBinds = append(inverseBinds, armature.World.Muled(bone.Bone.Rest).Inverted().Slice())
		}
		if len(joints) == 0 {
			continue
		}
		skeleton := e.outputOf[index]
		accessor := e.buffer.addFloatAccessor(inverseBinds, "MAT4", 0, false)
		skins = append(skins, gltfSkin{
			Name:                armature.Name(),
			InverseBindMatrices: &accessor,
			Skeleton:            &skeleton,
			Joints:              joints,
		})
	}
	return skins
}

// buildAnimations はアクションをアニメーションチャンネルへ変換する。
func (e *sceneExporter) buildAnimations() ([]gltfAnimation, error) {
	animationIndexes := make(map[string]int)
	animations := make([]gltfAnimation, 0)
	for outputIndex, index := range e.order {
		node, err := e.scene.Get(index)
		if err != nil {
			return nil, err
		}
		if !e.hasChannels(node) {
			continue
		}
		if !e.natural[index] {
			logGltfWarn("%s: 出力上の親が変わるためアニメーションを書き出しません: %s", model.RetargetWarningAnimationReparented, node.Name())
			continue
		}

		name := e.options.AnimationName
		if !e.options.MergeAnimations && node.Action.Name != "" {
			name = node.Action.Name
		}
		if name == "" {
			name = "Animation"
		}
		animationIndex, ok := animationIndexes[name]
		if !ok {
			animationIndex = len(animations)
			animationIndexes[name] = animationIndex
			animations = append(animations, gltfAnimation{Name: name})
		}
		e.appendChannels(&animations[animationIndex], outputIndex, node)
	}
	return animations, nil
}

// hasChannels は書き出すカーブがあるか判定する。
func (e *sceneExporter) hasChannels(node *model.Node) bool {
	if node.Action == nil {
		return false
	}
	if node.Action.KeyCount() > len(node.Action.Weights) {
		return true
	}
	return e.exportsMorphs(node) && len(node.Action.Weights) > 0
}

// channelPrefix はキーへ前置する行列を返す。
func (e *sceneExporter) channelPrefix(node *model.Node) mmath.Mat4 {
	prefix := mmath.NewMat4()
	if !node.IsBone() {
		prefix = node.ParentInverse
	}
	if e.parentOf[node.Index()] < 0 {
		prefix = e.conversion.Muled(prefix)
	}
	return prefix
}

// appendChannels はノード1つ分のチャンネルとサンプラーを追加する。
func (e *sceneExporter) appendChannels(animation *gltfAnimation, outputIndex int, node *model.Node) {
	action := node.Action
	if e.exportsMorphs(node) && len(action.Weights) > 0 {
		e.appendWeightChannel(animation, outputIndex, node)
	}
	if action.KeyCount() == len(action.Weights) {
		return
	}
	prefix := e.channelPrefix(node)
	if prefix.IsIdentity() {
		if len(action.Translations) > 0 {
			times, values := vectorKeyRows(action.Translations, e.options.Fps)
			e.appendChannel(animation, outputIndex, gltfPathTranslation, times, values, "VEC3")
		}
		if len(action.Rotations) > 0 {
			times := make([][]float64, len(action.Rotations))
			values := make([][]float64, len(action.Rotations))
			for i, key := range action.Rotations {
				times[i] = []float64{key.Frame / e.options.Fps}
				values[i] = key.Value.Slice()
			}
			e.appendChannel(animation, outputIndex, gltfPathRotation, times, values, "VEC4")
		}
		if len(action.Scales) > 0 {
			times, values := vectorKeyRows(action.Scales, e.options.Fps)
			e.appendChannel(animation, outputIndex, gltfPathScale, times, values, "VEC3")
		}
		return
	}

	// 前置行列があると成分が混ざるため、全カーブのキーフレームで標本化し直す。
	frames := unionKeyFrames(action)
	fallback := node.Local
	times := make([][]float64, len(frames))
	translations := make([][]float64, len(frames))
	rotations := make([][]float64, len(frames))
	scales := make([][]float64, len(frames))
	var previous mmath.Quaternion
	for i, frame := range frames {
		translation, rotation, scale := prefix.Muled(action.Evaluate(frame, fallback)).Decompose()
		if i > 0 && previous.Dot(rotation) < 0 {
			rotation = rotation.Negated()
		}
		previous = rotation
		times[i] = []float64{frame / e.options.Fps}
		translations[i] = translation.Slice()
		rotations[i] = rotation.Slice()
		scales[i] = scale.Slice()
	}
	e.appendChannel(animation, outputIndex, gltfPathTranslation, times, translations, "VEC3")
	e.appendChannel(animation, outputIndex, gltfPathRotation, times, rotations, "VEC4")
	e.appendChannel(animation, outputIndex, gltfPathScale, times, scales, "VEC3")
}

// appendWeightChannel はモーフウェイトのチャンネルを追加する。値はキーごとにターゲット数ぶん並べる。
func (e *sceneExporter) appendWeightChannel(animation *gltfAnimation, outputIndex int, node *model.Node) {
	targetCount := len(node.Mesh.Targets)
	times := make([][]float64, len(node.Action.Weights))
	values := make([][]float64, 0, len(node.Action.Weights)*targetCount)
	for i, key := range node.Action.Weights {
		times[i] = []float64{key.Frame / e.options.Fps}
		for t := 0; t < targetCount; t++ {
			value := 0.0
			if t < len(key.Values) {
				value = key.Values[t]
			}
			values = append(values, []float64{value})
		}
	}
	e.appendChannel(animation, outputIndex, gltfPathWeights, times, values, "SCALAR")
}

// appendChannel はサンプラーとチャンネルを1組追加する。
func (e *sceneExporter) appendChannel(animation *gltfAnimation, outputIndex int, path string, times, values [][]float64, typeName string) {
	input := e.buffer.addFloatAccessor(times, "SCALAR", 0, true)
	output := e.buffer.addFloatAccessor(values, typeName, 0, false)
	samplerIndex := len(animation.Samplers)
	animation.Samplers = append(animation.Samplers, gltfAnimationSampler{
		Input:         input,
		Output:        output,
		Interpolation: gltfInterpolationLinear,
	})
	target := outputIndex
	animation.Channels = append(animation.Channels, gltfAnimationChannel{
		Sampler: samplerIndex,
		Target:  gltfAnimationChannelTarget{Node: &target, Path: path},
	})
}

// vectorKeyRows はベクトルキーを時刻と値の行へ変換する。
func vectorKeyRows(keys []model.VectorKey, fps float64) ([][]float64, [][]float64) {
	times := make([][]float64, len(keys))
	values := make([][]float64, len(keys))
	for i, key := range keys {
		times[i] = []float64{key.Frame / fps}
		values[i] = key.Value.Slice()
	}
	return times, values
}

// unionKeyFrames は全カーブのキーフレームを昇順で重複なく返す。
func unionKeyFrames(action *model.Action) []float64 {
	seen := make(map[float64]struct{})
	frames := make([]float64, 0)
	add := func(frame float64) {
		if _, ok := seen[frame]; ok {
			return
		}
		seen[frame] = struct{}{}
		frames = append(frames, frame)
	}
	for _, key := range action.Translations {
		add(key.Frame)
	}
	for _, key := range action.Rotations {
		add(key.Frame)
	}
	for _, key := range action.Scales {
		add(key.Frame)
	}
	sort.Float64s(frames)
	return frames
}
