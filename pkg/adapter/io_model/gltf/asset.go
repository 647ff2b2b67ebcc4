// 指示: miu200521358
package gltf

import (
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/port/moutput"
)

// AnimationTrack はアニメーションのサンプラー1つ分のキー列を表す。
type AnimationTrack struct {
	AnimationIndex int
	SamplerIndex   int
	NodeName       string
	// Path は translation / rotation / scale / weights のいずれか。weights は1キーにモーフ数ぶんの値を持つ。
	Path          string
	Interpolation string
	Times         []float64
	Values        [][]float64
}

// IsRotation は回転カーブか判定する。
func (t AnimationTrack) IsRotation() bool {
	return t.Path == gltfPathRotation
}

// Asset はシーンへ展開せずに扱うglTF文書を表す。
type Asset struct {
	format moutput.ExportFormat
	doc    *gltfDocument
	bin    []byte
}

// ReadAsset はglTF/GLBを文書のまま読み込む。
func ReadAsset(path string) (*Asset, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".glb" && ext != ".gltf" {
		return nil, merrors.NewFormatNotSupported("glTF/GLB以外の拡張子です: %s", nil, path)
	}
	doc, bin, _, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	format := moutput.EXPORT_FORMAT_GLB
	if ext == ".gltf" {
		format = moutput.EXPORT_FORMAT_GLTF
	}
	return &Asset{format: format, doc: doc, bin: bin}, nil
}

// AnimationTracks は全アニメーションのサンプラーをトラックとして返す。
func (a *Asset) AnimationTracks() ([]AnimationTrack, error) {
	tracks := make([]AnimationTrack, 0)
	for animationIndex, animation := range a.doc.Animations {
		for samplerIndex, sampler := range animation.Samplers {
			times, err := readAccessorFloatValues(a.doc, sampler.Input, a.bin)
			if err != nil {
				return nil, err
			}
			values, err := readAccessorFloatValues(a.doc, sampler.Output, a.bin)
			if err != nil {
				return nil, err
			}
			track := AnimationTrack{
				AnimationIndex: animationIndex,
				SamplerIndex:   samplerIndex,
				Interpolation:  sampler.Interpolation,
				Times:          make([]float64, len(times)),
				Values:         values,
			}
			for i, row := range times {
				track.Times[i] = row[0]
			}
			for _, channel := range animation.Channels {
				if channel.Sampler != samplerIndex {
					continue
				}
				track.Path = channel.Target.Path
				if channel.Target.Node != nil && *channel.Target.Node >= 0 && *channel.Target.Node < len(a.doc.Nodes) {
					track.NodeName = a.doc.Nodes[*channel.Target.Node].Name
				}
				break
			}
			if track.Path == gltfPathWeights {
				track.Values, err = groupWeightValues(values, len(times))
				if err != nil {
					return nil, err
				}
			}
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}

// KeyCount は全サンプラーのキー数合計を返す。
func (a *Asset) KeyCount() int {
	count := 0
	for _, animation := range a.doc.Animations {
		for _, sampler := range animation.Samplers {
			if sampler.Input >= 0 && sampler.Input < len(a.doc.Accessors) {
				count += a.doc.Accessors[sampler.Input].Count
			}
		}
	}
	return count
}

// Write はトラックを差し替えた文書を書き込む。
func (a *Asset) Write(path string, tracks []AnimationTrack) error {
	encoded, err := a.Encode(tracks)
	if err != nil {
		return err
	}
	if err := writeAssetFile(path, encoded); err != nil {
		return err
	}
	logGltfInfo("アセット再書き込み完了: file=%s bytes=%d", filepath.Base(path), len(encoded))
	return nil
}

// Encode はトラックを差し替えた文書をバイト列へ変換する。バッファは参照中のaccessorだけで詰め直す。
func (a *Asset) Encode(tracks []AnimationTrack) ([]byte, error) {
	replaced := make(map[[2]int]AnimationTrack, len(tracks))
	for _, track := range tracks {
		if track.AnimationIndex < 0 || track.AnimationIndex >= len(a.doc.Animations) {
			return nil, merrors.NewSaveFailed("アニメーションindexが不正です: %d", nil, track.AnimationIndex)
		}
		if track.SamplerIndex < 0 || track.SamplerIndex >= len(a.doc.Animations[track.AnimationIndex].Samplers) {
			return nil, merrors.NewSaveFailed("サンプラーindexが不正です: %d", nil, track.SamplerIndex)
		}
		if len(track.Times) != len(track.Values) {
			return nil, merrors.NewSaveFailed("トラックの時刻数と値数が一致しません: %s", nil, track.NodeName)
		}
		replaced[[2]int{track.AnimationIndex, track.SamplerIndex}] = track
	}

	packer := newAccessorPacker(a.doc, a.bin)
	doc := *a.doc
	doc.Meshes = make([]gltfMesh, len(a.doc.Meshes))
	for meshIndex, mesh := range a.doc.Meshes {
		packedMesh := gltfMesh{
			Name:       mesh.Name,
			Primitives: make([]gltfPrimitive, len(mesh.Primitives)),
			Weights:    mesh.Weights,
			Extras:     mesh.Extras,
		}
		for primitiveIndex, primitive := range mesh.Primitives {
			packed, err := packer.packPrimitive(primitive)
			if err != nil {
				return nil, err
			}
			packedMesh.Primitives[primitiveIndex] = packed
		}
		doc.Meshes[meshIndex] = packedMesh
	}
	doc.Skins = make([]gltfSkin, len(a.doc.Skins))
	for skinIndex, skin := range a.doc.Skins {
		packed := skin
		if skin.InverseBindMatrices != nil {
			accessor, err := packer.pack(*skin.InverseBindMatrices)
			if err != nil {
				return nil, err
			}
			packed.InverseBindMatrices = &accessor
		}
		doc.Skins[skinIndex] = packed
	}
	doc.Animations = make([]gltfAnimation, len(a.doc.Animations))
	for animationIndex, animation := range a.doc.Animations {
		packedAnimation := gltfAnimation{
			Name:     animation.Name,
			Channels: append([]gltfAnimationChannel(nil), animation.Channels...),
			Samplers: make([]gltfAnimationSampler, len(animation.Samplers)),
		}
		for samplerIndex, sampler := range animation.Samplers {
			packedSampler := sampler
			if track, ok := replaced[[2]int{animationIndex, samplerIndex}]; ok {
				packedSampler.Input, packedSampler.Output = packer.addTrack(track, a.doc.Accessors[sampler.Output].Type)
			} else {
				input, err := packer.pack(sampler.Input)
				if err != nil {
					return nil, err
				}
				output, err := packer.pack(sampler.Output)
				if err != nil {
					return nil, err
				}
				packedSampler.Input, packedSampler.Output = input, output
			}
			packedAnimation.Samplers[samplerIndex] = packedSampler
		}
		doc.Animations[animationIndex] = packedAnimation
	}
	doc.Accessors = packer.builder.accessors
	doc.BufferViews = packer.builder.bufferViews

	return encodeDocument(&doc, packer.builder.bytes(), a.format)
}

// accessorPacker は参照中のaccessorを新しいバッファへ詰め直す。
type accessorPacker struct {
	doc     *gltfDocument
	bin     []byte
	builder *bufferBuilder
	packed  map[int]int
}

func newAccessorPacker(doc *gltfDocument, bin []byte) *accessorPacker {
	return &accessorPacker{doc: doc, bin: bin, builder: &bufferBuilder{}, packed: make(map[int]int)}
}

// pack はaccessorを1度だけ詰め直し、新しいindexを返す。
func (p *accessorPacker) pack(accessorIndex int) (int, error) {
	if packed, ok := p.packed[accessorIndex]; ok {
		return packed, nil
	}
	raw, err := readAccessorRawBytes(p.doc, accessorIndex, p.bin)
	if err != nil {
		return -1, err
	}
	accessor := p.doc.Accessors[accessorIndex]
	target := 0
	if view := p.doc.BufferViews[*accessor.BufferView]; view.Target != 0 {
		target = view.Target
	}
	packed := p.builder.addRawAccessor(accessor, raw, target)
	p.packed[accessorIndex] = packed
	return packed, nil
}

// packPrimitive はプリミティブが参照するaccessorを詰め直す。
func (p *accessorPacker) packPrimitive(primitive gltfPrimitive) (gltfPrimitive, error) {
	packed := gltfPrimitive{Mode: primitive.Mode, Attributes: make(map[string]int, len(primitive.Attributes))}
	for name, accessorIndex := range primitive.Attributes {
		accessor, err := p.pack(accessorIndex)
		if err != nil {
			return packed, err
		}
		packed.Attributes[name] = accessor
	}
	if primitive.Indices != nil {
		accessor, err := p.pack(*primitive.Indices)
		if err != nil {
			return packed, err
		}
		packed.Indices = &accessor
	}
	for _, target := range primitive.Targets {
		packedTarget := make(map[string]int, len(target))
		for name, accessorIndex := range target {
			accessor, err := p.pack(accessorIndex)
			if err != nil {
				return packed, err
			}
			packedTarget[name] = accessor
		}
		packed.Targets = append(packed.Targets, packedTarget)
	}
	return packed, nil
}

// addTrack は差し替えトラックの時刻と値を追加する。
func (p *accessorPacker) addTrack(track AnimationTrack, outputType string) (int, int) {
	times := make([][]float64, len(track.Times))
	for i, time := range track.Times {
		times[i] = []float64{time}
	}
	input := p.builder.addFloatAccessor(times, "SCALAR", 0, true)
	values := track.Values
	if track.Path == gltfPathWeights {
		values = make([][]float64, 0, len(track.Values))
		for _, row := range track.Values {
			for _, value := range row {
				values = append(values, []float64{value})
			}
		}
	}
	output := p.builder.addFloatAccessor(values, outputType, 0, false)
	return input, output
}
