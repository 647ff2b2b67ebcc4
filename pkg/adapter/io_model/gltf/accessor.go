// 指示: miu200521358
package gltf

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

// accessorReadPlan はaccessor読み取り位置を表す。
type accessorReadPlan struct {
	Accessor      gltfAccessor
	ComponentSize int
	ComponentNum  int
	Stride        int
	BaseOffset    int
}

// readAccessorFloatValues はaccessorをfloat値配列として読み取る。
func readAccessorFloatValues(doc *gltfDocument, accessorIndex int, binChunk []byte) ([][]float64, error) {
	plan, err := prepareAccessorRead(doc, accessorIndex, binChunk)
	if err != nil {
		return nil, err
	}
	values := make([][]float64, plan.Accessor.Count)
	for i := 0; i < plan.Accessor.Count; i++ {
		row := make([]float64, plan.ComponentNum)
		elementBase := plan.BaseOffset + i*plan.Stride
		for c := 0; c < plan.ComponentNum; c++ {
			value, readErr := readComponentAsFloat(plan.Accessor, binChunk, elementBase+c*plan.ComponentSize)
			if readErr != nil {
				return nil, readErr
			}
			row[c] = value
		}
		values[i] = row
	}
	return values, nil
}

// readAccessorIntValues はaccessorをint値配列として読み取る。
func readAccessorIntValues(doc *gltfDocument, accessorIndex int, binChunk []byte) ([][]int, error) {
	plan, err := prepareAccessorRead(doc, accessorIndex, binChunk)
	if err != nil {
		return nil, err
	}
	values := make([][]int, plan.Accessor.Count)
	for i := 0; i < plan.Accessor.Count; i++ {
		row := make([]int, plan.ComponentNum)
		elementBase := plan.BaseOffset + i*plan.Stride
		for c := 0; c < plan.ComponentNum; c++ {
			value, readErr := readComponentAsInt(plan.Accessor.ComponentType, binChunk, elementBase+c*plan.ComponentSize)
			if readErr != nil {
				return nil, readErr
			}
			row[c] = value
		}
		values[i] = row
	}
	return values, nil
}

// readAccessorRawBytes はaccessorの要素を詰めたバイト列として読み取る。
func readAccessorRawBytes(doc *gltfDocument, accessorIndex int, binChunk []byte) ([]byte, error) {
	plan, err := prepareAccessorRead(doc, accessorIndex, binChunk)
	if err != nil {
		return nil, err
	}
	elementSize := plan.ComponentNum * plan.ComponentSize
	raw := make([]byte, 0, elementSize*plan.Accessor.Count)
	for i := 0; i < plan.Accessor.Count; i++ {
		elementBase := plan.BaseOffset + i*plan.Stride
		raw = append(raw, binChunk[elementBase:elementBase+elementSize]...)
	}
	return raw, nil
}

// prepareAccessorRead はaccessor読み取りに必要な情報を検証して返す。
func prepareAccessorRead(doc *gltfDocument, accessorIndex int, binChunk []byte) (accessorReadPlan, error) {
	if doc == nil {
		return accessorReadPlan{}, merrors.NewParseFailed("gltf document が未設定です", nil)
	}
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return accessorReadPlan{}, merrors.NewParseFailed("accessor index が不正です: %d", nil, accessorIndex)
	}
	accessor := doc.Accessors[accessorIndex]
	if accessor.BufferView == nil {
		return accessorReadPlan{}, merrors.NewFormatNotSupported("sparse accessor は未対応です", nil)
	}
	if accessor.Count < 0 {
		return accessorReadPlan{}, merrors.NewParseFailed("accessor.count が不正です: %d", nil, accessor.Count)
	}

	viewIndex := *accessor.BufferView
	if viewIndex < 0 || viewIndex >= len(doc.BufferViews) {
		return accessorReadPlan{}, merrors.NewParseFailed("bufferView index が不正です: %d", nil, viewIndex)
	}
	view := doc.BufferViews[viewIndex]
	if view.Buffer != 0 {
		return accessorReadPlan{}, merrors.NewFormatNotSupported("bufferView.buffer が未対応です: %d", nil, view.Buffer)
	}
	if view.ByteLength < 0 || view.ByteOffset < 0 {
		return accessorReadPlan{}, merrors.NewParseFailed("bufferView の byteOffset/byteLength が不正です", nil)
	}
	if view.ByteOffset+view.ByteLength > len(binChunk) {
		return accessorReadPlan{}, merrors.NewParseFailed("bufferView 範囲がBINチャンク外です", nil)
	}

	componentNum, err := accessorComponentNum(accessor.Type)
	if err != nil {
		return accessorReadPlan{}, err
	}
	componentSize, err := accessorComponentSize(accessor.ComponentType)
	if err != nil {
		return accessorReadPlan{}, err
	}
	elementSize := componentNum * componentSize
	stride := view.ByteStride
	if stride <= 0 {
		stride = elementSize
	}
	if stride < elementSize {
		return accessorReadPlan{}, merrors.NewParseFailed("bufferView.byteStride が要素サイズより小さいです", nil)
	}
	baseOffset := view.ByteOffset + accessor.ByteOffset
	if baseOffset < view.ByteOffset || baseOffset > view.ByteOffset+view.ByteLength {
		return accessorReadPlan{}, merrors.NewParseFailed("accessor.byteOffset が不正です", nil)
	}
	if accessor.Count > 0 {
		lastEnd := baseOffset + (accessor.Count-1)*stride + elementSize
		if lastEnd > view.ByteOffset+view.ByteLength {
			return accessorReadPlan{}, merrors.NewParseFailed("accessor 範囲がbufferViewを超えています", nil)
		}
	}

	return accessorReadPlan{
		Accessor:      accessor,
		ComponentSize: componentSize,
		ComponentNum:  componentNum,
		Stride:        stride,
		BaseOffset:    baseOffset,
	}, nil
}

// accessorComponentNum はaccessor.typeから要素次元数を返す。
func accessorComponentNum(typeName string) (int, error) {
	switch typeName {
	case "SCALAR":
		return 1, nil
	case "VEC2":
		return 2, nil
	case "VEC3":
		return 3, nil
	case "VEC4":
		return 4, nil
	case "MAT4":
		return 16, nil
	default:
		return 0, merrors.NewFormatNotSupported("accessor.type が未対応です: %s", nil, typeName)
	}
}

// accessorComponentSize はcomponentTypeのバイト幅を返す。
func accessorComponentSize(componentType int) (int, error) {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1, nil
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2, nil
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4, nil
	default:
		return 0, merrors.NewFormatNotSupported("accessor.componentType が未対応です: %d", nil, componentType)
	}
}

// readComponentAsFloat はcomponentTypeをfloat64へ変換する。
func readComponentAsFloat(accessor gltfAccessor, data []byte, offset int) (float64, error) {
	switch accessor.ComponentType {
	case gltfComponentTypeByte:
		value := float64(int8(data[offset]))
		if accessor.Normalized {
			return math.Max(value/127.0, -1.0), nil
		}
		return value, nil
	case gltfComponentTypeUnsignedByte:
		value := float64(data[offset])
		if accessor.Normalized {
			return value / 255.0, nil
		}
		return value, nil
	case gltfComponentTypeShort:
		value := float64(int16(binary.LittleEndian.Uint16(data[offset : offset+2])))
		if accessor.Normalized {
			return math.Max(value/32767.0, -1.0), nil
		}
		return value, nil
	case gltfComponentTypeUnsignedShort:
		value := float64(binary.LittleEndian.Uint16(data[offset : offset+2]))
		if accessor.Normalized {
			return value / 65535.0, nil
		}
		return value, nil
	case gltfComponentTypeUnsignedInt:
		return float64(binary.LittleEndian.Uint32(data[offset : offset+4])), nil
	case gltfComponentTypeFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[offset : offset+4]))), nil
	default:
		return 0, merrors.NewFormatNotSupported("float componentType が未対応です: %d", nil, accessor.ComponentType)
	}
}

// readComponentAsInt はcomponentTypeをintへ変換する。
func readComponentAsInt(componentType int, data []byte, offset int) (int, error) {
	switch componentType {
	case gltfComponentTypeByte:
		return int(int8(data[offset])), nil
	case gltfComponentTypeUnsignedByte:
		return int(data[offset]), nil
	case gltfComponentTypeShort:
		return int(int16(binary.LittleEndian.Uint16(data[offset : offset+2]))), nil
	case gltfComponentTypeUnsignedShort:
		return int(binary.LittleEndian.Uint16(data[offset : offset+2])), nil
	case gltfComponentTypeUnsignedInt:
		return int(binary.LittleEndian.Uint32(data[offset : offset+4])), nil
	default:
		return 0, merrors.NewFormatNotSupported("int componentType が未対応です: %d", nil, componentType)
	}
}

// bufferBuilder は出力用のBINバッファとbufferView/accessorを組み立てる。
type bufferBuilder struct {
	buf         bytes.Buffer
	bufferViews []gltfBufferView
	accessors   []gltfAccessor
}

// addView はバイト列を4バイト境界へ配置してbufferViewを追加する。
func (b *bufferBuilder) addView(data []byte, target int) int {
	if padSize := (4 - b.buf.Len()%4) % 4; padSize > 0 {
		b.buf.Write(make([]byte, padSize))
	}
	view := gltfBufferView{
		Buffer:     0,
		ByteOffset: b.buf.Len(),
		ByteLength: len(data),
		Target:     target,
	}
	b.buf.Write(data)
	b.bufferViews = append(b.bufferViews, view)
	return len(b.bufferViews) - 1
}

// addRawAccessor は詰めたバイト列と元accessor定義からaccessorを追加する。
func (b *bufferBuilder) addRawAccessor(accessor gltfAccessor, raw []byte, target int) int {
	viewIndex := b.addView(raw, target)
	accessor.BufferView = &viewIndex
	accessor.ByteOffset = 0
	b.accessors = append(b.accessors, accessor)
	return len(b.accessors) - 1
}

// addFloatAccessor はfloat32要素のaccessorを追加する。withBounds の場合はmin/maxを付与する。
func (b *bufferBuilder) addFloatAccessor(rows [][]float64, typeName string, target int, withBounds bool) int {
	componentNum, _ := accessorComponentNum(typeName)
	raw := make([]byte, 0, len(rows)*componentNum*4)
	var minValues, maxValues []float64
	if withBounds && len(rows) > 0 {
		minValues = make([]float64, componentNum)
		maxValues = make([]float64, componentNum)
		for c := 0; c < componentNum; c++ {
			minValues[c] = math.Inf(1)
			maxValues[c] = math.Inf(-1)
		}
	}
	for _, row := range rows {
		for c := 0; c < componentNum; c++ {
			value := 0.0
			if c < len(row) {
				value = row[c]
			}
			stored := float32(value)
			raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(stored))
			if minValues != nil {
				minValues[c] = math.Min(minValues[c], float64(stored))
				maxValues[c] = math.Max(maxValues[c], float64(stored))
			}
		}
	}
	return b.addRawAccessor(gltfAccessor{
		ComponentType: gltfComponentTypeFloat,
		Count:         len(rows),
		Type:          typeName,
		Min:           minValues,
		Max:           maxValues,
	}, raw, target)
}

// addIndexAccessor はuint32のインデックスaccessorを追加する。
func (b *bufferBuilder) addIndexAccessor(indices []uint32) int {
	raw := make([]byte, 0, len(indices)*4)
	for _, index := range indices {
		raw = binary.LittleEndian.AppendUint32(raw, index)
	}
	return b.addRawAccessor(gltfAccessor{
		ComponentType: gltfComponentTypeUnsignedInt,
		Count:         len(indices),
		Type:          "SCALAR",
	}, raw, gltfTargetElementArrayBuffer)
}

// bytes は組み立て済みバッファを返す。
func (b *bufferBuilder) bytes() []byte {
	return b.buf.Bytes()
}
