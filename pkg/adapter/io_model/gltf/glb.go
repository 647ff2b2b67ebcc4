// 指示: miu200521358
package gltf

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
)

const (
	glbHeaderLength   = 12
	glbChunkHeadSize  = 8
	glbMagic          = 0x46546C67
	glbVersion        = 2
	glbJSONChunkType  = 0x4E4F534A
	glbBINChunkType   = 0x004E4942
	glbMinValidLength = glbHeaderLength + glbChunkHeadSize

	exportDirMode  = 0o755
	exportFileMode = 0o644

	dataURIOctetStreamPrefix = "data:application/octet-stream;base64,"
)

// parseGLBChunks はGLBバイト列からJSON/BINチャンクを抽出する。
func parseGLBChunks(sourceBytes []byte) ([]byte, []byte, error) {
	if len(sourceBytes) < glbMinValidLength {
		return nil, nil, merrors.NewParseFailed("GLBヘッダが不足しています", nil)
	}
	if binary.LittleEndian.Uint32(sourceBytes[0:4]) != glbMagic {
		return nil, nil, merrors.NewParseFailed("GLBマジックが不正です", nil)
	}
	if version := binary.LittleEndian.Uint32(sourceBytes[4:8]); version != glbVersion {
		return nil, nil, merrors.NewFormatNotSupported("GLBバージョンが未対応です: %d", nil, version)
	}
	totalLength := int(binary.LittleEndian.Uint32(sourceBytes[8:12]))
	if totalLength <= 0 || totalLength > len(sourceBytes) {
		return nil, nil, merrors.NewParseFailed("GLB全体長が不正です", nil)
	}

	var jsonChunk []byte
	var binChunk []byte
	offset := glbHeaderLength
	for offset+glbChunkHeadSize <= totalLength {
		chunkLength := int(binary.LittleEndian.Uint32(sourceBytes[offset : offset+4]))
		chunkType := binary.LittleEndian.Uint32(sourceBytes[offset+4 : offset+8])
		chunkStart := offset + glbChunkHeadSize
		chunkEnd := chunkStart + chunkLength
		if chunkLength < 0 || chunkEnd > totalLength {
			return nil, nil, merrors.NewParseFailed("GLBチャンク長が不正です", nil)
		}
		chunkBytes := sourceBytes[chunkStart:chunkEnd]
		switch chunkType {
		case glbJSONChunkType:
			jsonChunk = append([]byte(nil), chunkBytes...)
		case glbBINChunkType:
			if len(binChunk) == 0 {
				binChunk = append([]byte(nil), chunkBytes...)
			}
		}
		offset = chunkEnd
	}
	if len(jsonChunk) == 0 {
		return nil, nil, merrors.NewParseFailed("GLB JSONチャンクが見つかりません", nil)
	}
	return jsonChunk, binChunk, nil
}

// encodeGLB はJSON/BINチャンクからGLBバイト列を生成する。
func encodeGLB(jsonBytes []byte, binBytes []byte) ([]byte, error) {
	jsonChunk := padBytes(jsonBytes, ' ')
	binChunk := padBytes(binBytes, 0x00)

	totalLength := glbHeaderLength + glbChunkHeadSize + len(jsonChunk)
	if len(binChunk) > 0 {
		totalLength += glbChunkHeadSize + len(binChunk)
	}

	var buf bytes.Buffer
	buf.Grow(totalLength)
	header := []uint32{glbMagic, glbVersion, uint32(totalLength), uint32(len(jsonChunk)), glbJSONChunkType}
	for _, value := range header {
		if err := binary.Write(&buf, binary.LittleEndian, value); err != nil {
			return nil, fmt.Errorf("GLBヘッダの書き込みに失敗しました: %w", err)
		}
	}
	buf.Write(jsonChunk)
	if len(binChunk) > 0 {
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(binChunk))); err != nil {
			return nil, fmt.Errorf("GLB BINチャンク長の書き込みに失敗しました: %w", err)
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint32(glbBINChunkType)); err != nil {
			return nil, fmt.Errorf("GLB BINチャンク種別の書き込みに失敗しました: %w", err)
		}
		buf.Write(binChunk)
	}
	return buf.Bytes(), nil
}

// padBytes は4バイト境界まで埋める。
func padBytes(data []byte, pad byte) []byte {
	padded := append([]byte(nil), data...)
	if padSize := (4 - len(padded)%4) % 4; padSize > 0 {
		padded = append(padded, bytes.Repeat([]byte{pad}, padSize)...)
	}
	return padded
}

// resolveBufferData はbuffer.uriからバイト列を解決する。
func resolveBufferData(uri string, assetPath string) ([]byte, error) {
	trimmed := strings.TrimSpace(uri)
	if strings.HasPrefix(trimmed, "data:") {
		return decodeDataURI(trimmed)
	}
	sourcePath := trimmed
	if !filepath.IsAbs(sourcePath) {
		sourcePath = filepath.Join(filepath.Dir(assetPath), filepath.FromSlash(sourcePath))
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, merrors.NewParseFailed("バッファファイルの読み取りに失敗しました: %s", err, sourcePath)
	}
	return data, nil
}

// decodeDataURI はbase64形式のdata URIをデコードする。
func decodeDataURI(uri string) ([]byte, error) {
	commaIndex := strings.Index(uri, ",")
	if commaIndex <= 0 {
		return nil, merrors.NewParseFailed("data URI の形式が不正です", nil)
	}
	meta := strings.TrimPrefix(uri[:commaIndex], "data:")
	payload := uri[commaIndex+1:]
	isBase64 := false
	for _, part := range strings.Split(meta, ";") {
		if strings.TrimSpace(part) == "base64" {
			isBase64 = true
		}
	}
	if !isBase64 {
		return []byte(payload), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, merrors.NewParseFailed("data URI のbase64デコードに失敗しました", err)
	}
	return decoded, nil
}

// encodeDataURI はバイト列をbase64形式のdata URIへ変換する。
func encodeDataURI(data []byte) string {
	return dataURIOctetStreamPrefix + base64.StdEncoding.EncodeToString(data)
}

// writeAssetFile は出力先ディレクトリを作成してファイルを書き込む。
func writeAssetFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, exportDirMode); err != nil {
			return merrors.NewSaveFailed("出力先ディレクトリの作成に失敗しました: %s", err, dir)
		}
	}
	if err := os.WriteFile(path, data, exportFileMode); err != nil {
		return merrors.NewSaveFailed("アセットの保存に失敗しました: %s", err, path)
	}
	return nil
}
