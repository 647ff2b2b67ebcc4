// 指示: miu200521358
package minteractor

import "strings"

// disambiguationSeparator は重複回避の連番を区切る文字。
const disambiguationSeparator = "."

// MatchNodeName はドライバー側の名前とドリブン側の名前が対応するか判定する。
// 完全一致、またはドリブン側の末尾の連番を除いた名前が一致すれば対応とみなす。
func MatchNodeName(driverName, drivenName string) bool {
	if driverName == drivenName {
		return true
	}
	return StripDisambiguationSuffix(drivenName) == driverName
}

// StripDisambiguationSuffix は最後の "." 以降を取り除いた名前を返す。"." が無い場合はそのまま返す。
func StripDisambiguationSuffix(name string) string {
	if pos := strings.LastIndex(name, disambiguationSeparator); pos >= 0 {
		return name[:pos]
	}
	return name
}
