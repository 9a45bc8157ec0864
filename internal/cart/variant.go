package cart

import (
	"encoding/json"
	"sort"
)

// VariantSelection は軸名（"Size" など）→ 選択肢（"L" など）。
// 比較はキー順に依存しない。nil と空は同じ扱い。
type VariantSelection map[string]string

// Key は正規化した文字列を返す。キーをソートして [axis, option] の配列にする。
func (v VariantSelection) Key() string {
	if len(v) == 0 {
		return "[]"
	}

	axes := make([]string, 0, len(v))
	for axis := range v {
		axes = append(axes, axis)
	}
	sort.Strings(axes)

	pairs := make([][2]string, 0, len(axes))
	for _, axis := range axes {
		pairs = append(pairs, [2]string{axis, v[axis]})
	}

	// [][2]string のmarshalは失敗しない
	b, _ := json.Marshal(pairs)
	return string(b)
}

// Equal は正規化した形で比較する。
func (v VariantSelection) Equal(other VariantSelection) bool {
	return v.Key() == other.Key()
}

// Clone は呼び出し側のmapを共有しないためのコピー。
func (v VariantSelection) Clone() VariantSelection {
	out := make(VariantSelection, len(v))
	for axis, option := range v {
		out[axis] = option
	}
	return out
}
