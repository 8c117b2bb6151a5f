package model

import (
	"sort"
	"strings"
)

// SymbolSet 交易对集合（持仓列表、观察列表）
type SymbolSet map[string]struct{}

// NewSymbolSet 由交易对列表创建集合，重复项只保留一个
func NewSymbolSet(symbols ...string) SymbolSet {
	set := make(SymbolSet, len(symbols))
	for _, s := range symbols {
		s = normalize(s)
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return set
}

// Has 判断是否包含交易对，不区分大小写
func (s SymbolSet) Has(symbol string) bool {
	_, ok := s[normalize(symbol)]
	return ok
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Sorted 返回排序后的交易对列表
func (s SymbolSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for symbol := range s {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// Union 合并多个集合并按字母序返回
func Union(sets ...SymbolSet) []string {
	merged := make(SymbolSet)
	for _, set := range sets {
		for symbol := range set {
			merged[symbol] = struct{}{}
		}
	}
	return merged.Sorted()
}
