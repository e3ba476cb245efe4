package config

import "strings"

// ExtendStrategy controls how a config node from a later source combines
// with the same key from an earlier source, per spec.md §9 ("Config
// extension DAG"). The strategy is resolved per-node from a key suffix
// before recursing, never carried as ambient state.
type ExtendStrategy int

const (
	// StrategyDefault replaces scalars, merges maps key-by-key, and
	// replaces sequences wholesale — the behavior when no suffix is present.
	StrategyDefault ExtendStrategy = iota
	// StrategyAppend appends the override sequence after the base sequence.
	StrategyAppend
	// StrategyPrepend prepends the override sequence before the base sequence.
	StrategyPrepend
	// StrategyReplace always replaces the base value outright.
	StrategyReplace
	// StrategyIfNone keeps the base value if already set, else uses the override.
	StrategyIfNone
	// StrategyRaw bypasses merging and splices the override tree in verbatim,
	// used under suggest_config's raw sub-trees.
	StrategyRaw
)

const (
	suffixAppend  = "__toappend"
	suffixPrepend = "__toprepend"
	suffixReplace = "__toreplace"
	suffixIfNone  = "__ifnone"
)

// splitSuffix strips a recognized extension suffix from a map key,
// returning the bare key and the strategy it requests.
func splitSuffix(key string) (string, ExtendStrategy) {
	switch {
	case strings.HasSuffix(key, suffixAppend):
		return strings.TrimSuffix(key, suffixAppend), StrategyAppend
	case strings.HasSuffix(key, suffixPrepend):
		return strings.TrimSuffix(key, suffixPrepend), StrategyPrepend
	case strings.HasSuffix(key, suffixReplace):
		return strings.TrimSuffix(key, suffixReplace), StrategyReplace
	case strings.HasSuffix(key, suffixIfNone):
		return strings.TrimSuffix(key, suffixIfNone), StrategyIfNone
	default:
		return key, StrategyDefault
	}
}

// Merge combines override onto base according to strategy, recursing into
// maps and resolving per-key suffixes along the way. raw==true (StrategyRaw)
// disables suffix interpretation and recursion: the override subtree
// replaces the base subtree byte-for-byte, used for suggest_config's `raw`
// marked sections where the author wants exact control.
func Merge(base, override Value, strategy ExtendStrategy) Value {
	if strategy == StrategyRaw {
		return override
	}
	if strategy == StrategyReplace {
		return override
	}
	if override.IsZero() {
		return base
	}
	if strategy == StrategyIfNone {
		if !base.IsZero() {
			return base
		}
		return override
	}

	baseMap, baseIsMap := base.Map()
	overrideMap, overrideIsMap := override.Map()
	if baseIsMap && overrideIsMap {
		return mergeMaps(baseMap, overrideMap)
	}

	baseSlice, baseIsSlice := base.Slice()
	overrideSlice, overrideIsSlice := override.Slice()
	if baseIsSlice && overrideIsSlice {
		switch strategy {
		case StrategyAppend:
			return NewValue(toAny(append(append([]Value{}, baseSlice...), overrideSlice...)))
		case StrategyPrepend:
			return NewValue(toAny(append(append([]Value{}, overrideSlice...), baseSlice...)))
		default:
			return override
		}
	}

	// Scalars, or mismatched kinds: override wins, whatever the strategy.
	return override
}

func mergeMaps(base, override map[string]Value) Value {
	result := make(map[string]Value, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for rawKey, overrideVal := range override {
		key, strategy := splitSuffix(rawKey)
		result[key] = Merge(result[key], overrideVal, strategy)
	}
	return NewValue(toAny(result))
}

func toAny(v any) any {
	switch t := v.(type) {
	case []Value:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val.raw
		}
		return out
	case map[string]Value:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val.raw
		}
		return out
	default:
		return v
	}
}
