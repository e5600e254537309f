package launch

// MergeConfigs deep-merges launch configs. Later layers win; nested maps
// are merged key by key and every other value is replaced. Inputs are not
// modified.
func MergeConfigs(layers ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, layer := range layers {
		mergeInto(out, layer)
	}
	return out
}

func mergeInto(dst, src map[string]interface{}) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]interface{})
		if !srcIsMap {
			dst[k] = v
			continue
		}
		dstMap, dstIsMap := dst[k].(map[string]interface{})
		if !dstIsMap {
			dstMap = make(map[string]interface{})
		}
		mergeInto(dstMap, srcMap)
		dst[k] = dstMap
	}
}

// section returns m[key] as a map, or an empty map.
func section(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return map[string]interface{}{}
}

func stringValue(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
