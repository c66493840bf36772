package bytecode

// copyStrings returns a copy of the given string slice.
func copyStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

// copyAny returns a copy of the given any slice.
func copyAny(src []any) []any {
	if src == nil {
		return nil
	}
	dst := make([]any, len(src))
	copy(dst, src)
	return dst
}

// copyBytes returns a copy of the given byte slice. It never returns nil.
func copyBytes(src []byte) []byte {
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

// copyLabels returns a copy of the given label map.
func copyLabels(src map[string]int) map[string]int {
	dst := make(map[string]int, len(src))
	for name, offset := range src {
		dst[name] = offset
	}
	return dst
}
