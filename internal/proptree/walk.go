package proptree

// Walk visits every text leaf in sorted key order, passing the key path
// leading to it. Text stored under TextKey reports the path of its scope.
func Walk(t *Tree, fn func(path []string, text string)) {
	walk(t, nil, fn)
}

func walk(t *Tree, breadcrumb []string, fn func(path []string, text string)) {
	for _, k := range t.Keys() {
		v := t.props[k]

		bc := breadcrumb
		if k != TextKey {
			bc = appendPath(breadcrumb, k)
		}

		for _, item := range v.Items() {
			if s, ok := item.Text(); ok {
				fn(copyPath(bc), s)
				continue
			}
			if c, ok := item.Tree(); ok {
				walk(c, bc, fn)
			}
		}
	}
}

func appendPath(path []string, key string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, key)
}

func copyPath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	out := make([]string, len(path))
	copy(out, path)
	return out
}
