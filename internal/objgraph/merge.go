package objgraph

// Merge copies the properties of src into dst. Where both sides hold an
// object the merge recurses, so properties only dst has are kept; any other
// value from src replaces the one in dst. Objects already being merged are
// not entered again.
func Merge(dst, src *Object) {
	merge(dst, src, map[*Object]bool{})
}

func merge(dst, src *Object, onPath map[*Object]bool) {
	if dst == nil || src == nil || dst == src || onPath[src] {
		return
	}
	onPath[src] = true
	defer delete(onPath, src)

	src.Range(func(k string, v Value) bool {
		if sv, ok := v.(*Object); ok {
			if dv, ok := dst.GetObject(k); ok {
				merge(dv, sv, onPath)
				return true
			}
		}
		dst.Set(k, v)
		return true
	})
}
