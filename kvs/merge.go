package kvs

import "frid"

// Merge implements the KEEP_BOTH put-flag semantics, mirroring
// original_source/frid/helper.py's frid_merge as called from
// SimpleValueStore._add: two mappings union (new wins on key conflict),
// two arrays concatenate, anything else is replaced outright by new.
func Merge(old, new frid.Value) frid.Value {
	if old.Kind() == frid.KindMapping && new.Kind() == frid.KindMapping {
		out := old.Mapping().Clone()
		for _, k := range new.Mapping().Keys() {
			v, _ := new.Mapping().Get(k)
			out.Set(k, v)
		}
		return frid.Map(out)
	}
	if old.Kind() == frid.KindArray && new.Kind() == frid.KindArray {
		combined := append(append([]frid.Value{}, old.Array()...), new.Array()...)
		return frid.Array(combined)
	}
	return new
}
