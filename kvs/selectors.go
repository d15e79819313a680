package kvs

import "frid"

// fixRange resolves negative start/end against valLen the way Python's
// slice/tuple selector does in SimpleValueStore._fix_indexes: negative
// values count from the end, clamped to zero.
func fixRange(start, end, valLen int) (int, int) {
	if start < 0 {
		start += valLen
		if start < 0 {
			start = 0
		}
	}
	if end <= 0 {
		end += valLen
		if end < 0 {
			end = 0
		}
	}
	if end > valLen {
		end = valLen
	}
	if start > end {
		start = end
	}
	return start, end
}

// fixStride resolves a stride selector's start/stop against n the way
// Python's slice.indices(n) does for an explicit (start, stop, step)
// triple, extending fixRange's "stop <= 0 means through the end"
// convention to the negative-step direction ("stop == 0 means through and
// including index 0"). step is normalized to 1 if given as 0.
func fixStride(start, stop, step, n int) (int, int, int) {
	if step == 0 {
		step = 1
	}
	if step > 0 {
		if start < 0 {
			start += n
			if start < 0 {
				start = 0
			}
		} else if start > n {
			start = n
		}
		if stop <= 0 {
			stop += n
		}
		if stop < 0 {
			stop = 0
		} else if stop > n {
			stop = n
		}
		return start, stop, step
	}
	if start < 0 {
		start += n
		if start < -1 {
			start = -1
		}
	} else if start >= n {
		start = n - 1
	}
	if stop == 0 {
		stop = -1
	} else if stop < 0 {
		stop += n
		if stop < -1 {
			stop = -1
		}
	} else if stop >= n {
		stop = n - 1
	}
	return start, stop, step
}

// strideIndexes enumerates the array indexes a stride selector picks out
// of a sequence of length n, walking forward or backward depending on the
// sign of step.
func strideIndexes(start, stop, step, n int) []int {
	start, stop, step = fixStride(start, stop, step, n)
	var out []int
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, i)
		}
		return out
	}
	for i := start; i > stop; i += step {
		out = append(out, i)
	}
	return out
}

// ApplySel extracts the portion of val selected by sel, mirroring
// SimpleValueStore._get_sel/_get_seq_sel/_get_sel_map. Returns
// OptMissing() if sel selects nothing (an out-of-range index, or a
// missing mapping key).
func ApplySel(val frid.Value, sel Sel) frid.Opt {
	if sel.Kind == SelNone {
		return frid.OptValue(val)
	}
	switch val.Kind() {
	case frid.KindMapping:
		m := val.Mapping()
		switch sel.Kind {
		case SelKey:
			if v, ok := m.Get(sel.Key); ok {
				return frid.OptValue(v)
			}
			return frid.OptMissing()
		case SelKeySet:
			out := frid.NewMapping()
			for _, k := range sel.Keys {
				if v, ok := m.Get(k); ok {
					out.Set(k, v)
				}
			}
			return frid.OptValue(frid.Map(out))
		default:
			return frid.OptMissing()
		}
	case frid.KindArray:
		arr := val.Array()
		switch sel.Kind {
		case SelIndex:
			i := sel.Index
			if i < 0 {
				i += len(arr)
			}
			if i < 0 || i >= len(arr) {
				return frid.OptMissing()
			}
			return frid.OptValue(arr[i])
		case SelRange:
			start, end := fixRange(sel.Start, sel.End, len(arr))
			return frid.OptValue(frid.Array(arr[start:end]))
		case SelStride:
			idxs := strideIndexes(sel.Start, sel.End, sel.Step, len(arr))
			out := make([]frid.Value, len(idxs))
			for i, idx := range idxs {
				out[i] = arr[idx]
			}
			return frid.OptValue(frid.Array(out))
		default:
			return frid.OptMissing()
		}
	case frid.KindText:
		s := []rune(val.Text())
		switch sel.Kind {
		case SelIndex:
			i := sel.Index
			if i < 0 {
				i += len(s)
			}
			if i < 0 || i >= len(s) {
				return frid.OptMissing()
			}
			return frid.OptValue(frid.Text(string(s[i])))
		case SelRange:
			start, end := fixRange(sel.Start, sel.End, len(s))
			return frid.OptValue(frid.Text(string(s[start:end])))
		case SelStride:
			idxs := strideIndexes(sel.Start, sel.End, sel.Step, len(s))
			out := make([]rune, len(idxs))
			for i, idx := range idxs {
				out[i] = s[idx]
			}
			return frid.OptValue(frid.Text(string(out)))
		default:
			return frid.OptMissing()
		}
	default:
		return frid.OptMissing()
	}
}

// ApplyDelSel removes the selected portion from a copy of val, mirroring
// SimpleValueStore._del_sel/_del_list_sel/_del_dict_sel; val itself is left
// unchanged. Returns the updated copy and the number of entries actually
// removed.
func ApplyDelSel(val frid.Value, sel Sel) (frid.Value, int) {
	switch val.Kind() {
	case frid.KindMapping:
		out := val.Mapping().Clone()
		removed := 0
		switch sel.Kind {
		case SelKey:
			if out.Delete(sel.Key) {
				removed = 1
			}
		case SelKeySet:
			for _, k := range sel.Keys {
				if out.Delete(k) {
					removed++
				}
			}
		}
		return frid.Map(out), removed
	case frid.KindArray:
		arr := append([]frid.Value{}, val.Array()...)
		switch sel.Kind {
		case SelIndex:
			i := sel.Index
			if i < 0 {
				i += len(arr)
			}
			if i < 0 || i >= len(arr) {
				return val, 0
			}
			arr = append(arr[:i], arr[i+1:]...)
			return frid.Array(arr), 1
		case SelRange:
			start, end := fixRange(sel.Start, sel.End, len(arr))
			removed := end - start
			arr = append(arr[:start], arr[end:]...)
			return frid.Array(arr), removed
		case SelStride:
			idxs := strideIndexes(sel.Start, sel.End, sel.Step, len(arr))
			drop := make(map[int]bool, len(idxs))
			for _, idx := range idxs {
				drop[idx] = true
			}
			out := arr[:0]
			for i, v := range arr {
				if !drop[i] {
					out = append(out, v)
				}
			}
			return frid.Array(out), len(idxs)
		}
		return val, 0
	default:
		return val, 0
	}
}
