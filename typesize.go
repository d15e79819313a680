package frid

// SizeKind buckets a Value's Kind into the five coarse categories spec.md
// §3's GetMeta reports against: text and blob values (sized in
// characters/bytes), list and dict containers (sized in element count),
// and everything else (unsized).
type SizeKind int

const (
	SizeText SizeKind = iota
	SizeBlob
	SizeList
	SizeDict
	SizeOther
)

func (k SizeKind) String() string {
	switch k {
	case SizeText:
		return "text"
	case SizeBlob:
		return "blob"
	case SizeList:
		return "list"
	case SizeDict:
		return "dict"
	default:
		return "other"
	}
}

// TypeSize is the (kind, size) pair a store's GetMeta returns per key,
// letting a caller learn how large a value is without fetching it.
// Grounded on original_source/frid/kvs/*.py's use of frid_type_size (the
// helper itself was not part of the retrieved source; its signature is
// reconstructed from every call site, all of which only ever need the
// kind/size pair to report store metadata).
type TypeSize struct {
	Kind SizeKind
	Size int
}

// ValueTypeSize computes the TypeSize of v: len(runes) for Text, len(bytes)
// for Blob, element count for Array and Mapping, and Size -1 for every
// scalar/Named kind (no meaningful "size").
func ValueTypeSize(v Value) TypeSize {
	switch v.Kind() {
	case KindText:
		return TypeSize{Kind: SizeText, Size: len([]rune(v.Text()))}
	case KindBlob:
		return TypeSize{Kind: SizeBlob, Size: len(v.Blob())}
	case KindArray:
		return TypeSize{Kind: SizeList, Size: len(v.Array())}
	case KindMapping:
		return TypeSize{Kind: SizeDict, Size: v.Mapping().Len()}
	default:
		return TypeSize{Kind: SizeOther, Size: -1}
	}
}
