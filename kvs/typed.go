package kvs

import (
	"context"

	"frid"
)

// GetText returns the Text value at key, or alt if key is missing. It
// returns a *frid.TypeMismatchError if the stored value is some other
// kind, mirroring ValueStore.get_text's assert isinstance(data, str) in
// original_source/frid/kvs/store.py.
func GetText(ctx context.Context, s Store, key Key, alt string) (string, error) {
	v, err := s.GetFrid(ctx, key, Sel{})
	if err != nil {
		return alt, err
	}
	if v.IsBeing() {
		return alt, nil
	}
	val := v.Value()
	if val.Kind() != frid.KindText {
		return alt, frid.NewTypeMismatchError("kvs: GetText: value at "+key.String()+" is "+val.Kind().String()+", not Text", nil)
	}
	return val.Text(), nil
}

// GetBlob returns the Blob value at key, or alt if key is missing.
func GetBlob(ctx context.Context, s Store, key Key, alt []byte) ([]byte, error) {
	v, err := s.GetFrid(ctx, key, Sel{})
	if err != nil {
		return alt, err
	}
	if v.IsBeing() {
		return alt, nil
	}
	val := v.Value()
	if val.Kind() != frid.KindBlob {
		return alt, frid.NewTypeMismatchError("kvs: GetBlob: value at "+key.String()+" is "+val.Kind().String()+", not Blob", nil)
	}
	return val.Blob(), nil
}

// GetList returns the Array value at key (optionally narrowed by sel), or
// alt if key (or the selected portion) is missing. sel is applied before
// the kind check, so a range or stride selector yields an Array, while an
// index selector yields a *frid.TypeMismatchError unless the selected
// element is itself an Array.
func GetList(ctx context.Context, s Store, key Key, sel Sel, alt []frid.Value) ([]frid.Value, error) {
	v, err := s.GetFrid(ctx, key, sel)
	if err != nil {
		return alt, err
	}
	if v.IsBeing() {
		return alt, nil
	}
	val := v.Value()
	if val.Kind() != frid.KindArray {
		return alt, frid.NewTypeMismatchError("kvs: GetList: value at "+key.String()+" is "+val.Kind().String()+", not Array", nil)
	}
	return val.Array(), nil
}

// GetDict returns the Mapping value at key (optionally narrowed by sel), or
// alt if key (or the selected field) is missing. sel is applied before the
// kind check, so a key-set selector yields a Mapping, while a single-key
// selector yields a *frid.TypeMismatchError unless the selected field is
// itself a Mapping.
func GetDict(ctx context.Context, s Store, key Key, sel Sel, alt *frid.Mapping) (*frid.Mapping, error) {
	v, err := s.GetFrid(ctx, key, sel)
	if err != nil {
		return alt, err
	}
	if v.IsBeing() {
		return alt, nil
	}
	val := v.Value()
	if val.Kind() != frid.KindMapping {
		return alt, frid.NewTypeMismatchError("kvs: GetDict: value at "+key.String()+" is "+val.Kind().String()+", not Mapping", nil)
	}
	return val.Mapping(), nil
}
