package persistence

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("document not found")

// OpKind is the set of update operators the document store supports at
// a nested field path.
type OpKind string

const (
	OpSet      OpKind = "set"
	OpUnset    OpKind = "unset"
	OpAddToSet OpKind = "addToSet"
	OpPull     OpKind = "pull"
	OpInc      OpKind = "inc"
)

// FieldPath is a typed sequence of field names addressing a nested
// field inside a document. Building paths from segments instead of
// string concatenation keeps tree-walking logic out of storage-layer
// formatting.
type FieldPath []string

// Child returns the path extended by the given segments.
func (p FieldPath) Child(segments ...string) FieldPath {
	child := make(FieldPath, 0, len(p)+len(segments))
	child = append(child, p...)
	child = append(child, segments...)
	return child
}

func (p FieldPath) String() string {
	return strings.Join(p, ".")
}

// FieldOp is one update operation applied at a field path. Multiple
// ops passed to a single UpdateByID call are applied as one atomic
// document update.
type FieldOp struct {
	Path  FieldPath
	Kind  OpKind
	Value any
}

func Set(path FieldPath, value any) FieldOp {
	return FieldOp{Path: path, Kind: OpSet, Value: value}
}

func Unset(path FieldPath) FieldOp {
	return FieldOp{Path: path, Kind: OpUnset}
}

func AddToSet(path FieldPath, value any) FieldOp {
	return FieldOp{Path: path, Kind: OpAddToSet, Value: value}
}

func Pull(path FieldPath, value any) FieldOp {
	return FieldOp{Path: path, Kind: OpPull, Value: value}
}

func Inc(path FieldPath, delta int) FieldOp {
	return FieldOp{Path: path, Kind: OpInc, Value: delta}
}

// DocumentStore is the persistence collaborator. Every structural
// mutation in the core is expressed as a single UpdateByID call so the
// backing store's atomic single-document update is the only
// serialization the core relies on.
type DocumentStore interface {
	FindByID(ctx context.Context, collection, id string, out any) error
	Create(ctx context.Context, collection string, doc any) error
	UpdateByID(ctx context.Context, collection, id string, ops ...FieldOp) error
	DeleteByID(ctx context.Context, collection, id string) error
}
