package domain

import (
	"context"
	"fmt"
	"strings"
)

// FolderNode is one folder inside a collection. Subfolders are owned
// exclusively by their parent, so detaching a node detaches its whole
// subtree.
type FolderNode struct {
	Name     string                `bson:"name" json:"name"`
	Contents []string              `bson:"contents" json:"contents"`
	Folders  map[string]FolderNode `bson:"folders" json:"folders"`
}

// CollectionKind selects which family of collection documents a folder
// tree lives in. Blueprint and scene trees are per-session, journal
// trees are per-user.
type CollectionKind string

const (
	CollectionBlueprints CollectionKind = "blueprints"
	CollectionScenes     CollectionKind = "scenes"
	CollectionJournal    CollectionKind = "journal"
)

// CollectionRef addresses one collection document.
type CollectionRef struct {
	Kind    CollectionKind
	OwnerID string
}

func (r CollectionRef) DocumentID() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.OwnerID)
}

// CollectionDocument is the persisted root of a folder tree. The root
// has contents and subfolders but no name or id of its own.
type CollectionDocument struct {
	ID       string                `bson:"_id" json:"_id"`
	Contents []string              `bson:"contents" json:"contents"`
	Folders  map[string]FolderNode `bson:"folders" json:"folders"`
}

// FolderPath is an ordered sequence of folder ids from a collection's
// root to a target folder. An empty path addresses the root itself.
type FolderPath []string

// ParseFolderPath splits a slash-delimited path into folder ids. An
// empty or all-slash string parses to the root path.
func ParseFolderPath(raw string) (FolderPath, error) {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return nil, nil
	}

	segments := strings.Split(trimmed, "/")
	for _, segment := range segments {
		if segment == "" {
			return nil, ErrInvalidPath
		}
	}

	return FolderPath(segments), nil
}

func (p FolderPath) IsRoot() bool {
	return len(p) == 0
}

func (p FolderPath) String() string {
	return strings.Join(p, "/")
}

// Parent returns the path of the enclosing folder.
func (p FolderPath) Parent() FolderPath {
	if p.IsRoot() {
		return nil
	}
	return p[:len(p)-1]
}

// Leaf returns the id of the folder the path addresses, or "" for the root.
func (p FolderPath) Leaf() string {
	if p.IsRoot() {
		return ""
	}
	return p[len(p)-1]
}

// Child returns the path extended by one folder id.
func (p FolderPath) Child(id string) FolderPath {
	child := make(FolderPath, 0, len(p)+1)
	child = append(child, p...)
	child = append(child, id)
	return child
}

// HasPrefix reports whether prefix addresses p itself or one of its
// ancestors.
func (p FolderPath) HasPrefix(prefix FolderPath) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, id := range prefix {
		if p[i] != id {
			return false
		}
	}
	return true
}

// FolderHandle is a resolved view of one folder, carrying the
// structural address the mutating operations need.
type FolderHandle struct {
	Path     FolderPath
	Name     string
	Contents []string
	Folders  map[string]FolderNode
}

// ItemDeleter removes one item through its owning entity's delete path,
// so refcounts and other entity side effects fire during a cascade.
// It must be idempotent for already-deleted ids.
type ItemDeleter func(ctx context.Context, itemID string) error

// FolderManager mutates the folder trees of collection documents.
//
// Resolve returns a nil handle for the root path, so callers can tell
// "the root" apart from "a specific folder" without a sentinel id.
type FolderManager interface {
	Resolve(ctx context.Context, ref CollectionRef, path FolderPath) (*FolderHandle, error)
	CreateFolder(ctx context.Context, ref CollectionRef, path FolderPath, name string) (string, error)
	RemoveFolder(ctx context.Context, ref CollectionRef, path FolderPath, deleteItem ItemDeleter) error
	RenameFolder(ctx context.Context, ref CollectionRef, path FolderPath, name string) error
	AddItem(ctx context.Context, ref CollectionRef, itemID string, path FolderPath) error
	RemoveItem(ctx context.Context, ref CollectionRef, itemID string, path FolderPath) error
	MoveItem(ctx context.Context, ref CollectionRef, itemID string, oldPath, newPath FolderPath) error
	MoveFolder(ctx context.Context, ref CollectionRef, oldPath, newPath FolderPath) error
}
