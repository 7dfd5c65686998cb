package managers

import (
	"context"
	"errors"
	"fmt"

	"github.com/questdeck/questdeck/internal/domain"
	"github.com/questdeck/questdeck/internal/persistence"

	"github.com/rs/xid"
)

const collectionCollection = "collections"

type folderManager struct {
	documents persistence.DocumentStore
	newID     func() string
}

type FolderManagerDependencies struct {
	DocumentStore persistence.DocumentStore
}

func NewFolderManager(deps FolderManagerDependencies) domain.FolderManager {
	return &folderManager{
		documents: deps.DocumentStore,
		newID: func() string {
			return xid.New().String()
		},
	}
}

// folderField translates a resolved folder path into the document field
// path of that folder node.
func folderField(path domain.FolderPath) persistence.FieldPath {
	fp := persistence.FieldPath{}
	for _, id := range path {
		fp = fp.Child("folders", id)
	}
	return fp
}

// contentsField addresses the contents set at path, which may be the
// collection root.
func contentsField(path domain.FolderPath) persistence.FieldPath {
	return folderField(path).Child("contents")
}

func (m *folderManager) Resolve(ctx context.Context, ref domain.CollectionRef, path domain.FolderPath) (*domain.FolderHandle, error) {
	if path.IsRoot() {
		return nil, nil
	}

	doc, err := m.loadCollection(ctx, ref)
	if err != nil {
		return nil, err
	}

	node, err := resolveNode(doc, path)
	if err != nil {
		return nil, err
	}

	return &domain.FolderHandle{
		Path:     path,
		Name:     node.Name,
		Contents: node.Contents,
		Folders:  node.Folders,
	}, nil
}

func (m *folderManager) CreateFolder(ctx context.Context, ref domain.CollectionRef, path domain.FolderPath, name string) (string, error) {
	doc, err := m.loadOrCreateCollection(ctx, ref)
	if err != nil {
		return "", err
	}

	if !path.IsRoot() {
		if _, err := resolveNode(doc, path); err != nil {
			return "", err
		}
	}

	id := m.newID()
	node := domain.FolderNode{
		Name:     name,
		Contents: []string{},
		Folders:  map[string]domain.FolderNode{},
	}

	err = m.documents.UpdateByID(ctx, collectionCollection, ref.DocumentID(),
		persistence.Set(folderField(path.Child(id)), node))
	if err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	return id, nil
}

func (m *folderManager) RemoveFolder(ctx context.Context, ref domain.CollectionRef, path domain.FolderPath, deleteItem domain.ItemDeleter) error {
	if path.IsRoot() {
		return domain.ErrInvalidPath
	}

	doc, err := m.loadCollection(ctx, ref)
	if err != nil {
		return err
	}

	node, err := resolveNode(doc, path)
	if err != nil {
		return err
	}

	// Cascade through the owning entities before detaching, so blob
	// refcounts and other per-item side effects fire. A failure part-way
	// leaves the remaining items and the folder intact; retrying the
	// same call is safe because per-item deletion is idempotent.
	if err := cascadeDelete(ctx, node, deleteItem); err != nil {
		return err
	}

	err = m.documents.UpdateByID(ctx, collectionCollection, ref.DocumentID(),
		persistence.Unset(folderField(path)))
	if err != nil {
		return fmt.Errorf("failed to detach folder: %w", err)
	}

	return nil
}

// cascadeDelete removes every item in the subtree rooted at node,
// deepest folders first.
func cascadeDelete(ctx context.Context, node *domain.FolderNode, deleteItem domain.ItemDeleter) error {
	for id := range node.Folders {
		child := node.Folders[id]
		if err := cascadeDelete(ctx, &child, deleteItem); err != nil {
			return err
		}
	}

	for _, itemID := range node.Contents {
		if err := deleteItem(ctx, itemID); err != nil {
			return fmt.Errorf("failed to delete folder item %s: %w", itemID, err)
		}
	}

	return nil
}

func (m *folderManager) RenameFolder(ctx context.Context, ref domain.CollectionRef, path domain.FolderPath, name string) error {
	if path.IsRoot() {
		return domain.ErrInvalidPath
	}

	doc, err := m.loadCollection(ctx, ref)
	if err != nil {
		return err
	}

	if _, err := resolveNode(doc, path); err != nil {
		return err
	}

	err = m.documents.UpdateByID(ctx, collectionCollection, ref.DocumentID(),
		persistence.Set(folderField(path).Child("name"), name))
	if err != nil {
		return fmt.Errorf("failed to rename folder: %w", err)
	}

	return nil
}

func (m *folderManager) AddItem(ctx context.Context, ref domain.CollectionRef, itemID string, path domain.FolderPath) error {
	doc, err := m.loadOrCreateCollection(ctx, ref)
	if err != nil {
		return err
	}

	if !path.IsRoot() {
		if _, err := resolveNode(doc, path); err != nil {
			return err
		}
	}

	err = m.documents.UpdateByID(ctx, collectionCollection, ref.DocumentID(),
		persistence.AddToSet(contentsField(path), itemID))
	if err != nil {
		return fmt.Errorf("failed to add item to folder: %w", err)
	}

	return nil
}

func (m *folderManager) RemoveItem(ctx context.Context, ref domain.CollectionRef, itemID string, path domain.FolderPath) error {
	doc, err := m.loadCollection(ctx, ref)
	if err != nil {
		return err
	}

	if !path.IsRoot() {
		if _, err := resolveNode(doc, path); err != nil {
			return err
		}
	}

	err = m.documents.UpdateByID(ctx, collectionCollection, ref.DocumentID(),
		persistence.Pull(contentsField(path), itemID))
	if err != nil {
		return fmt.Errorf("failed to remove item from folder: %w", err)
	}

	return nil
}

func (m *folderManager) MoveItem(ctx context.Context, ref domain.CollectionRef, itemID string, oldPath, newPath domain.FolderPath) error {
	if oldPath.String() == newPath.String() {
		return nil
	}

	doc, err := m.loadCollection(ctx, ref)
	if err != nil {
		return err
	}

	for _, path := range []domain.FolderPath{oldPath, newPath} {
		if path.IsRoot() {
			continue
		}
		if _, err := resolveNode(doc, path); err != nil {
			return err
		}
	}

	// Pull and addToSet in one atomic update: concurrent moves of
	// different items into the same folder both land.
	err = m.documents.UpdateByID(ctx, collectionCollection, ref.DocumentID(),
		persistence.Pull(contentsField(oldPath), itemID),
		persistence.AddToSet(contentsField(newPath), itemID))
	if err != nil {
		return fmt.Errorf("failed to move item: %w", err)
	}

	return nil
}

func (m *folderManager) MoveFolder(ctx context.Context, ref domain.CollectionRef, oldPath, newPath domain.FolderPath) error {
	if oldPath.IsRoot() {
		return domain.ErrInvalidPath
	}

	// Moving a folder into itself or its own descendant would orphan
	// the subtree.
	if newPath.HasPrefix(oldPath) {
		return domain.ErrInvalidParent
	}

	doc, err := m.loadCollection(ctx, ref)
	if err != nil {
		return err
	}

	node, err := resolveNode(doc, oldPath)
	if err != nil {
		return err
	}
	moved := *node

	if !newPath.IsRoot() {
		if _, err := resolveNode(doc, newPath); err != nil {
			return err
		}
	}

	err = m.documents.UpdateByID(ctx, collectionCollection, ref.DocumentID(),
		persistence.Unset(folderField(oldPath)))
	if err != nil {
		return fmt.Errorf("failed to detach folder: %w", err)
	}

	// Detach and attach are separate document updates, so re-resolve
	// the destination against the current tree before attaching.
	doc, err = m.loadCollection(ctx, ref)
	if err != nil {
		return err
	}
	if !newPath.IsRoot() {
		if _, err := resolveNode(doc, newPath); err != nil {
			return err
		}
	}

	err = m.documents.UpdateByID(ctx, collectionCollection, ref.DocumentID(),
		persistence.Set(folderField(newPath.Child(oldPath.Leaf())), moved))
	if err != nil {
		return fmt.Errorf("failed to attach folder: %w", err)
	}

	return nil
}

func (m *folderManager) loadCollection(ctx context.Context, ref domain.CollectionRef) (domain.CollectionDocument, error) {
	var doc domain.CollectionDocument
	err := m.documents.FindByID(ctx, collectionCollection, ref.DocumentID(), &doc)
	if errors.Is(err, persistence.ErrNotFound) {
		return domain.CollectionDocument{}, domain.ErrPathNotFound
	}
	if err != nil {
		return domain.CollectionDocument{}, fmt.Errorf("failed to load collection: %w", err)
	}

	return doc, nil
}

// loadOrCreateCollection lazily creates the collection document on
// first write, so journal roots and fresh sessions need no explicit
// provisioning step.
func (m *folderManager) loadOrCreateCollection(ctx context.Context, ref domain.CollectionRef) (domain.CollectionDocument, error) {
	var doc domain.CollectionDocument
	err := m.documents.FindByID(ctx, collectionCollection, ref.DocumentID(), &doc)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return domain.CollectionDocument{}, fmt.Errorf("failed to load collection: %w", err)
	}

	doc = domain.CollectionDocument{
		ID:       ref.DocumentID(),
		Contents: []string{},
		Folders:  map[string]domain.FolderNode{},
	}
	if err := m.documents.Create(ctx, collectionCollection, doc); err != nil {
		return domain.CollectionDocument{}, fmt.Errorf("failed to create collection: %w", err)
	}

	return doc, nil
}

// resolveNode walks the path id-by-id through nested subfolder maps.
func resolveNode(doc domain.CollectionDocument, path domain.FolderPath) (*domain.FolderNode, error) {
	folders := doc.Folders

	var node domain.FolderNode
	for _, id := range path {
		next, ok := folders[id]
		if !ok {
			return nil, domain.ErrPathNotFound
		}
		node = next
		folders = next.Folders
	}

	return &node, nil
}
