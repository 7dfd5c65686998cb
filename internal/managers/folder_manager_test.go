package managers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/questdeck/questdeck/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFolderManager(store *fakeDocumentStore) *folderManager {
	counter := 0
	return &folderManager{
		documents: store,
		newID: func() string {
			counter++
			return fmt.Sprintf("f%d", counter)
		},
	}
}

func testRef() domain.CollectionRef {
	return domain.CollectionRef{Kind: domain.CollectionBlueprints, OwnerID: "session-1"}
}

func TestParseFolderPath(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected domain.FolderPath
		wantErr  error
	}{
		{name: "empty is root", raw: "", expected: nil},
		{name: "slash only is root", raw: "/", expected: nil},
		{name: "single segment", raw: "f1", expected: domain.FolderPath{"f1"}},
		{name: "nested", raw: "f1/f2/f3", expected: domain.FolderPath{"f1", "f2", "f3"}},
		{name: "surrounding slashes trimmed", raw: "/f1/f2/", expected: domain.FolderPath{"f1", "f2"}},
		{name: "empty segment rejected", raw: "f1//f2", wantErr: domain.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := domain.ParseFolderPath(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, path)
		})
	}
}

func TestFolderManager_CreateAndResolve(t *testing.T) {
	ctx := context.Background()
	m := newTestFolderManager(newFakeDocumentStore())
	ref := testRef()

	mapsID, err := m.CreateFolder(ctx, ref, nil, "Maps")
	require.NoError(t, err)

	dungeonID, err := m.CreateFolder(ctx, ref, domain.FolderPath{mapsID}, "Dungeon")
	require.NoError(t, err)

	// The root resolves to a nil handle, not an error.
	root, err := m.Resolve(ctx, ref, nil)
	require.NoError(t, err)
	assert.Nil(t, root)

	handle, err := m.Resolve(ctx, ref, domain.FolderPath{mapsID, dungeonID})
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, "Dungeon", handle.Name)
	assert.Empty(t, handle.Contents)

	_, err = m.Resolve(ctx, ref, domain.FolderPath{mapsID, "missing"})
	assert.ErrorIs(t, err, domain.ErrPathNotFound)
}

func TestFolderManager_DuplicateSiblingNames(t *testing.T) {
	ctx := context.Background()
	m := newTestFolderManager(newFakeDocumentStore())
	ref := testRef()

	first, err := m.CreateFolder(ctx, ref, nil, "Handouts")
	require.NoError(t, err)
	second, err := m.CreateFolder(ctx, ref, nil, "Handouts")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	a, err := m.Resolve(ctx, ref, domain.FolderPath{first})
	require.NoError(t, err)
	b, err := m.Resolve(ctx, ref, domain.FolderPath{second})
	require.NoError(t, err)
	assert.Equal(t, a.Name, b.Name)
}

func TestFolderManager_MoveItemIntoSubfolder(t *testing.T) {
	ctx := context.Background()
	m := newTestFolderManager(newFakeDocumentStore())
	ref := testRef()

	mapsID, err := m.CreateFolder(ctx, ref, nil, "Maps")
	require.NoError(t, err)
	dungeonID, err := m.CreateFolder(ctx, ref, domain.FolderPath{mapsID}, "Dungeon")
	require.NoError(t, err)

	require.NoError(t, m.AddItem(ctx, ref, "T1", nil))
	require.NoError(t, m.MoveItem(ctx, ref, "T1", nil, domain.FolderPath{mapsID, dungeonID}))

	handle, err := m.Resolve(ctx, ref, domain.FolderPath{mapsID, dungeonID})
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, handle.Contents)

	var doc domain.CollectionDocument
	require.NoError(t, m.documents.FindByID(ctx, collectionCollection, ref.DocumentID(), &doc))
	assert.Empty(t, doc.Contents)
}

func TestFolderManager_MoveItemCommutative(t *testing.T) {
	ctx := context.Background()

	orders := [][]string{{"A", "B"}, {"B", "A"}}
	for _, order := range orders {
		m := newTestFolderManager(newFakeDocumentStore())
		ref := testRef()

		folderID, err := m.CreateFolder(ctx, ref, nil, "Shared")
		require.NoError(t, err)
		require.NoError(t, m.AddItem(ctx, ref, "A", nil))
		require.NoError(t, m.AddItem(ctx, ref, "B", nil))

		for _, item := range order {
			require.NoError(t, m.MoveItem(ctx, ref, item, nil, domain.FolderPath{folderID}))
		}

		handle, err := m.Resolve(ctx, ref, domain.FolderPath{folderID})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"A", "B"}, handle.Contents)
	}
}

func TestFolderManager_MoveItemSamePathIsNoop(t *testing.T) {
	ctx := context.Background()
	m := newTestFolderManager(newFakeDocumentStore())
	ref := testRef()

	require.NoError(t, m.AddItem(ctx, ref, "T1", nil))
	require.NoError(t, m.MoveItem(ctx, ref, "T1", nil, nil))

	var doc domain.CollectionDocument
	require.NoError(t, m.documents.FindByID(ctx, collectionCollection, ref.DocumentID(), &doc))
	assert.Equal(t, []string{"T1"}, doc.Contents)
}

func TestFolderManager_Rename(t *testing.T) {
	ctx := context.Background()
	m := newTestFolderManager(newFakeDocumentStore())
	ref := testRef()

	id, err := m.CreateFolder(ctx, ref, nil, "Old")
	require.NoError(t, err)

	require.NoError(t, m.RenameFolder(ctx, ref, domain.FolderPath{id}, "New"))

	handle, err := m.Resolve(ctx, ref, domain.FolderPath{id})
	require.NoError(t, err)
	assert.Equal(t, "New", handle.Name)

	err = m.RenameFolder(ctx, ref, domain.FolderPath{"missing"}, "X")
	assert.ErrorIs(t, err, domain.ErrPathNotFound)

	err = m.RenameFolder(ctx, ref, nil, "Root")
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
}

func TestFolderManager_MoveFolderPreservesSubtree(t *testing.T) {
	ctx := context.Background()
	m := newTestFolderManager(newFakeDocumentStore())
	ref := testRef()

	aID, err := m.CreateFolder(ctx, ref, nil, "A")
	require.NoError(t, err)
	bID, err := m.CreateFolder(ctx, ref, domain.FolderPath{aID}, "B")
	require.NoError(t, err)
	cID, err := m.CreateFolder(ctx, ref, nil, "C")
	require.NoError(t, err)

	require.NoError(t, m.AddItem(ctx, ref, "T1", domain.FolderPath{aID, bID}))

	// Move A (with B and T1 inside) under C.
	require.NoError(t, m.MoveFolder(ctx, ref, domain.FolderPath{aID}, domain.FolderPath{cID}))

	handle, err := m.Resolve(ctx, ref, domain.FolderPath{cID, aID, bID})
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, handle.Contents)

	_, err = m.Resolve(ctx, ref, domain.FolderPath{aID})
	assert.ErrorIs(t, err, domain.ErrPathNotFound)

	assertTreeIntegrity(t, m, ref)
}

func TestFolderManager_MoveFolderToRoot(t *testing.T) {
	ctx := context.Background()
	m := newTestFolderManager(newFakeDocumentStore())
	ref := testRef()

	aID, err := m.CreateFolder(ctx, ref, nil, "A")
	require.NoError(t, err)
	bID, err := m.CreateFolder(ctx, ref, domain.FolderPath{aID}, "B")
	require.NoError(t, err)

	require.NoError(t, m.MoveFolder(ctx, ref, domain.FolderPath{aID, bID}, nil))

	_, err = m.Resolve(ctx, ref, domain.FolderPath{bID})
	require.NoError(t, err)

	parent, err := m.Resolve(ctx, ref, domain.FolderPath{aID})
	require.NoError(t, err)
	assert.Empty(t, parent.Folders)

	assertTreeIntegrity(t, m, ref)
}

func TestFolderManager_MoveFolderIntoOwnSubtreeRejected(t *testing.T) {
	ctx := context.Background()
	m := newTestFolderManager(newFakeDocumentStore())
	ref := testRef()

	aID, err := m.CreateFolder(ctx, ref, nil, "A")
	require.NoError(t, err)
	bID, err := m.CreateFolder(ctx, ref, domain.FolderPath{aID}, "B")
	require.NoError(t, err)

	err = m.MoveFolder(ctx, ref, domain.FolderPath{aID}, domain.FolderPath{aID, bID})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	err = m.MoveFolder(ctx, ref, domain.FolderPath{aID}, domain.FolderPath{aID})
	assert.ErrorIs(t, err, domain.ErrInvalidParent)

	// The tree is untouched after the rejected moves.
	_, err = m.Resolve(ctx, ref, domain.FolderPath{aID, bID})
	require.NoError(t, err)
	assertTreeIntegrity(t, m, ref)
}

func TestFolderManager_RemoveFolderCascades(t *testing.T) {
	ctx := context.Background()
	m := newTestFolderManager(newFakeDocumentStore())
	ref := testRef()

	aID, err := m.CreateFolder(ctx, ref, nil, "A")
	require.NoError(t, err)
	bID, err := m.CreateFolder(ctx, ref, domain.FolderPath{aID}, "B")
	require.NoError(t, err)

	require.NoError(t, m.AddItem(ctx, ref, "T1", domain.FolderPath{aID}))
	require.NoError(t, m.AddItem(ctx, ref, "T2", domain.FolderPath{aID, bID}))

	var deleted []string
	deleter := func(ctx context.Context, itemID string) error {
		deleted = append(deleted, itemID)
		return nil
	}

	require.NoError(t, m.RemoveFolder(ctx, ref, domain.FolderPath{aID}, deleter))

	// Items in subfolders go through the owning entity's delete path
	// before the node is detached.
	assert.ElementsMatch(t, []string{"T1", "T2"}, deleted)

	_, err = m.Resolve(ctx, ref, domain.FolderPath{aID})
	assert.ErrorIs(t, err, domain.ErrPathNotFound)
}

func TestFolderManager_RemoveFolderPartialCascade(t *testing.T) {
	ctx := context.Background()
	m := newTestFolderManager(newFakeDocumentStore())
	ref := testRef()

	aID, err := m.CreateFolder(ctx, ref, nil, "A")
	require.NoError(t, err)
	require.NoError(t, m.AddItem(ctx, ref, "T1", domain.FolderPath{aID}))
	require.NoError(t, m.AddItem(ctx, ref, "T2", domain.FolderPath{aID}))

	boom := errors.New("entity delete failed")
	calls := 0
	deleter := func(ctx context.Context, itemID string) error {
		calls++
		if calls > 1 {
			return boom
		}
		return nil
	}

	err = m.RemoveFolder(ctx, ref, domain.FolderPath{aID}, deleter)
	require.ErrorIs(t, err, boom)

	// No rollback: the folder record stays so the caller can retry the
	// same call.
	handle, err := m.Resolve(ctx, ref, domain.FolderPath{aID})
	require.NoError(t, err)
	assert.Len(t, handle.Contents, 2)
}

func TestFolderManager_RemoveRootRejected(t *testing.T) {
	ctx := context.Background()
	m := newTestFolderManager(newFakeDocumentStore())

	err := m.RemoveFolder(ctx, testRef(), nil, func(ctx context.Context, itemID string) error {
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
}

// assertTreeIntegrity walks the persisted collection and checks that
// every folder id and item id is reachable by exactly one path.
func assertTreeIntegrity(t *testing.T, m *folderManager, ref domain.CollectionRef) {
	t.Helper()

	var doc domain.CollectionDocument
	require.NoError(t, m.documents.FindByID(context.Background(), collectionCollection, ref.DocumentID(), &doc))

	seen := map[string]int{}
	for _, item := range doc.Contents {
		seen[item]++
	}

	var walk func(folders map[string]domain.FolderNode)
	walk = func(folders map[string]domain.FolderNode) {
		for id, node := range folders {
			seen[id]++
			for _, item := range node.Contents {
				seen[item]++
			}
			walk(node.Folders)
		}
	}
	walk(doc.Folders)

	for id, count := range seen {
		assert.Equalf(t, 1, count, "id %s reachable by %d paths", id, count)
	}
}
