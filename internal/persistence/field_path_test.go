package persistence

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestFieldPath_Child(t *testing.T) {
	tests := []struct {
		name     string
		base     FieldPath
		segments []string
		expected string
	}{
		{
			name:     "root field",
			base:     FieldPath{},
			segments: []string{"contents"},
			expected: "contents",
		},
		{
			name:     "nested folder node",
			base:     FieldPath{"folders", "f1"},
			segments: []string{"folders", "f2"},
			expected: "folders.f1.folders.f2",
		},
		{
			name:     "folder contents",
			base:     FieldPath{"folders", "f1"},
			segments: []string{"contents"},
			expected: "folders.f1.contents",
		},
		{
			name:     "empty path",
			base:     FieldPath{},
			segments: nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.base.Child(tt.segments...).String()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFieldPath_ChildDoesNotAliasBase(t *testing.T) {
	base := make(FieldPath, 0, 8)
	base = base.Child("folders", "f1")

	a := base.Child("contents")
	b := base.Child("name")

	if a.String() != "folders.f1.contents" {
		t.Errorf("unexpected path %q", a.String())
	}
	if b.String() != "folders.f1.name" {
		t.Errorf("unexpected path %q", b.String())
	}
}

func TestBuildUpdate(t *testing.T) {
	update, err := buildUpdate([]FieldOp{
		Set(FieldPath{"folders", "f1", "name"}, "Maps"),
		Pull(FieldPath{"contents"}, "t1"),
		AddToSet(FieldPath{"folders", "f1", "contents"}, "t1"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	set, ok := update["$set"].(bson.M)
	if !ok {
		t.Fatalf("missing $set in update: %v", update)
	}
	if set["folders.f1.name"] != "Maps" {
		t.Errorf("unexpected $set: %v", set)
	}

	if _, ok := update["$pull"]; !ok {
		t.Errorf("missing $pull in update: %v", update)
	}
	if _, ok := update["$addToSet"]; !ok {
		t.Errorf("missing $addToSet in update: %v", update)
	}

	if _, err := buildUpdate(nil); err == nil {
		t.Error("expected error for empty op list")
	}
}
