package internal

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()

	dir := t.TempDir()
	if err := InitLibrary(dir); err != nil {
		t.Fatalf("init library: %v", err)
	}

	library, err := OpenLibrary(dir)
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	return library
}

func TestLibrarySaveGet(t *testing.T) {
	library := newTestLibrary(t)
	ctx := context.Background()

	q := testQuestions()[0]
	if err := library.Save(ctx, "restaurant-order", Section2, q); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := library.Commit(ctx, "add restaurant-order"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, section, err := library.Get(ctx, "restaurant-order")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if section != Section2 {
		t.Errorf("section = %d", section)
	}
	if got.(Section2Question) != q.(Section2Question) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, q)
	}
}

func TestLibraryGetMissing(t *testing.T) {
	library := newTestLibrary(t)

	_, _, err := library.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLibraryList(t *testing.T) {
	library := newTestLibrary(t)
	ctx := context.Background()

	for i, id := range []string{"beta", "alpha"} {
		if err := library.Save(ctx, id, Section2, testQuestions()[i]); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	ids, err := library.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "beta" {
		t.Errorf("ids = %v", ids)
	}
}

func TestLibraryDelete(t *testing.T) {
	library := newTestLibrary(t)
	ctx := context.Background()

	if err := library.Save(ctx, "gone", Section2, testQuestions()[0]); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := library.Commit(ctx, "add gone"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := library.Delete(ctx, "gone"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := library.Get(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error after delete = %v, want ErrNotFound", err)
	}

	if err := library.Delete(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete error = %v, want ErrNotFound", err)
	}
}

func TestLibraryLog(t *testing.T) {
	library := newTestLibrary(t)
	ctx := context.Background()

	if err := library.Save(ctx, "one", Section2, testQuestions()[0]); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := library.Commit(ctx, "add one"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	commits, err := library.Log(ctx, 10)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	// The init commit plus ours, newest first.
	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(commits))
	}
	if commits[0].Message != "add one" {
		t.Errorf("latest commit = %q", commits[0].Message)
	}
	if commits[0].Author != DefaultAuthor {
		t.Errorf("author = %q", commits[0].Author)
	}
}

func TestLibraryDiff(t *testing.T) {
	library := newTestLibrary(t)
	ctx := context.Background()

	if err := library.Save(ctx, "q", Section2, testQuestions()[0]); err != nil {
		t.Fatalf("save: %v", err)
	}
	first, err := library.Commit(ctx, "add q")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	changed := testQuestions()[0].(Section2Question)
	changed.Question = "新しい質問です。"
	if err := library.Save(ctx, "q", Section2, changed); err != nil {
		t.Fatalf("save changed: %v", err)
	}
	if _, err := library.Commit(ctx, "update q"); err != nil {
		t.Fatalf("commit changed: %v", err)
	}

	diff, err := library.Diff(ctx, first.Hash)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(diff, "q.txt") {
		t.Errorf("diff missing file name:\n%s", diff)
	}
	if !strings.Contains(diff, "新しい") {
		t.Errorf("diff missing new content:\n%s", diff)
	}
}
