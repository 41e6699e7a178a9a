package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	DefaultBranch = "main"
	DefaultAuthor = "kiki"
	DefaultEmail  = "kiki@local"

	libraryMarker = ".library"
)

// Library is a git-versioned collection of saved questions. Files live in
// the worktree as labeled flat text, one question per "<id>.txt", so
// history diffs stay readable. Unlike the question store, saved entries can
// be deleted.
type Library struct {
	repo     *git.Repository
	worktree *git.Worktree
	rootPath string
}

// LibraryCommit is one entry of the library's history.
type LibraryCommit struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// InitLibrary creates the git repository under dir, with the git dir kept
// in dir/.git and a marker file as the initial commit.
func InitLibrary(dir string) error {
	gitPath := filepath.Join(dir, ".git")
	if err := os.MkdirAll(gitPath, 0o755); err != nil {
		return fmt.Errorf("create library directory: %w", err)
	}

	fs := osfs.New(gitPath)
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(dir)

	repo, err := git.Init(storage, wt)
	if err != nil {
		return fmt.Errorf("init library: %w", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("get config: %w", err)
	}
	cfg.Init.DefaultBranch = DefaultBranch
	if err := repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("set config: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	markerPath := filepath.Join(dir, libraryMarker)
	if err := os.WriteFile(markerPath, []byte("kiki question library\n"), 0o644); err != nil {
		return fmt.Errorf("write marker file: %w", err)
	}

	if _, err := worktree.Add(libraryMarker); err != nil {
		return fmt.Errorf("stage marker file: %w", err)
	}

	_, err = worktree.Commit("init: initialize question library", &git.CommitOptions{
		Author: librarySignature(),
	})
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	return nil
}

// OpenLibrary opens an initialized library under dir.
func OpenLibrary(dir string) (*Library, error) {
	gitPath := filepath.Join(dir, ".git")
	if _, err := os.Stat(gitPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("library not initialized: %s", dir)
	}

	fs := osfs.New(gitPath)
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(dir)

	repo, err := git.Open(storage, wt)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	return &Library{
		repo:     repo,
		worktree: worktree,
		rootPath: dir,
	}, nil
}

func librarySignature() *object.Signature {
	return &object.Signature{
		Name:  DefaultAuthor,
		Email: DefaultEmail,
		When:  time.Now(),
	}
}

func (l *Library) entryPath(id string) string {
	return filepath.Join(l.rootPath, id+".txt")
}

// encodeEntry renders a question as the library file format: a section
// header line followed by the labeled flat text.
func encodeEntry(section Section, q Question) string {
	return fmt.Sprintf("Section: %d\n%s", int(section), FormatQuestion(q))
}

func decodeEntry(content string) (Question, Section, error) {
	header, rest, ok := strings.Cut(content, "\n")
	if !ok || !strings.HasPrefix(header, "Section: ") {
		return nil, 0, fmt.Errorf("library entry: missing section header")
	}
	n, err := strconv.Atoi(strings.TrimPrefix(header, "Section: "))
	if err != nil {
		return nil, 0, fmt.Errorf("library entry: bad section header: %w", err)
	}
	section, err := ParseSection(n)
	if err != nil {
		return nil, 0, err
	}
	q, err := ParseGeneratedQuestion(rest, section)
	if err != nil {
		return nil, 0, err
	}
	return q, section, nil
}

// Save writes the question under id and stages it. The change is not
// committed until Commit is called.
func (l *Library) Save(ctx context.Context, id string, section Section, q Question) error {
	if !section.Valid() {
		return fmt.Errorf("%w: got %d", ErrInvalidSection, int(section))
	}

	path := l.entryPath(id)
	if err := os.WriteFile(path, []byte(encodeEntry(section, q)), 0o644); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}

	if _, err := l.worktree.Add(id + ".txt"); err != nil {
		return fmt.Errorf("stage entry: %w", err)
	}
	return nil
}

// Get reads a saved question back. Absent ids return ErrNotFound.
func (l *Library) Get(ctx context.Context, id string) (Question, Section, error) {
	content, err := os.ReadFile(l.entryPath(id))
	if os.IsNotExist(err) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read entry: %w", err)
	}
	return decodeEntry(string(content))
}

// Delete removes a saved question and stages the removal.
func (l *Library) Delete(ctx context.Context, id string) error {
	if _, err := os.Stat(l.entryPath(id)); os.IsNotExist(err) {
		return ErrNotFound
	}

	if _, err := l.worktree.Remove(id + ".txt"); err != nil {
		return fmt.Errorf("remove entry: %w", err)
	}
	return nil
}

// List returns the ids of all saved questions, sorted.
func (l *Library) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.rootPath)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".txt"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Commit records all staged changes.
func (l *Library) Commit(ctx context.Context, message string) (*LibraryCommit, error) {
	hash, err := l.worktree.Commit(message, &git.CommitOptions{
		Author: librarySignature(),
	})
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	commit, err := l.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}
	return toLibraryCommit(commit), nil
}

// Log returns history, newest first. A non-positive limit returns
// everything.
func (l *Library) Log(ctx context.Context, limit int) ([]*LibraryCommit, error) {
	iter, err := l.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	defer iter.Close()

	var commits []*LibraryCommit
	count := 0

	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && count >= limit {
			return io.EOF
		}
		commits = append(commits, toLibraryCommit(c))
		count++
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, err
	}

	return commits, nil
}

// Diff renders the per-file changes between the given revision and HEAD as
// a readable inline diff. An empty ref diffs HEAD against the worktree.
func (l *Library) Diff(ctx context.Context, ref string) (string, error) {
	headTree, err := l.treeAt("HEAD")
	if err != nil {
		return "", err
	}

	var oldFiles, newFiles map[string]string
	if ref == "" {
		oldFiles, err = treeFiles(headTree)
		if err != nil {
			return "", err
		}
		newFiles, err = l.worktreeFiles()
		if err != nil {
			return "", err
		}
	} else {
		refTree, err := l.treeAt(ref)
		if err != nil {
			return "", err
		}
		oldFiles, err = treeFiles(refTree)
		if err != nil {
			return "", err
		}
		newFiles, err = treeFiles(headTree)
		if err != nil {
			return "", err
		}
	}

	names := make(map[string]struct{}, len(oldFiles)+len(newFiles))
	for name := range oldFiles {
		names[name] = struct{}{}
	}
	for name := range newFiles {
		names[name] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	dmp := diffmatchpatch.New()
	var buf strings.Builder
	for _, name := range sorted {
		oldContent := oldFiles[name]
		newContent := newFiles[name]
		if oldContent == newContent {
			continue
		}

		diffs := dmp.DiffMain(oldContent, newContent, false)
		dmp.DiffCleanupSemantic(diffs)

		fmt.Fprintf(&buf, "--- %s\n", name)
		buf.WriteString(dmp.DiffPrettyText(diffs))
		buf.WriteString("\n")
	}

	return buf.String(), nil
}

func (l *Library) treeAt(ref string) (*object.Tree, error) {
	resolved, err := l.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolve ref: %w", err)
	}

	commit, err := l.repo.CommitObject(*resolved)
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}
	return tree, nil
}

func treeFiles(tree *object.Tree) (map[string]string, error) {
	files := make(map[string]string)
	err := tree.Files().ForEach(func(f *object.File) error {
		if !strings.HasSuffix(f.Name, ".txt") {
			return nil
		}
		content, err := f.Contents()
		if err != nil {
			return err
		}
		files[f.Name] = content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read tree files: %w", err)
	}
	return files, nil
}

func (l *Library) worktreeFiles() (map[string]string, error) {
	ids, err := l.List(context.Background())
	if err != nil {
		return nil, err
	}

	files := make(map[string]string, len(ids))
	for _, id := range ids {
		content, err := os.ReadFile(l.entryPath(id))
		if err != nil {
			return nil, fmt.Errorf("read entry: %w", err)
		}
		files[id+".txt"] = string(content)
	}
	return files, nil
}

func toLibraryCommit(c *object.Commit) *LibraryCommit {
	return &LibraryCommit{
		Hash:      c.Hash.String(),
		Message:   strings.TrimSpace(c.Message),
		Author:    c.Author.Name,
		Timestamp: c.Author.When,
	}
}
