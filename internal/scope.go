package internal

import (
	"os"
	"path/filepath"
)

type ScopeType string

const (
	ScopeGlobal  ScopeType = "global"
	ScopeProject ScopeType = "project"
)

// Scope is where a kiki installation keeps its state. A project scope is
// the nearest ancestor directory containing .kiki; otherwise state lives
// under the home directory.
type Scope struct {
	Type     ScopeType
	Path     string // working directory root
	KikiPath string // .kiki directory path
}

func (s Scope) StorePath() string {
	return filepath.Join(s.KikiPath, "store")
}

func (s Scope) ConfigPath() string {
	return filepath.Join(s.KikiPath, "config.yaml")
}

func (s Scope) AudioPath() string {
	return filepath.Join(s.KikiPath, "audio")
}

func (s Scope) SessionPath() string {
	return filepath.Join(s.KikiPath, "session")
}

func (s Scope) LibraryPath() string {
	return filepath.Join(s.KikiPath, "library")
}

func (s Scope) QuestionsPath() string {
	return filepath.Join(s.Path, "questions")
}

type ScopeResolver struct {
	homeDir string
}

func NewScopeResolver() *ScopeResolver {
	home, _ := os.UserHomeDir()
	return &ScopeResolver{homeDir: home}
}

func (r *ScopeResolver) Global() Scope {
	kikiPath := filepath.Join(r.homeDir, ".kiki")
	return Scope{
		Type:     ScopeGlobal,
		Path:     r.homeDir,
		KikiPath: kikiPath,
	}
}

func (r *ScopeResolver) Project() (Scope, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return Scope{}, false
	}
	return r.findProjectScope(cwd)
}

func (r *ScopeResolver) findProjectScope(dir string) (Scope, bool) {
	for {
		kikiPath := filepath.Join(dir, ".kiki")
		info, err := os.Stat(kikiPath)
		if err == nil && info.IsDir() {
			return Scope{Type: ScopeProject, Path: dir, KikiPath: kikiPath}, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Scope{}, false
		}
		dir = parent
	}
}

func (r *ScopeResolver) Resolve(explicit string) Scope {
	if explicit == "global" {
		return r.Global()
	}
	if scope, ok := r.Project(); ok {
		return scope
	}
	return r.Global()
}
