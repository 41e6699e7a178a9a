package main

import (
	"bytes"
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"testing"

	"github.com/4thel00z/kikitori/internal"
)

// setupWorkspace initializes a project scope in a temp dir and chdirs into
// it for the duration of the test.
func setupWorkspace(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	origWd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origWd) })

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	cmd := NewInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init workspace: %v", err)
	}
	return tmpDir
}

// stubEmbedder produces deterministic vectors so similarity is stable
// without a running backend.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 16)
	for i := range vec {
		h := fnv.New64a()
		h.Write([]byte(text))
		h.Write([]byte{byte(i)})
		vec[i] = float32(h.Sum64()%1000)/500 - 1
	}
	return vec, nil
}

func (e stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (stubEmbedder) Dimension() int { return 16 }

// stubProvider returns canned completions in call order. With stream set,
// Stream serves the next response as a single chunk.
type stubProvider struct {
	responses []string
	err       error
	stream    bool
	prompts   []string
}

func (p *stubProvider) Complete(_ context.Context, prompt string, _ internal.SamplingParams) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.prompts = append(p.prompts, prompt)
	if len(p.responses) == 0 {
		return "", nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

func (p *stubProvider) GenerateObject(context.Context, string, any) error {
	return errors.New("not implemented")
}

func (p *stubProvider) Stream(_ context.Context, prompt string) (<-chan string, error) {
	if !p.stream {
		return nil, errors.New("not implemented")
	}
	if p.err != nil {
		return nil, p.err
	}
	p.prompts = append(p.prompts, prompt)

	ch := make(chan string, 1)
	if len(p.responses) > 0 {
		ch <- p.responses[0]
		p.responses = p.responses[1:]
	}
	close(ch)
	return ch, nil
}

// testApp opens real stores under the scope but swaps the embedding and
// completion backends for deterministic stubs.
func testApp(provider internal.Provider) *app {
	return &app{
		resolver: internal.NewScopeResolver(),
		openStore: func(scope internal.Scope, cfg *internal.Config) (*internal.QuestionStore, error) {
			return internal.NewQuestionStore(scope.StorePath(), stubEmbedder{},
				internal.WithStoreDimension(16), internal.WithNumTrees(4))
		},
		newProvider: func(ctx context.Context, cfg *internal.Config, name string) (internal.Provider, error) {
			if provider == nil {
				return nil, errors.New("no provider configured")
			}
			return provider, nil
		},
	}
}

func runCommand(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd("test", a)
	root.SetArgs(args)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.Execute()
	return out.String(), err
}

const sampleQuestionFile = `<question>
Introduction: レストランで男の人と女の人が話しています。
Conversation: すみません、ラーメンをください。
はい、かしこまりました。
Question: 男の人は何を注文しましたか。
Options:
1. ラーメン
2. カレー
3. 寿司
4. うどん
</question>

<question>
Introduction: 駅で二人が話しています。
Conversation: 次の電車は何時ですか。
三時十分です。
Question: 次の電車は何時に来ますか。
Options:
1. 三時
2. 三時十分
3. 四時
4. 四時十分
</question>
`

// writeQuestionFile drops a parseable section 2 file into the workspace and
// returns its path.
func writeQuestionFile(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "lesson1_section2.txt")
	if err := os.WriteFile(path, []byte(sampleQuestionFile), 0o644); err != nil {
		t.Fatalf("write question file: %v", err)
	}
	return path
}

func indexSampleFile(t *testing.T, a *app, dir string) string {
	t.Helper()

	path := writeQuestionFile(t, dir)
	if _, err := runCommand(t, a, "index", path); err != nil {
		t.Fatalf("index: %v", err)
	}
	return path
}
