package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultVoicevoxURL is where a locally running VOICEVOX engine listens.
const DefaultVoicevoxURL = "http://localhost:50021"

// VoiceTable maps speaker genders to VOICEVOX speaker ids.
type VoiceTable struct {
	Male      int `yaml:"male"`
	Female    int `yaml:"female"`
	Announcer int `yaml:"announcer"`
}

// DefaultVoices targets a stock VOICEVOX install. Speaker ids and their
// voice characters vary across engine versions; the config file overrides
// these.
func DefaultVoices() VoiceTable {
	return VoiceTable{Male: 1, Female: 3, Announcer: 1}
}

func (t VoiceTable) speakerFor(gender string) int {
	switch gender {
	case "male":
		return t.Male
	case "female":
		return t.Female
	default:
		return t.Announcer
	}
}

// VoicevoxClient synthesizes Japanese speech against a VOICEVOX engine.
// Synthesis is a two-step protocol: an audio query is generated from the
// text, then the query is rendered to WAV.
type VoicevoxClient struct {
	baseURL string
	client  *http.Client
}

func NewVoicevoxClient(baseURL string, client *http.Client) *VoicevoxClient {
	if baseURL == "" {
		baseURL = DefaultVoicevoxURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &VoicevoxClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Synthesize renders text spoken by the given VOICEVOX speaker and returns
// WAV bytes.
func (c *VoicevoxClient) Synthesize(ctx context.Context, text string, speaker int) ([]byte, error) {
	query, err := c.audioQuery(ctx, text, speaker)
	if err != nil {
		return nil, err
	}

	params := url.Values{"speaker": {strconv.Itoa(speaker)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/synthesis?"+params.Encode(), bytes.NewReader(query))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voicevox synthesis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voicevox synthesis: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (c *VoicevoxClient) audioQuery(ctx context.Context, text string, speaker int) ([]byte, error) {
	params := url.Values{
		"text":    {text},
		"speaker": {strconv.Itoa(speaker)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/audio_query?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voicevox audio query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voicevox audio query: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("voicevox audio query: invalid response body")
	}
	return body, nil
}

// ConversationPart is one spoken line of a rendered question.
type ConversationPart struct {
	Speaker string
	Text    string
	Gender  string
}

// ConversationParts renders a question as the spoken sequence an exam
// recording would use. Announcer lines carry the cue phrases the combiner
// keys section pauses on.
func ConversationParts(q Question) []ConversationPart {
	var parts []ConversationPart
	announce := func(text string) {
		parts = append(parts, ConversationPart{Speaker: "Announcer", Text: text, Gender: "announcer"})
	}

	switch v := q.(type) {
	case Section2Question:
		announce("次の会話を聞いて、質問に答えてください。")
		if v.Introduction != "" {
			announce(v.Introduction)
		}
		speakers := [2]ConversationPart{
			{Speaker: "Male", Gender: "male"},
			{Speaker: "Female", Gender: "female"},
		}
		turn := 0
		for _, line := range strings.Split(v.Conversation, "。") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			p := speakers[turn%2]
			p.Text = line + "。"
			parts = append(parts, p)
			turn++
		}
		announce("質問：" + v.Question)
	case Section3Question:
		announce("次の状況を聞いて、質問に答えてください。")
		announce(v.Situation)
		announce("質問：" + v.Question)
	default:
		return nil
	}

	var opts strings.Builder
	opts.WriteString("選択肢：")
	for i, opt := range q.AnswerOptions() {
		fmt.Fprintf(&opts, "%d、%s。", i+1, opt)
	}
	announce(opts.String())

	return parts
}

// AudioGenerator turns conversation parts into a single MP3 using VOICEVOX
// for synthesis and ffmpeg for transcoding and concatenation.
type AudioGenerator struct {
	voicevox *VoicevoxClient
	voices   VoiceTable
	dir      string

	now func() time.Time
}

func NewAudioGenerator(voicevox *VoicevoxClient, voices VoiceTable, dir string) *AudioGenerator {
	return &AudioGenerator{
		voicevox: voicevox,
		voices:   voices,
		dir:      dir,
		now:      time.Now,
	}
}

// Generate synthesizes every part, inserts pauses (2 s between sections,
// 500 ms between lines) and concatenates the result into
// conversation_<timestamp>.mp3 under the audio dir. Intermediate files are
// removed regardless of outcome.
func (g *AudioGenerator) Generate(ctx context.Context, parts []ConversationPart) (string, error) {
	if len(parts) == 0 {
		return "", fmt.Errorf("generate audio: no conversation parts")
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	tmp, err := os.MkdirTemp("", "kiki-audio-*")
	if err != nil {
		return "", fmt.Errorf("create audio temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	longPause, err := g.silence(ctx, tmp, 2000)
	if err != nil {
		return "", err
	}
	shortPause, err := g.silence(ctx, tmp, 500)
	if err != nil {
		return "", err
	}

	var files []string
	section := ""
	for i, part := range parts {
		// Announcer cue phrases mark section boundaries.
		if strings.EqualFold(part.Speaker, "announcer") {
			switch {
			case strings.Contains(part.Text, "次の会話") || strings.Contains(part.Text, "次の状況"):
				if section != "" {
					files = append(files, longPause)
				}
				section = "intro"
			case strings.Contains(part.Text, "質問") || strings.Contains(part.Text, "選択肢"):
				files = append(files, longPause)
				section = "question"
			}
		} else if section == "intro" {
			files = append(files, longPause)
			section = "conversation"
		}

		mp3, err := g.synthesizePart(ctx, tmp, i, part)
		if err != nil {
			return "", err
		}
		files = append(files, mp3, shortPause)
	}

	output := filepath.Join(g.dir, fmt.Sprintf("conversation_%s.mp3", g.now().Format("20060102_150405")))
	if err := g.concat(ctx, tmp, files, output); err != nil {
		os.Remove(output)
		return "", err
	}
	return output, nil
}

func (g *AudioGenerator) synthesizePart(ctx context.Context, tmp string, i int, part ConversationPart) (string, error) {
	speaker := g.voices.speakerFor(part.Gender)
	wav, err := g.voicevox.Synthesize(ctx, part.Text, speaker)
	if err != nil {
		return "", fmt.Errorf("synthesize part %d: %w", i, err)
	}

	wavFile := filepath.Join(tmp, fmt.Sprintf("part_%03d.wav", i))
	if err := os.WriteFile(wavFile, wav, 0o644); err != nil {
		return "", err
	}

	mp3File := filepath.Join(tmp, fmt.Sprintf("part_%03d.mp3", i))
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", wavFile,
		"-codec:a", "libmp3lame", "-qscale:a", "2",
		mp3File)
	if out, err := cmd.CombinedOutput(); err != nil {
		slog.Debug("ffmpeg transcode output", "output", string(out))
		return "", fmt.Errorf("transcode part %d: %w", i, err)
	}
	return mp3File, nil
}

func (g *AudioGenerator) silence(ctx context.Context, tmp string, durationMS int) (string, error) {
	output := filepath.Join(tmp, fmt.Sprintf("silence_%dms.mp3", durationMS))
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=24000:cl=mono:d=%g", float64(durationMS)/1000),
		"-c:a", "libmp3lame", "-b:a", "48k",
		output)
	if out, err := cmd.CombinedOutput(); err != nil {
		slog.Debug("ffmpeg silence output", "output", string(out))
		return "", fmt.Errorf("generate %dms silence: %w", durationMS, err)
	}
	return output, nil
}

func (g *AudioGenerator) concat(ctx context.Context, tmp string, files []string, output string) error {
	var list strings.Builder
	for _, f := range files {
		fmt.Fprintf(&list, "file '%s'\n", f)
	}

	listFile := filepath.Join(tmp, "concat.txt")
	if err := os.WriteFile(listFile, []byte(list.String()), 0o644); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat", "-safe", "0",
		"-i", listFile,
		"-c", "copy",
		output)
	if out, err := cmd.CombinedOutput(); err != nil {
		slog.Debug("ffmpeg concat output", "output", string(out))
		return fmt.Errorf("combine audio files: %w", err)
	}
	return nil
}
