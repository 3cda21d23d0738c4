package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/pkg/jwt"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestSegment_WithTurns(t *testing.T) {
	asr := writeFile(t, "asr.json", `{"text":"hi there","words":[{"word":"hi","start":0,"end":0.5},{"word":"there","start":0.5,"end":0.9}],"segments":[{"id":0,"start":0,"end":0.9,"text":"hi there"}]}`)
	turns := writeFile(t, "turns.json", `[{"speaker":"User","startTimeMs":0,"endTimeMs":1000}]`)

	out, err := execute(t, "segment", "--asr", asr, "--turns", turns)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}

	var got segmentOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	want := entities.TranscriptSegment{Speaker: entities.SpeakerUser, Text: "hi there", Timestamp: 0}
	if len(got.Transcript) != 1 || got.Transcript[0] != want {
		t.Fatalf("expected [%+v], got %+v", want, got.Transcript)
	}
	if got.Duration == nil || *got.Duration != 1 {
		t.Fatalf("expected duration 1, got %v", got.Duration)
	}
	if got.Path != "speaker_turns" {
		t.Fatalf("expected speaker_turns path, got %s", got.Path)
	}
}

func TestSegment_EmptyASR(t *testing.T) {
	asr := writeFile(t, "asr.json", `{"text":"","words":[],"segments":[]}`)

	out, err := execute(t, "segment", "--asr", asr)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	var got segmentOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(got.Transcript) != 0 || got.Duration != nil {
		t.Fatalf("expected empty transcript and null duration, got %+v", got)
	}
}

func TestSegment_Errors(t *testing.T) {
	asr := writeFile(t, "asr.json", `{"words":[]}`)
	badTurns := writeFile(t, "turns.json", `[{"speaker":"Interviewer","startTimeMs":0,"endTimeMs":10}]`)

	if _, err := execute(t, "segment"); err == nil {
		t.Fatal("expected error without --asr")
	}
	if _, err := execute(t, "segment", "--asr", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for a missing file")
	}
	if _, err := execute(t, "segment", "--asr", asr, "--turns", badTurns); err == nil {
		t.Fatal("expected error for an unknown speaker")
	}
}

func TestToken(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "cli-test-secret")
	t.Setenv("JWT_ISSUER", "interview-analyzer")
	userID := uuid.New()

	out, err := execute(t, "token", "--user", userID.String(), "--role", "admin", "--expiry", "5m")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	token := lines[len(lines)-1]

	claims, err := jwt.NewManager("cli-test-secret", time.Minute, "interview-analyzer").ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("minted token does not validate: %v", err)
	}
	if claims.UserID != userID || claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestToken_RejectsBadInput(t *testing.T) {
	if _, err := execute(t, "token", "--role", "superuser"); err == nil {
		t.Fatal("expected error for an unknown role")
	}
	if _, err := execute(t, "token", "--user", "bob"); err == nil {
		t.Fatal("expected error for a non-UUID user")
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := parseDirection(nil); err != nil || directionName(d) != "up" {
		t.Fatalf("default direction should be up, got %v %v", d, err)
	}
	if d, err := parseDirection([]string{"down"}); err != nil || directionName(d) != "down" {
		t.Fatalf("expected down, got %v %v", d, err)
	}
	if _, err := parseDirection([]string{"sideways"}); err == nil {
		t.Fatal("expected error for unknown direction")
	}
	if _, err := execute(t, "migrate", "sideways"); err == nil {
		t.Fatal("cobra should reject an invalid direction before connecting")
	}
}
