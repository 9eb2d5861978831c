package ui

import (
	"testing"

	"meshchat/server"
)

func TestParseWhisperRecognizesDirective(t *testing.T) {
	dest, body, ok := parseWhisper("/w bob hello there")
	if !ok || dest != "bob" || body != "hello there" {
		t.Fatalf("got dest=%q body=%q ok=%v", dest, body, ok)
	}
}

func TestParseWhisperRejectsPlainText(t *testing.T) {
	_, _, ok := parseWhisper("hello everyone")
	if ok {
		t.Fatal("expected plain text not to parse as a whisper")
	}
}

func TestParseWhisperRequiresBody(t *testing.T) {
	_, _, ok := parseWhisper("/w bob")
	if ok {
		t.Fatal("expected a directive with no body to be rejected")
	}
}

func TestRenderFormatsSayAndWhisper(t *testing.T) {
	say := render(server.ServerSay{From: "alice", Text: "hi"})
	if say == "" {
		t.Fatal("expected non-empty rendering for Say")
	}
	whisper := render(server.ServerWhisper{From: "alice", To: "bob", Text: "hi"})
	if whisper == "" {
		t.Fatal("expected non-empty rendering for Whisper")
	}
}
