package storage

import (
	"net/url"
	"testing"
)

func TestRewriteHost(t *testing.T) {
	u, _ := url.Parse("http://minio:9000/recordings/calls/1/a.wav?X-Amz-Signature=abc")

	if got := rewriteHost(u, ""); got != u.String() {
		t.Fatalf("expected unchanged URL, got %s", got)
	}

	got := rewriteHost(u, "https://files.example.com")
	want := "https://files.example.com/recordings/calls/1/a.wav?X-Amz-Signature=abc"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}
