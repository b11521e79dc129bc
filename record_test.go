package linkstore

import (
	"crypto/ed25519"
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestParseSubmitterID(t *testing.T) {
	id := CallerFromName("alice").ID
	got, err := ParseSubmitterID(id.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != id {
		t.Errorf("got %s, want %s", got, id)
	}

	for _, bad := range []string{"", "abcd", strings.Repeat("z", 64), id.String() + "00"} {
		if _, err := ParseSubmitterID(bad); err == nil {
			t.Errorf("ParseSubmitterID(%q) succeeded", bad)
		}
	}
}

func TestSubmitterIDJSON(t *testing.T) {
	rec := Record{Link: "https://example.com/x.gif", Submitter: CallerFromName("bob").ID}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), rec.Submitter.String()) {
		t.Errorf("submitter not hex encoded: %s", data)
	}

	var got Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != rec {
		t.Errorf("got %+v, want %+v", got, rec)
	}
}

func TestCallerFromKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	c, err := CallerFromKey(pub)
	if err != nil {
		t.Fatalf("CallerFromKey: %v", err)
	}
	if string(c.ID[:]) != string(pub) {
		t.Error("caller ID is not the public key")
	}

	if _, err := CallerFromKey(pub[:31]); err == nil {
		t.Error("short key accepted")
	}
}

func TestCallerFromName(t *testing.T) {
	a1 := CallerFromName("alice")
	a2 := CallerFromName("alice")
	b := CallerFromName("bob")
	if a1 != a2 {
		t.Error("same name gave different identities")
	}
	if a1 == b {
		t.Error("different names gave the same identity")
	}
	if a1.ID.IsZero() {
		t.Error("identity is all zeros")
	}
}

func TestCheckLink(t *testing.T) {
	tests := []struct {
		name string
		link string
		want error
	}{
		{"empty", "", nil},
		{"ascii", "https://example.com/a.gif", nil},
		{"multibyte", "https://例え.jp/画像.gif", nil},
		{"at limit", strings.Repeat("a", MaxURLLen), nil},
		{"over limit", strings.Repeat("a", MaxURLLen+1), ErrLinkTooLong},
		{"invalid utf8", "https://example.com/\xff", ErrInvalidLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkLink(tt.link)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

// The limit is in bytes, not characters: 67 three-byte runes exceed it.
func TestCheckLinkCountsBytes(t *testing.T) {
	link := strings.Repeat("画", 67)
	if len(link) <= MaxURLLen {
		t.Fatalf("test link is only %d bytes", len(link))
	}
	if err := checkLink(link); !errors.Is(err, ErrLinkTooLong) {
		t.Errorf("got %v, want ErrLinkTooLong", err)
	}
}
