// Manager behaviour against every Host implementation.
//
// Each test runs once per host so that the in-memory, file and SQLite
// backends are held to the same contract: count grows by exactly one per
// append, records keep append order, the store stops hard at MaxItems,
// and every rejected operation leaves the stored bytes untouched.
package linkstore_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpl-au/linkstore"
	"github.com/jpl-au/linkstore/sqlitehost"
)

var (
	alice = linkstore.CallerFromName("alice")
	bob   = linkstore.CallerFromName("bob")
)

type hostFactory struct {
	name string
	open func(t *testing.T) linkstore.Host
}

var hosts = []hostFactory{
	{"mem", func(t *testing.T) linkstore.Host {
		return linkstore.NewMemHost()
	}},
	{"file", func(t *testing.T) linkstore.Host {
		h, err := linkstore.OpenFileHost(t.TempDir(), linkstore.FileConfig{})
		if err != nil {
			t.Fatalf("open file host: %v", err)
		}
		return h
	}},
	{"sqlite", func(t *testing.T) linkstore.Host {
		h, err := sqlitehost.Open(filepath.Join(t.TempDir(), "regions.db"))
		if err != nil {
			t.Fatalf("open sqlite host: %v", err)
		}
		return h
	}},
}

// eachHost runs fn against a fresh manager on every host.
func eachHost(t *testing.T, fn func(t *testing.T, m *linkstore.Manager)) {
	for _, hf := range hosts {
		t.Run(hf.name, func(t *testing.T) {
			h := hf.open(t)
			t.Cleanup(func() { h.Close() })
			m, err := linkstore.NewManager(h, linkstore.Config{})
			if err != nil {
				t.Fatalf("NewManager: %v", err)
			}
			fn(t, m)
		})
	}
}

// raw returns a copy of the region bytes at location.
func raw(t *testing.T, h linkstore.Host, location string) []byte {
	t.Helper()
	var out []byte
	err := h.View(location, func(region []byte) error {
		out = append([]byte(nil), region...)
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	return out
}

func TestInitialize(t *testing.T) {
	eachHost(t, func(t *testing.T, m *linkstore.Manager) {
		if err := m.Initialize(alice, "store"); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		s, err := m.Load("store")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if s.Count != 0 || len(s.Records) != 0 {
			t.Errorf("new store has %d/%d records", s.Count, len(s.Records))
		}

		owner, err := m.Host().Owner("store")
		if err != nil {
			t.Fatalf("Owner: %v", err)
		}
		if owner != alice.ID {
			t.Errorf("owner = %s, want %s", owner, alice.ID)
		}
		if n := len(raw(t, m.Host(), "store")); n != linkstore.RegionSize {
			t.Errorf("region is %d bytes, want %d", n, linkstore.RegionSize)
		}
	})
}

func TestInitializeTwice(t *testing.T) {
	eachHost(t, func(t *testing.T, m *linkstore.Manager) {
		if err := m.Initialize(alice, "store"); err != nil {
			t.Fatal(err)
		}
		if err := m.Append(alice, "store", "https://example.com/a.gif"); err != nil {
			t.Fatal(err)
		}
		before := raw(t, m.Host(), "store")

		err := m.Initialize(bob, "store")
		if !errors.Is(err, linkstore.ErrAlreadyInitialized) {
			t.Fatalf("got %v, want ErrAlreadyInitialized", err)
		}
		if string(raw(t, m.Host(), "store")) != string(before) {
			t.Error("second Initialize modified the region")
		}
		if owner, _ := m.Host().Owner("store"); owner != alice.ID {
			t.Error("second Initialize changed the owner")
		}
	})
}

func TestAppendOrderAndCount(t *testing.T) {
	eachHost(t, func(t *testing.T, m *linkstore.Manager) {
		m.Initialize(alice, "store")

		callers := []linkstore.Caller{alice, bob, alice}
		for i, c := range callers {
			link := fmt.Sprintf("https://example.com/%d.gif", i)
			if err := m.Append(c, "store", link); err != nil {
				t.Fatalf("append %d: %v", i, err)
			}
			s, err := m.Load("store")
			if err != nil {
				t.Fatal(err)
			}
			if s.Count != uint64(i+1) {
				t.Fatalf("count = %d after %d appends", s.Count, i+1)
			}
		}

		s, _ := m.Load("store")
		for i, r := range s.All() {
			if want := fmt.Sprintf("https://example.com/%d.gif", i); r.Link != want {
				t.Errorf("record %d link = %q, want %q", i, r.Link, want)
			}
			if r.Submitter != callers[i].ID {
				t.Errorf("record %d submitter = %s, want %s", i, r.Submitter, callers[i].ID)
			}
		}
	})
}

// Appends are not restricted to the region owner.
func TestAppendByNonOwner(t *testing.T) {
	eachHost(t, func(t *testing.T, m *linkstore.Manager) {
		m.Initialize(alice, "store")
		if err := m.Append(bob, "store", "https://example.com/b.gif"); err != nil {
			t.Fatalf("Append by non-owner: %v", err)
		}
		s, _ := m.Load("store")
		if s.Records[0].Submitter != bob.ID {
			t.Error("record does not name the caller")
		}
	})
}

func TestAppendHardStop(t *testing.T) {
	eachHost(t, func(t *testing.T, m *linkstore.Manager) {
		m.Initialize(alice, "store")
		link := strings.Repeat("x", linkstore.MaxURLLen)
		for i := range linkstore.MaxItems {
			if err := m.Append(bob, "store", link); err != nil {
				t.Fatalf("append %d: %v", i+1, err)
			}
		}
		before := raw(t, m.Host(), "store")

		err := m.Append(bob, "store", "https://example.com/41.gif")
		if !errors.Is(err, linkstore.ErrStoreFull) {
			t.Fatalf("append 41: got %v, want ErrStoreFull", err)
		}
		if string(raw(t, m.Host(), "store")) != string(before) {
			t.Error("rejected append modified the region")
		}
		s, _ := m.Load("store")
		if s.Count != linkstore.MaxItems {
			t.Errorf("count = %d, want %d", s.Count, linkstore.MaxItems)
		}
	})
}

func TestAppendLinkLength(t *testing.T) {
	eachHost(t, func(t *testing.T, m *linkstore.Manager) {
		m.Initialize(alice, "store")

		exact := strings.Repeat("a", linkstore.MaxURLLen)
		if err := m.Append(alice, "store", exact); err != nil {
			t.Fatalf("link of exactly %d bytes: %v", linkstore.MaxURLLen, err)
		}
		before := raw(t, m.Host(), "store")

		err := m.Append(alice, "store", exact+"a")
		if !errors.Is(err, linkstore.ErrLinkTooLong) {
			t.Fatalf("got %v, want ErrLinkTooLong", err)
		}
		if string(raw(t, m.Host(), "store")) != string(before) {
			t.Error("rejected append modified the region")
		}

		if err := m.Append(alice, "store", "https://example.com/\xff"); !errors.Is(err, linkstore.ErrInvalidLink) {
			t.Errorf("got %v, want ErrInvalidLink", err)
		}
		if err := m.Append(alice, "store", ""); err != nil {
			t.Errorf("empty link: %v", err)
		}
	})
}

// Length is checked before the host is consulted, so an oversize link on
// an uninitialized location reports the length problem.
func TestAppendLinkCheckedFirst(t *testing.T) {
	eachHost(t, func(t *testing.T, m *linkstore.Manager) {
		err := m.Append(alice, "missing", strings.Repeat("a", linkstore.MaxURLLen+1))
		if !errors.Is(err, linkstore.ErrLinkTooLong) {
			t.Errorf("got %v, want ErrLinkTooLong", err)
		}
	})
}

func TestAppendNotInitialized(t *testing.T) {
	eachHost(t, func(t *testing.T, m *linkstore.Manager) {
		err := m.Append(alice, "missing", "https://example.com/a.gif")
		if !errors.Is(err, linkstore.ErrNotInitialized) {
			t.Errorf("Append: got %v, want ErrNotInitialized", err)
		}
		if _, err := m.Load("missing"); !errors.Is(err, linkstore.ErrNotInitialized) {
			t.Errorf("Load: got %v, want ErrNotInitialized", err)
		}
	})
}

// A region allocated by the host but never written by Initialize reads as
// not initialized.
func TestAppendZeroRegion(t *testing.T) {
	eachHost(t, func(t *testing.T, m *linkstore.Manager) {
		if err := m.Host().Create("blank", alice.ID, linkstore.RegionSize, nil); err != nil {
			t.Fatal(err)
		}
		err := m.Append(alice, "blank", "https://example.com/a.gif")
		if !errors.Is(err, linkstore.ErrNotInitialized) {
			t.Errorf("got %v, want ErrNotInitialized", err)
		}
	})
}

func TestLoadIdempotent(t *testing.T) {
	eachHost(t, func(t *testing.T, m *linkstore.Manager) {
		m.Initialize(alice, "store")
		m.Append(bob, "store", "https://example.com/a.gif")

		before := raw(t, m.Host(), "store")
		first, err := m.Load("store")
		if err != nil {
			t.Fatal(err)
		}
		second, err := m.Load("store")
		if err != nil {
			t.Fatal(err)
		}
		if !first.Equal(second) {
			t.Error("two loads disagree")
		}
		if string(raw(t, m.Host(), "store")) != string(before) {
			t.Error("Load modified the region")
		}

		// The loaded store is a copy.
		first.Records[0].Link = "changed"
		again, _ := m.Load("store")
		if again.Records[0].Link != "https://example.com/a.gif" {
			t.Error("changing a loaded store changed the region")
		}
	})
}

func TestStoresIndependent(t *testing.T) {
	eachHost(t, func(t *testing.T, m *linkstore.Manager) {
		m.Initialize(alice, "one")
		m.Initialize(bob, "two")
		m.Append(alice, "one", "https://example.com/1.gif")

		two, err := m.Load("two")
		if err != nil {
			t.Fatal(err)
		}
		if two.Count != 0 {
			t.Errorf("append to one changed two: count %d", two.Count)
		}
	})
}

// A manager configured with a different hash algorithm sees stores written
// under another as foreign.
func TestAlgorithmMismatch(t *testing.T) {
	h := linkstore.NewMemHost()
	m1, _ := linkstore.NewManager(h, linkstore.Config{HashAlgorithm: linkstore.AlgXXHash3})
	m2, _ := linkstore.NewManager(h, linkstore.Config{HashAlgorithm: linkstore.AlgBlake2b})

	if err := m1.Initialize(alice, "store"); err != nil {
		t.Fatal(err)
	}
	if _, err := m2.Load("store"); !errors.Is(err, linkstore.ErrBadDiscriminator) {
		t.Errorf("got %v, want ErrBadDiscriminator", err)
	}
}

func TestNewManagerBadAlgorithm(t *testing.T) {
	_, err := linkstore.NewManager(linkstore.NewMemHost(), linkstore.Config{HashAlgorithm: 7})
	if err == nil {
		t.Error("NewManager accepted an unknown algorithm")
	}
}

func TestInvalidLocation(t *testing.T) {
	eachHost(t, func(t *testing.T, m *linkstore.Manager) {
		for _, loc := range []string{"", ".hidden", "a/b", "../x", strings.Repeat("a", linkstore.MaxLocationSize+1)} {
			err := m.Initialize(alice, loc)
			if !errors.Is(err, linkstore.ErrInvalidLocation) {
				t.Errorf("Initialize(%q): got %v, want ErrInvalidLocation", loc, err)
			}
		}
	})
}
