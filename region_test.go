// Region codec tests.
//
// The codec is the only code that knows the byte layout, so these tests
// pin the layout itself (via a golden file) and then attack decode with
// the damage a region can suffer: wrong size, missing or foreign
// discriminator, count and list length disagreeing, oversized link
// prefixes, and links that are not UTF-8.
package linkstore

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

var testTag = Discriminator{'l', 'n', 'k', 's', 't', 'o', 'r', 'e'}

// sampleStore returns a store with three records, the last with an empty
// link and a repeated submitter.
func sampleStore(t *testing.T) *Store {
	t.Helper()
	alice := CallerFromName("alice").ID
	bob := CallerFromName("bob").ID
	s := newStore()
	for _, r := range []Record{
		{Link: "https://example.com/a.gif", Submitter: alice},
		{Link: "https://example.com/b.gif", Submitter: bob},
		{Link: "", Submitter: alice},
	} {
		if err := s.append(r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return s
}

// hexLines renders b as 32-byte hex lines for golden comparison.
func hexLines(b []byte) []byte {
	h := hex.EncodeToString(b)
	var out strings.Builder
	for i := 0; i < len(h); i += 64 {
		end := min(i+64, len(h))
		out.WriteString(h[i:end])
		out.WriteByte('\n')
	}
	return []byte(out.String())
}

func TestEncodeLayoutGolden(t *testing.T) {
	s := sampleStore(t)
	region := make([]byte, RegionSize)
	if err := encodeStore(region, testTag, s); err != nil {
		t.Fatalf("encode: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "region_layout", hexLines(region[:s.Size()]))

	for i, b := range region[s.Size():] {
		if b != 0 {
			t.Fatalf("byte %d past the last record = %#x, want zero fill", s.Size()+i, b)
		}
	}
}

func TestEncodeDecodeEmpty(t *testing.T) {
	region := make([]byte, RegionSize)
	if err := encodeStore(region, testTag, newStore()); err != nil {
		t.Fatalf("encode: %v", err)
	}

	if got := binary.LittleEndian.Uint64(region[countOff:]); got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
	if got := binary.LittleEndian.Uint32(region[listLenOff:]); got != 0 {
		t.Errorf("list length = %d, want 0", got)
	}

	s, err := decodeStore(region, testTag)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Count != 0 || len(s.Records) != 0 {
		t.Errorf("decoded %d/%d, want empty", s.Count, len(s.Records))
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := sampleStore(t)
	region := make([]byte, RegionSize)
	if err := encodeStore(region, testTag, want); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeStore(region, testTag)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("decoded %+v, want %+v", got, want)
	}
}

// A completely full store with maximum-length links is the worst case the
// region was sized for and must use every byte.
func TestEncodeFullStoreFillsRegion(t *testing.T) {
	s := newStore()
	link := strings.Repeat("x", MaxURLLen)
	for i := range MaxItems {
		if err := s.append(Record{Link: link, Submitter: CallerFromName(string(rune('a' + i))).ID}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if s.Size() != RegionSize {
		t.Fatalf("Size = %d, want %d", s.Size(), RegionSize)
	}

	region := make([]byte, RegionSize)
	if err := encodeStore(region, testTag, s); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeStore(region, testTag)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Equal(s) {
		t.Error("full store did not round trip")
	}
}

func TestEncodeWrongRegionSize(t *testing.T) {
	for _, n := range []int{0, RegionSize - 1, RegionSize + 1} {
		err := encodeStore(make([]byte, n), testTag, newStore())
		if !errors.Is(err, ErrRegionSize) {
			t.Errorf("len %d: got %v, want ErrRegionSize", n, err)
		}
	}
}

// encodeStore must not write anything when it rejects a store.
func TestEncodeRejectLeavesRegion(t *testing.T) {
	region := make([]byte, RegionSize)
	if err := encodeStore(region, testTag, sampleStore(t)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	before := append([]byte(nil), region...)

	bad := sampleStore(t)
	bad.Count = 7
	if err := encodeStore(region, testTag, bad); !errors.Is(err, ErrCorruptRegion) {
		t.Fatalf("got %v, want ErrCorruptRegion", err)
	}

	bad = sampleStore(t)
	bad.Records[1].Link = strings.Repeat("y", MaxURLLen+1)
	if err := encodeStore(region, testTag, bad); !errors.Is(err, ErrLinkTooLong) {
		t.Fatalf("got %v, want ErrLinkTooLong", err)
	}

	if string(region) != string(before) {
		t.Error("rejected encode modified the region")
	}
}

func TestDecodeUninitialized(t *testing.T) {
	_, err := decodeStore(make([]byte, RegionSize), testTag)
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("got %v, want ErrNotInitialized", err)
	}
}

func TestDecodeForeignDiscriminator(t *testing.T) {
	region := make([]byte, RegionSize)
	encodeStore(region, testTag, newStore())

	other := Discriminator{1, 2, 3, 4, 5, 6, 7, 8}
	_, err := decodeStore(region, other)
	if !errors.Is(err, ErrBadDiscriminator) {
		t.Errorf("got %v, want ErrBadDiscriminator", err)
	}
}

func TestDecodeCorruption(t *testing.T) {
	// firstLinkLen is the offset of the first record's link length prefix
	const firstLinkLen = recordsOff

	tests := []struct {
		name   string
		damage func(region []byte)
		want   error
	}{
		{
			name: "count disagrees with list length",
			damage: func(r []byte) {
				binary.LittleEndian.PutUint64(r[countOff:], 2)
			},
			want: ErrCorruptRegion,
		},
		{
			name: "count beyond MaxItems",
			damage: func(r []byte) {
				binary.LittleEndian.PutUint64(r[countOff:], MaxItems+1)
				binary.LittleEndian.PutUint32(r[listLenOff:], MaxItems+1)
			},
			want: ErrCorruptRegion,
		},
		{
			name: "link length beyond MaxURLLen",
			damage: func(r []byte) {
				binary.LittleEndian.PutUint32(r[firstLinkLen:], MaxURLLen+1)
			},
			want: ErrCorruptRegion,
		},
		{
			name: "link is not UTF-8",
			damage: func(r []byte) {
				r[firstLinkLen+LinkLenBytes] = 0xff
			},
			want: ErrCorruptRegion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region := make([]byte, RegionSize)
			if err := encodeStore(region, testTag, sampleStore(t)); err != nil {
				t.Fatalf("encode: %v", err)
			}
			tt.damage(region)
			_, err := decodeStore(region, testTag)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeWrongRegionSize(t *testing.T) {
	_, err := decodeStore(make([]byte, RegionSize-1), testTag)
	if !errors.Is(err, ErrRegionSize) {
		t.Errorf("got %v, want ErrRegionSize", err)
	}
}
