package tonaddr

import "testing"

func TestRawRoundTrip(t *testing.T) {
	const raw = "0:b87a4a0f644b7a186ee71a1454634f70c22a62aca1a6ba676b5175c21d7fd930"
	a, err := ParseRaw(raw)
	if err != nil {
		t.Fatalf("ParseRaw: %v", err)
	}
	if got := a.String(); got != raw {
		t.Fatalf("round trip mismatch: got %s want %s", got, raw)
	}
}

func TestHex0xRoundTrip(t *testing.T) {
	a, err := ParseRaw("0:b87a4a0f644b7a186ee71a1454634f70c22a62aca1a6ba676b5175c21d7fd930")
	if err != nil {
		t.Fatalf("ParseRaw: %v", err)
	}
	hexForm := a.Hex0x()
	b, err := ParseHex0x(hexForm)
	if err != nil {
		t.Fatalf("ParseHex0x: %v", err)
	}
	if a.Hash != b.Hash {
		t.Fatalf("hash mismatch after hex0x round trip")
	}
}

func TestUserFriendlyRoundTrip(t *testing.T) {
	a, err := ParseRaw("0:b87a4a0f644b7a186ee71a1454634f70c22a62aca1a6ba676b5175c21d7fd930")
	if err != nil {
		t.Fatalf("ParseRaw: %v", err)
	}
	uf := a.UserFriendly(true, false)
	b, err := ParseUserFriendly(uf)
	if err != nil {
		t.Fatalf("ParseUserFriendly(%q): %v", uf, err)
	}
	if a != b {
		t.Fatalf("round trip mismatch: got %+v want %+v", b, a)
	}
}

func TestParseDispatch(t *testing.T) {
	raw := "0:b87a4a0f644b7a186ee71a1454634f70c22a62aca1a6ba676b5175c21d7fd930"
	a, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse raw: %v", err)
	}
	uf := a.UserFriendly(true, false)
	b, err := Parse(uf)
	if err != nil {
		t.Fatalf("Parse user-friendly: %v", err)
	}
	if a != b {
		t.Fatalf("dispatch mismatch")
	}
	c, err := Parse(a.Hex0x())
	if err != nil {
		t.Fatalf("Parse hex0x: %v", err)
	}
	if a.Hash != c.Hash {
		t.Fatalf("hex0x dispatch mismatch")
	}
}

func TestParseUserFriendlyChecksumMismatch(t *testing.T) {
	a, _ := ParseRaw("0:b87a4a0f644b7a186ee71a1454634f70c22a62aca1a6ba676b5175c21d7fd930")
	uf := a.UserFriendly(true, false)
	corrupted := []byte(uf)
	if corrupted[0] == 'A' {
		corrupted[0] = 'B'
	} else {
		corrupted[0] = 'A'
	}
	if _, err := ParseUserFriendly(string(corrupted)); err == nil {
		t.Fatalf("expected checksum error")
	}
}
