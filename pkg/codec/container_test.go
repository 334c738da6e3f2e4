package codec

import (
	"bytes"
	"errors"
	"testing"
)

// TestSealUnsealRoundTrip
func TestSealUnsealRoundTrip(t *testing.T) {
	doc := []byte(`{"nodes": [], "links": []}`)
	sealed := Seal(doc)
	if bytes.Equal(sealed, doc) {
		t.Error("Seal returned the payload unchanged")
	}
	got, err := Unseal(sealed)
	if err != nil {
		t.Fatalf("Unseal: %v", err)
	}
	if !bytes.Equal(got, doc) {
		t.Errorf("Unseal = %q, want %q", got, doc)
	}
}

// TestUnsealRejectsForeignBytes plain JSON is not a container
func TestUnsealRejectsForeignBytes(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		[]byte("{}"),
		[]byte("OPM"),
		[]byte("OPMX\x01rest"),
	} {
		if _, err := Unseal(data); !errors.Is(err, ErrBadContainer) {
			t.Errorf("Unseal(%q) = %v, want ErrBadContainer", data, err)
		}
	}
}

// TestUnsealRejectsCorruptBody a valid magic over a truncated body fails
func TestUnsealRejectsCorruptBody(t *testing.T) {
	sealed := Seal([]byte(`{"nodes": [], "links": []}`))
	truncated := sealed[:len(sealed)-3]
	if _, err := Unseal(truncated); !errors.Is(err, ErrBadContainer) {
		t.Errorf("Unseal(truncated) = %v, want ErrBadContainer", err)
	}
}
