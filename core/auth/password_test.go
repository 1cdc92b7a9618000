package auth

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	ph, err := HashPassword("s3cret", "pepper")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if ph.Hash == "" || ph.Salt == "" {
		t.Fatalf("empty hash material: %+v", ph)
	}
	if !VerifyPassword("s3cret", "pepper", ph.Salt, ph.Hash) {
		t.Fatalf("correct password rejected")
	}
	if VerifyPassword("wrong", "pepper", ph.Salt, ph.Hash) {
		t.Fatalf("wrong password accepted")
	}
	if VerifyPassword("s3cret", "other-pepper", ph.Salt, ph.Hash) {
		t.Fatalf("wrong pepper accepted")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	a := MustHashPassword("same", "pepper")
	b := MustHashPassword("same", "pepper")
	if a.Salt == b.Salt || a.Hash == b.Hash {
		t.Fatalf("two hashes of the same password share material")
	}
}
