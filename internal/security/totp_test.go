package security

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestGenerateTOTPSecret(t *testing.T) {
	t.Parallel()

	secret, otpURL, err := GenerateTOTPSecret("CivicLens", "admin-17")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if secret == "" {
		t.Fatal("empty secret")
	}
	if !strings.HasPrefix(otpURL, "otpauth://totp/") {
		t.Fatalf("unexpected url: %q", otpURL)
	}
	if !strings.Contains(otpURL, "CivicLens") {
		t.Fatalf("issuer missing from url: %q", otpURL)
	}
}

func TestValidateTOTP(t *testing.T) {
	t.Parallel()

	secret, _, err := GenerateTOTPSecret("CivicLens", "admin-17")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	now := time.Date(2026, time.February, 2, 8, 0, 0, 0, time.UTC)
	code, err := totp.GenerateCode(secret, now)
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	if !ValidateTOTP(secret, " "+code+" ", now) {
		t.Fatal("current code rejected")
	}
	// One period of skew is tolerated.
	if !ValidateTOTP(secret, code, now.Add(30*time.Second)) {
		t.Fatal("code within skew rejected")
	}
	if ValidateTOTP(secret, code, now.Add(5*time.Minute)) {
		t.Fatal("stale code accepted")
	}
	if ValidateTOTP(secret, "12345", now) {
		t.Fatal("five digit code accepted")
	}
	if ValidateTOTP(secret, "000000", now) && code != "000000" {
		t.Fatal("wrong code accepted")
	}
}

func TestMakeQRCodePNG(t *testing.T) {
	t.Parallel()

	png, err := MakeQRCodePNG("otpauth://totp/CivicLens:admin?secret=ABC", 0)
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatal("output is not a png")
	}
}
