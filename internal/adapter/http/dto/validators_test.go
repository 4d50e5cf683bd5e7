package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterRequest{
		Username: "  alice  ",
		Email:    "  alice@example.com  ",
		Password: "  pass1234  ",
		Country:  " Vietnam ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "alice@example.com", req.Email)
	assert.Equal(t, "pass1234", req.Password)
	assert.Equal(t, "Vietnam", req.Country)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := RegisterRequest{
		Username: "bob",
		Country:  "X <script>alert('x')</script> Y",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Country, "&lt;script&gt;")
	assert.NotContains(t, req.Country, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	addr := "  0xAbCd1234  "
	req := WithdrawRequest{
		Amount:        5000,
		Method:        "CRYPTO",
		WalletAddress: &addr,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "0xAbCd1234", *req.WalletAddress)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := DepositRequest{
		Amount:    5000,
		Method:    "BANK_TRANSFER",
		Reference: nil,
	}
	SanitizeStruct(&req)
	assert.Nil(t, req.Reference)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"REF-001",
		"ABC_002",
		"a.b.c",
		"simple123",
		"K7PQ2XZ9",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"ref 001",     // space
		"ref<001>",    // angle brackets
		"ref;DROP",    // semicolon
		"",            // empty
		"hello world", // space
		"ref\n001",    // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestSanitizeStruct_DepositRequest(t *testing.T) {
	ref := "  bank slip <b>123</b>  "
	req := DepositRequest{
		Amount:    10000,
		Method:    " BANK_TRANSFER ",
		Reference: &ref,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "BANK_TRANSFER", req.Method)
	assert.Equal(t, "bank slip &lt;b&gt;123&lt;/b&gt;", *req.Reference)
}
