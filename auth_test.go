package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerifyPassword(t *testing.T) {
	hash := HashPassword("Sup3rSecret")
	parts := strings.Split(hash, "$")
	require.Len(t, parts, 2)
	assert.NotEmpty(t, parts[0])
	assert.NotEmpty(t, parts[1])

	assert.True(t, VerifyPassword("Sup3rSecret", hash))
	assert.False(t, VerifyPassword("sup3rsecret", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestHashPasswordSalted(t *testing.T) {
	// same password, fresh salt each time
	h1 := HashPassword("Sup3rSecret")
	h2 := HashPassword("Sup3rSecret")
	assert.NotEqual(t, h1, h2)
	assert.True(t, VerifyPassword("Sup3rSecret", h1))
	assert.True(t, VerifyPassword("Sup3rSecret", h2))
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, stored := range []string{"", "nodollar", "$", "a$", "$b", "a$b$c"} {
		assert.False(t, VerifyPassword("whatever", stored), "stored=%q", stored)
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	t.Run("accepts strong password", func(t *testing.T) {
		ok, reason := ValidatePasswordStrength("Passw0rd")
		assert.True(t, ok)
		assert.Equal(t, "password is valid", reason)
	})

	t.Run("reports every violation", func(t *testing.T) {
		ok, reason := ValidatePasswordStrength("abc")
		require.False(t, ok)
		assert.Contains(t, reason, "at least 6 characters")
		assert.Contains(t, reason, "uppercase")
		assert.Contains(t, reason, "digit")
		assert.NotContains(t, reason, "lowercase")
	})

	t.Run("length counts characters, not bytes", func(t *testing.T) {
		// five multibyte characters, well over six bytes
		ok, reason := ValidatePasswordStrength("Pä1ßö")
		require.False(t, ok)
		assert.Contains(t, reason, "at least 6 characters")

		ok, _ = ValidatePasswordStrength("Päßwör1")
		assert.True(t, ok)
	})

	t.Run("single violation", func(t *testing.T) {
		ok, reason := ValidatePasswordStrength("Password")
		require.False(t, ok)
		assert.Contains(t, reason, "digit")
		assert.NotContains(t, reason, ";")
	})
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"alice@example.com", "a@b.co", "first.last@sub.domain.org"}
	for _, e := range valid {
		assert.True(t, ValidateEmail(e), e)
	}
	invalid := []string{"", "plain", "@example.com", "alice@", "alice@nodot", "a@@b.com"}
	for _, e := range invalid {
		assert.False(t, ValidateEmail(e), e)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s := NewTokenService("test-secret")
	user := User{ID: 7, Username: "alice", Role: RoleCustomer}

	token, err := s.Issue(user)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, string(RoleCustomer), claims.Role)
}

func TestTokenTamperRejected(t *testing.T) {
	s := NewTokenService("test-secret")
	token, err := s.Issue(User{ID: 1, Username: "bob", Role: RoleCustomer})
	require.NoError(t, err)

	// flip a character in the payload segment
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = s.Verify(tampered)
	require.Error(t, err)
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 401, re.Status)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, err := NewTokenService("secret-one").Issue(User{ID: 1, Username: "bob", Role: RoleCustomer})
	require.NoError(t, err)

	_, err = NewTokenService("secret-two").Verify(token)
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	s := NewTokenService("test-secret")
	issued := time.Now()
	s.now = func() time.Time { return issued }

	token, err := s.Issue(User{ID: 3, Username: "carol", Role: RoleCustomer})
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(23 * time.Hour) }
	_, err = s.Verify(token)
	assert.NoError(t, err)

	s.now = func() time.Time { return issued.Add(25 * time.Hour) }
	_, err = s.Verify(token)
	assert.Error(t, err)
}

func TestBearerTokenHeader(t *testing.T) {
	r := newTestRequest(t, "GET", "/api/auth/me", nil)
	assert.Empty(t, bearerToken(r))

	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", bearerToken(r))

	r.Header.Set("Authorization", "bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", bearerToken(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, bearerToken(r))
}
