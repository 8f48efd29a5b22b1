package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcp-protocol/authorization"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestService_Namespace(t *testing.T) {
	svc := New()
	testCases := []struct {
		description string
		value       any
		expect      string
		expectErr   bool
	}{
		{description: "no token", expect: DefaultNamespace},
		{description: "email claim", value: signed(t, jwt.MapClaims{"email": "li@example.com", "sub": "u1"}), expect: "li@example.com"},
		{description: "preferred username", value: signed(t, jwt.MapClaims{"preferred_username": "wang", "sub": "u2"}), expect: "wang"},
		{description: "sub only", value: signed(t, jwt.MapClaims{"sub": "u3"}), expect: "u3"},
		{description: "token struct with bearer prefix", value: &authorization.Token{Token: "Bearer " + signed(t, jwt.MapClaims{"sub": "u4"})}, expect: "u4"},
		{description: "no identity claims", value: signed(t, jwt.MapClaims{"aud": "x"}), expect: DefaultNamespace},
		{description: "unparseable", value: "not-a-jwt", expect: DefaultNamespace},
		{description: "unsupported type", value: 42, expectErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			ctx := context.Background()
			if testCase.value != nil {
				ctx = context.WithValue(ctx, authorization.TokenKey, testCase.value)
			}
			ns, err := svc.Namespace(ctx)
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.expect, ns)
		})
	}
}

func TestService_NilReceiver(t *testing.T) {
	var svc *Service
	ns, err := svc.Namespace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultNamespace, ns)
}
