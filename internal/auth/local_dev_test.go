package auth

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDevInterceptorInjectsConfiguredUser(t *testing.T) {
	var got *UserClaims
	next := connect.UnaryFunc(func(ctx context.Context, _ connect.AnyRequest) (connect.AnyResponse, error) {
		got, _ = GetUserClaims(ctx)
		return nil, nil
	})

	_, err := LocalDevInterceptor("dev-42")(next)(context.Background(), connect.NewRequest(&struct{}{}))
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "dev-42", got.UID)
	assert.Equal(t, "dev-42@localhost", got.Email)
	assert.True(t, got.Verified)
}
