package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordService(t *testing.T) {
	svc := NewPasswordService(bcrypt.MinCost)

	hash, err := svc.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, svc.Verify(hash, "correct horse"))
	assert.False(t, svc.Verify(hash, "wrong horse"))
	assert.False(t, svc.Verify("not-a-hash", "correct horse"))
}

func TestPasswordService_DefaultCost(t *testing.T) {
	svc := NewPasswordService(0)

	hash, err := svc.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
