package util

import (
	"testing"
	"time"

	"smart_edu_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *model.User {
	u := &model.User{
		Name:  "测试教师",
		Email: "teacher@example.com",
		Role:  model.Teacher,
	}
	u.ID = 42
	return u
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(testUser(), "test-secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, model.Teacher, claims.Role)
	assert.Equal(t, "teacher@example.com", claims.Email)
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT(testUser(), "test-secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "another-secret")
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT(testUser(), "test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, "test-secret")
	assert.Error(t, err)
}
