package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "walrus-messaging-core/internal/errors"
)

func TestAlias(t *testing.T) {
	tests := []struct {
		name     string
		alias    string
		wantKind apperrors.Kind
		wantOK   bool
	}{
		{name: "valid", alias: "user_a1", wantOK: true},
		{name: "empty", alias: "", wantKind: apperrors.KindInvalidInput},
		{name: "too long", alias: strings.Repeat("a", 31), wantKind: apperrors.KindLimitExceeded},
		{name: "bad char", alias: "user-a", wantKind: apperrors.KindInvalidInput},
		{name: "unicode letter rejected", alias: "usér", wantKind: apperrors.KindInvalidInput},
		{name: "unicode digit rejected", alias: "user١٢٣", wantKind: apperrors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Alias(tt.alias)
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperrors.IsAppError(err)
			assert.True(t, ok)
			assert.Equal(t, tt.wantKind, appErr.Kind)
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.NoError(t, DisplayName("Origin User"))

	err := DisplayName("   ")
	appErr, ok := apperrors.IsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, apperrors.KindInvalidInput, appErr.Kind)

	err = DisplayName(strings.Repeat("x", 31))
	appErr, ok = apperrors.IsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, apperrors.KindLimitExceeded, appErr.Kind)
}

func TestPassword(t *testing.T) {
	assert.NoError(t, Password("longenough1"))

	_, ok := apperrors.IsAppError(Password("short1"))
	assert.True(t, ok)

	_, ok = apperrors.IsAppError(Password(strings.Repeat("a", 81)))
	assert.True(t, ok)
}

func TestPassword_NeverEchoesValueInError(t *testing.T) {
	err := Password("tooshrt")
	appErr, ok := apperrors.IsAppError(err)
	assert.True(t, ok)
	assert.NotContains(t, appErr.Error(), "tooshrt")
}

func TestMessageText(t *testing.T) {
	assert.NoError(t, MessageText("hello there"))

	_, ok := apperrors.IsAppError(MessageText("   "))
	assert.True(t, ok)

	_, ok = apperrors.IsAppError(MessageText(strings.Repeat("a", 4097)))
	assert.True(t, ok)
}
