package utils_test

import (
	"testing"

	"github.com/jrsteele09/launcher-auth/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestNonEmptyPtr(t *testing.T) {
	require.Nil(t, utils.NonEmptyPtr(""))
	require.Nil(t, utils.NonEmptyPtr(0))
	require.Equal(t, "x", *utils.NonEmptyPtr("x"))
	require.Equal(t, 3, *utils.NonEmptyPtr(3))
}
