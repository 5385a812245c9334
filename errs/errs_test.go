// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddIgnoresNil(t *testing.T) {
	var e Errs
	e.Add(nil)
	require.False(t, e.Errored())
	require.Nil(t, e.Err())
}

func TestSingleErrorPassesThroughUnwrapped(t *testing.T) {
	var e Errs
	want := errors.New("boom")
	e.Add(want)
	require.Equal(t, want, e.Err())
}

func TestMultipleErrorsCollapseToOne(t *testing.T) {
	var e Errs
	e.Add(errors.New("first"))
	e.Add(errors.New("second"))
	require.Equal(t, 2, e.Len())
	require.ErrorContains(t, e.Err(), "first")
	require.ErrorContains(t, e.Err(), "second")
}
