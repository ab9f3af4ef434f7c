// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error with cause",
			err:  NewProtocolError("no state", errors.New("missing query parameter")),
			want: "protocol: no state: missing query parameter",
		},
		{
			name: "error without cause",
			err:  NewConfigurationError("client_id is required", nil),
			want: "configuration: client_id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewStoreError("failed to read state", cause)

	assert.Same(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, NewInternalError("boom", nil).Unwrap())
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"configuration", NewConfigurationError("x", nil), IsConfiguration, true},
		{"protocol", NewProtocolError("x", nil), IsProtocol, true},
		{"identity", NewIdentityResolutionError("x", nil), IsIdentityResolution, true},
		{"store", NewStoreError("x", nil), IsStore, true},
		{"internal", NewInternalError("x", nil), IsInternal, true},
		{"wrapped protocol", fmt.Errorf("callback: %w", NewProtocolError("x", nil)), IsProtocol, true},
		{"mismatched type", NewStoreError("x", nil), IsProtocol, false},
		{"plain error", errors.New("x"), IsStore, false},
		{"nil", nil, IsInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestTypeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ErrIdentityResolution, TypeOf(fmt.Errorf("wrap: %w", NewIdentityResolutionError("x", nil))))
	assert.Empty(t, TypeOf(errors.New("plain")))
}
