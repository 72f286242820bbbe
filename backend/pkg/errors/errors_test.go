package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseError_Message(t *testing.T) {
	err := NewBaseError(ErrorTypeStore, "cannot read", nil)
	assert.Equal(t, "[store] cannot read", err.Error())

	wrapped := NewBaseError(ErrorTypeFetch, "relatives", fmt.Errorf("boom"))
	assert.Equal(t, "[fetch] relatives: boom", wrapped.Error())
}

func TestIsErrorType_WalksWrappedChain(t *testing.T) {
	conflict := NewConflictUnresolved("p1", "first_name", nil)
	err := fmt.Errorf("cache p1: %w", conflict)

	assert.True(t, IsErrorType(err, ErrorTypeMerge))
	assert.False(t, IsErrorType(err, ErrorTypeRender))

	var target *ErrConflictUnresolved
	assert.True(t, stderrors.As(err, &target))
	assert.Equal(t, "first_name", target.Field)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"fetch failure", NewFetchFailed("relatives", []string{"a"}, fmt.Errorf("503")), true},
		{"graph failure", NewGraphQueryFailed("save", fmt.Errorf("down")), true},
		{"cancelled", NewContextCancelled("crawl", fmt.Errorf("ctx")), false},
		{"date fault", NewDateFormatFault("1980-13-01"), false},
		{"plain", fmt.Errorf("plain"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestMalformedStoreLiteral_Entry(t *testing.T) {
	assert.Contains(t, NewMalformedStoreLiteral(3, "missing id", nil).Error(), "entry 3")
	assert.NotContains(t, NewMalformedStoreLiteral(-1, "bad yaml", nil).Error(), "entry")
}
