package abort

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNow_InvokesHook(t *testing.T) {
	orig := Hook
	defer func() { Hook = orig }()

	var gotReason string
	var gotErr error
	Hook = func(reason string, err error) {
		gotReason = reason
		gotErr = err
	}

	sentinel := errors.New("boom")
	Now("write failed", sentinel)

	assert.Equal(t, "write failed", gotReason)
	assert.Equal(t, sentinel, gotErr)
}
