// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/styleai/pkg/pointer"
)

func TestNonEmpty(t *testing.T) {
	assert.Nil(t, pointer.NonEmpty(""))
	assert.Nil(t, pointer.NonEmpty("   "))
	assert.Equal(t, "hourglass", *pointer.NonEmpty(" hourglass "))
}

func TestVal(t *testing.T) {
	assert.Equal(t, 0.0, pointer.Val[float64](nil))
	assert.Equal(t, 42.5, pointer.Val(pointer.To(42.5)))
}
