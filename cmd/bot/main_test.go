package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJanitorInterval(t *testing.T) {
	assert.Equal(t, time.Duration(0), janitorInterval(0))
	assert.Equal(t, time.Minute, janitorInterval(5*time.Minute))
	assert.Equal(t, 144*time.Minute, janitorInterval(24*time.Hour))
}
