package monitoring

import (
	"fmt"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { Logf = log.Printf })

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Logf("Webcam: %d frames", 10)
	assert.Equal(t, []string{"Webcam: 10 frames"}, got)

	SetLogger(nil)
	assert.NotPanics(t, func() { Logf("muted %s", "message") })
	assert.Len(t, got, 1)
}
