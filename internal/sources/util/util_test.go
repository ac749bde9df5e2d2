package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "  ", want: ""},
		{name: "paragraphs do not fuse", in: "<p>Build APIs</p><p>in Go</p>", want: "Build APIs in Go"},
		{name: "list items", in: "<ul><li>Go</li><li>SQL</li></ul>", want: "Go SQL"},
		{name: "scripts dropped", in: "<div>Hello<script>alert(1)</script></div>", want: "Hello"},
		{name: "entities", in: "<p>R&amp;D&nbsp;team</p>", want: "R&D team"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToText(tt.in))
		})
	}
}

func TestEscapedHTMLToText(t *testing.T) {
	assert.Equal(t, "Senior role Remote", EscapedHTMLToText("&lt;p&gt;Senior role&lt;/p&gt;&lt;p&gt;Remote&lt;/p&gt;"))
}

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "Austin, TX", NormalizeLocation("Location:  Austin,  TX, austin"))
	assert.Equal(t, "", NormalizeLocation("  "))
}

func TestHostLimiterIsPerHost(t *testing.T) {
	hl := NewHostLimiter(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, hl.WaitURL(ctx, "https://a.example/x"))
	start := time.Now()
	require.NoError(t, hl.WaitURL(ctx, "https://b.example/y"))
	assert.Less(t, time.Since(start), 500*time.Millisecond, "other host has its own bucket")

	short, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	assert.Error(t, hl.WaitURL(short, "https://a.example/z"), "same host must wait")
}

func TestNilHostLimiter(t *testing.T) {
	var hl *HostLimiter
	assert.NoError(t, hl.WaitURL(context.Background(), "https://a.example"))
}
