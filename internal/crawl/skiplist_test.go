package crawl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostSkipList(t *testing.T) {
	skip := newHostSkipList([]string{"linktr.ee", "instagram.com", "*.cdn.example", " ", ""})

	tests := []struct {
		host string
		want bool
	}{
		{host: "linktr.ee", want: true},
		{host: "www.linktr.ee", want: true},
		{host: "INSTAGRAM.com", want: true},
		{host: "img.cdn.example", want: true},
		{host: "cdn.example", want: true},
		{host: "notlinktr.ee", want: false},
		{host: "jane.example", want: false},
		{host: "", want: false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, skip.Skipped(tc.host), "host %q", tc.host)
	}
}

func TestHostSkipListNil(t *testing.T) {
	var skip *hostSkipList
	assert.False(t, skip.Skipped("linktr.ee"))
}
