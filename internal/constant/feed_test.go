package constant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFeedStreamSubject(t *testing.T) {
	assert.Equal(t, "market_feed.spot", GetFeedStreamSubject("spot"))
	assert.Equal(t, "market_feed.usdm_perp", GetFeedStreamSubject(" USDM.Perp "))
	assert.Equal(t, "market_feed.a_b_c", GetFeedStreamSubject("a*b>c"))
}

func TestGetFeedStatusKey(t *testing.T) {
	assert.Equal(t, "feed_status:perp", GetFeedStatusKey("perp"))
}
