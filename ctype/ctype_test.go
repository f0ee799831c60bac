// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ctype

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	uaChrome  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/76.0.3809.100 Safari/537.36"
	uaSafari  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15"
	uaEdge    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36 Edg/112.0.1722.48"
	uaFirefox = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/113.0"
	uaIE      = "Mozilla/5.0 (Windows NT 6.1; Trident/7.0; rv:11.0) like Gecko"
	uaGoogle  = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func newTestAnalyzer(t *testing.T) *ClientTypeAnalyzer {
	cta, err := NewClientTypeAnalyzer("")
	assert.NoError(t, err)
	return cta
}

func TestChromeBeforeSafari(t *testing.T) {
	cta := newTestAnalyzer(t)
	assert.Equal(t, DeviceChrome, cta.AnalyzeUserAgent(uaChrome))
}

func TestSafariWithoutChromeToken(t *testing.T) {
	cta := newTestAnalyzer(t)
	assert.Equal(t, DeviceSafari, cta.AnalyzeUserAgent(uaSafari))
}

// TestBotBeatsBrowserTokens tests that a crawler carrying browser
// signatures is still classified as a bot.
func TestBotBeatsBrowserTokens(t *testing.T) {
	cta := newTestAnalyzer(t)
	assert.Equal(t, DeviceBot, cta.AnalyzeUserAgent(uaGoogle))
}

func TestEdgeBeforeChrome(t *testing.T) {
	cta := newTestAnalyzer(t)
	assert.Equal(t, DeviceEdge, cta.AnalyzeUserAgent(uaEdge))
}

func TestFirefox(t *testing.T) {
	cta := newTestAnalyzer(t)
	assert.Equal(t, DeviceFirefox, cta.AnalyzeUserAgent(uaFirefox))
}

func TestTridentMeansIE(t *testing.T) {
	cta := newTestAnalyzer(t)
	assert.Equal(t, DeviceIE, cta.AnalyzeUserAgent(uaIE))
}

func TestUnknownAgentIsOther(t *testing.T) {
	cta := newTestAnalyzer(t)
	assert.Equal(t, DeviceOther, cta.AnalyzeUserAgent("curl/7.88.1"))
	assert.Equal(t, DeviceOther, cta.AnalyzeUserAgent("-"))
	assert.Equal(t, DeviceOther, cta.AnalyzeUserAgent(""))
}

func TestMatchingIsCaseInsensitive(t *testing.T) {
	cta := newTestAnalyzer(t)
	assert.Equal(t, DeviceBot, cta.AnalyzeUserAgent("SomeSpecial CRAWLER v1.0"))
}

func TestConfiguredBotDefs(t *testing.T) {
	cta := &ClientTypeAnalyzer{
		bots: []BotInfo{
			{Title: "seo tool", Match: []string{"seoscan", "v2"}},
		},
	}
	assert.Equal(t, DeviceBot, cta.AnalyzeUserAgent("Mozilla/5.0 SeoScan/v2"))
	// only a partial match of the definition
	assert.Equal(t, DeviceOther, cta.AnalyzeUserAgent("SeoScan/v1"))
}

func TestHasBlacklistedIP(t *testing.T) {
	cta := &ClientTypeAnalyzer{
		ipBlacklist: []net.IP{net.ParseIP("10.0.0.1")},
	}
	assert.True(t, cta.HasBlacklistedIP(net.ParseIP("10.0.0.1")))
	assert.False(t, cta.HasBlacklistedIP(net.ParseIP("10.0.0.2")))
	assert.False(t, cta.HasBlacklistedIP(nil))
}
