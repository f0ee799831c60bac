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

// Package ctype classifies clients based on their User-Agent strings.
// The classification is intentionally coarse - the result serves as
// a label in a traffic overview, not as a browser fingerprint.

package ctype

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"

	"logglobe/common"

	"github.com/rs/zerolog/log"
)

const (
	DeviceBot     = "Bot"
	DeviceEdge    = "Edge"
	DeviceChrome  = "Chrome"
	DeviceSafari  = "Safari"
	DeviceFirefox = "Firefox"
	DeviceIE      = "IE"
	DeviceOther   = "Other"
)

// builtinBotTokens are always tested, even with no external bot
// definitions configured. Bots regularly spoof browser signatures
// which is why the bot test must run before any browser test.
var builtinBotTokens = []string{"bot", "crawl", "spider"}

// BotInfo is a single named bot definition. A user agent matches
// if it contains all the `Match` substrings.
type BotInfo struct {
	Title   string   `json:"title"`
	Match   []string `json:"match"`
	Example string   `json:"example"`
}

// BotDefs contains externally configured bot definitions plus a list
// of IP addresses whose requests should be ignored completely
// (typically internal watchdog services).
type BotDefs struct {
	Bots        []BotInfo `json:"bots"`
	IPBlacklist []string  `json:"ipBlacklist"`
}

func searchMatchingDef(ua string, defs []BotInfo) bool {
	for _, item := range defs {
		match := true
		for _, m := range item.Match {
			match = match && strings.Contains(ua, m)
			if !match {
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func importIPList(data []string) ([]net.IP, error) {
	ans := make([]net.IP, len(data))
	for i, ips := range data {
		ip := net.ParseIP(ips)
		if ip == nil {
			return ans, fmt.Errorf("cannot parse configured IP %s", ips)
		}
		ans[i] = ip
	}
	return ans, nil
}

// ClientTypeAnalyzer maps User-Agent strings to one of the Device*
// categories. The order of the tests matters: bots go first (they often
// contain browser tokens too) and Chrome must be tested before Safari
// because Chrome-based browsers advertise both signatures.
type ClientTypeAnalyzer struct {
	bots        []BotInfo
	ipBlacklist []net.IP
}

// AgentIsBot tests the user agent against the built-in crawler tokens
// and all the configured bot definitions.
func (cta *ClientTypeAnalyzer) AgentIsBot(ua string) bool {
	uaLower := strings.ToLower(ua)
	for _, tok := range builtinBotTokens {
		if strings.Contains(uaLower, tok) {
			return true
		}
	}
	return searchMatchingDef(uaLower, cta.bots)
}

// HasBlacklistedIP tests whether the address belongs to the configured
// ignore list.
func (cta *ClientTypeAnalyzer) HasBlacklistedIP(ip net.IP) bool {
	for _, item := range cta.ipBlacklist {
		if item.Equal(ip) {
			return true
		}
	}
	return false
}

// AnalyzeUserAgent returns a device category for the provided
// User-Agent string. The function is total - anything unrecognized
// ends up as DeviceOther.
func (cta *ClientTypeAnalyzer) AnalyzeUserAgent(ua string) string {
	uaLower := strings.ToLower(ua)
	switch {
	case cta.AgentIsBot(ua):
		return DeviceBot
	case strings.Contains(uaLower, "edg"):
		return DeviceEdge
	case strings.Contains(uaLower, "chrome"),
		strings.Contains(uaLower, "crios"),
		strings.Contains(uaLower, "chromium"):
		return DeviceChrome
	case strings.Contains(uaLower, "safari"):
		return DeviceSafari
	case strings.Contains(uaLower, "firefox"):
		return DeviceFirefox
	case strings.Contains(uaLower, "msie"), strings.Contains(uaLower, "trident"):
		return DeviceIE
	}
	return DeviceOther
}

// NewClientTypeAnalyzer creates an analyzer with optional external bot
// definitions. An empty defsPath is OK - the built-in crawler tokens
// still apply.
func NewClientTypeAnalyzer(defsPath string) (*ClientTypeAnalyzer, error) {
	defs := new(BotDefs)
	var listIP []net.IP

	if defsPath != "" {
		log.Info().Str("path", defsPath).Msg("using bot definitions from resource")
		rawData, err := common.LoadSupportedResource(defsPath)
		if err != nil {
			return nil, err
		}
		err = json.Unmarshal(rawData, defs)
		if err != nil {
			return nil, err
		}
		for i, mList := range defs.Bots {
			for j, m := range mList.Match {
				defs.Bots[i].Match[j] = strings.ToLower(m)
			}
		}
		listIP, err = importIPList(defs.IPBlacklist)
		if err != nil {
			return nil, err
		}
	}
	return &ClientTypeAnalyzer{
		bots:        defs.Bots,
		ipBlacklist: listIP,
	}, nil
}
