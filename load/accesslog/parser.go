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

package accesslog

import (
	"strconv"
	"strings"

	"logglobe/hitlog"
)

// numPositional is the number of leading whitespace-delimited fields
// (with quoted/bracketed values merged) before the key=value tail starts.
const numPositional = 9

func testOpenQuot(c byte) byte {
	switch c {
	case '"':
		return '"'
	case '[':
		return ']'
	default:
		return 0
	}
}

func isCloseQuot(c byte) bool {
	return c == '"' || c == ']'
}

// ParsedAccessLog represents a single parsed line of the proxied
// access log format. Values are kept as logged except for Status
// and Bytes (converted to int) and Referrer (the `-` placeholder
// is translated to an empty string).
type ParsedAccessLog struct {
	IPAddress     string
	Username      string
	Datetime      string
	Request       string
	Status        int
	Bytes         int
	Referrer      string
	UserAgent     string
	ProxyIP       string
	XForwardedFor string
	VirtualHost   string
	ServerName    string
	CountryHint   string
	CacheStatus   string
}

// RequestPath extracts the path component of the logged request line
// (its second whitespace-delimited token). For a malformed request
// line without a second token, the whole request line is returned.
func (p *ParsedAccessLog) RequestPath() string {
	items := strings.Split(p.Request, " ")
	if len(items) > 1 {
		return items[1]
	}
	return p.Request
}

// LineParser is a parser for the proxied access log format with
// a key=value tail (cf-ip, xfwd, host, sn, cf-country, cache).
type LineParser struct{}

// tokenize splits a line into the fixed positional fields (quoted and
// bracketed values are merged into single tokens) and a raw tail of the
// remaining tokens. An unterminated quote or bracket, as well as a line
// with too few fields, yields an error.
func (lp *LineParser) tokenize(s string, lineNum int64) ([]string, []string, error) {
	items := make([]string, numPositional)
	tail := make([]string, 0, 8)
	currQuoted := make([]string, 0, 30)
	var currQuotChar byte
	parsedPos := 0
	for _, item := range strings.Split(s, " ") {
		if len(item) == 0 {
			continue
		}
		if parsedPos >= numPositional {
			tail = append(tail, item)
			continue
		}
		if currQuotChar == 0 {
			closeChar := testOpenQuot(item[0])
			if closeChar != 0 && len(item) > 1 && item[len(item)-1] == closeChar {
				items[parsedPos] = item[1 : len(item)-1]
				parsedPos++

			} else if closeChar != 0 {
				currQuoted = append(currQuoted, item[1:])
				currQuotChar = item[0]

			} else {
				items[parsedPos] = item
				parsedPos++
			}

		} else {
			if isCloseQuot(item[len(item)-1]) {
				currQuoted = append(currQuoted, item[:len(item)-1])
				items[parsedPos] = strings.Join(currQuoted, " ")
				currQuotChar = 0
				parsedPos++
				currQuoted = make([]string, 0, 30)

			} else if !isCloseQuot(item[0]) {
				currQuoted = append(currQuoted, item)
			}
		}
	}
	if currQuotChar != 0 {
		return nil, nil, hitlog.NewLineParsingError(lineNum, "unterminated quoted value")
	}
	if parsedPos < numPositional {
		return nil, nil, hitlog.NewLineParsingError(lineNum, "not enough fields")
	}
	return items, tail, nil
}

// parseTail extracts values of the fixed-order key=value tokens
// following the common access log fields. The xfwd value may contain
// spaces (a comma separated proxy chain) and is accumulated up to the
// host= token. A missing key rejects the line; extra trailing tokens
// after cache= are ignored.
func (lp *LineParser) parseTail(ans *ParsedAccessLog, tail []string, lineNum int64) error {
	i := 0
	next := func(key string) (string, bool) {
		if i < len(tail) && strings.HasPrefix(tail[i], key+"=") {
			v := tail[i][len(key)+1:]
			i++
			return v, true
		}
		return "", false
	}
	var ok bool
	ans.ProxyIP, ok = next("cf-ip")
	if !ok {
		return hitlog.NewLineParsingError(lineNum, "missing cf-ip token")
	}
	xfwd, ok := next("xfwd")
	if !ok {
		return hitlog.NewLineParsingError(lineNum, "missing xfwd token")
	}
	xfwdParts := []string{xfwd}
	for i < len(tail) && !strings.HasPrefix(tail[i], "host=") {
		xfwdParts = append(xfwdParts, tail[i])
		i++
	}
	ans.XForwardedFor = strings.Join(xfwdParts, " ")
	ans.VirtualHost, ok = next("host")
	if !ok {
		return hitlog.NewLineParsingError(lineNum, "missing host token")
	}
	ans.ServerName, ok = next("sn")
	if !ok {
		return hitlog.NewLineParsingError(lineNum, "missing sn token")
	}
	ans.CountryHint, ok = next("cf-country")
	if !ok {
		return hitlog.NewLineParsingError(lineNum, "missing cf-country token")
	}
	ans.CacheStatus, ok = next("cache")
	if !ok {
		return hitlog.NewLineParsingError(lineNum, "missing cache token")
	}
	return nil
}

// ParseLine parses a proxied access log line
// data example:
//   0) 89.24.13.7
//   1) -
//   2) -
//   3) [10/May/2024:07:51:42 +0200]
//   4) "GET /hanzi/data/chars.json HTTP/2.0"
//   5) 200
//   6) 18344
//   7) "https://example.org/hanzi/"
//   8) "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/76.0 Safari/537.36"
//   9) cf-ip=89.24.13.7 xfwd=89.24.13.7 host=example.org sn=example.org cf-country=CZ cache=HIT
//
// A line not matching the format produces hitlog.LineParsingError.
func (lp *LineParser) ParseLine(s string, lineNum int64) (*ParsedAccessLog, error) {
	tokens, tail, err := lp.tokenize(s, lineNum)
	if err != nil {
		return nil, err
	}
	ans := &ParsedAccessLog{}
	ans.IPAddress = tokens[0]
	ans.Username = tokens[2]
	ans.Datetime = tokens[3]
	ans.Request = tokens[4]
	ans.Status, err = strconv.Atoi(tokens[5])
	if err != nil || ans.Status < 0 {
		return nil, hitlog.NewLineParsingError(lineNum, "invalid status value "+tokens[5])
	}
	ans.Bytes, err = strconv.Atoi(tokens[6])
	if err != nil || ans.Bytes < 0 {
		return nil, hitlog.NewLineParsingError(lineNum, "invalid bytes value "+tokens[6])
	}
	if tokens[7] != "-" {
		ans.Referrer = tokens[7]
	}
	ans.UserAgent = tokens[8]
	if err := lp.parseTail(ans, tail, lineNum); err != nil {
		return nil, err
	}
	return ans, nil
}
