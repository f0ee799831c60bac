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

package geoip

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// lookupOutput mimics the text block mmdblookup prints for an IP
// present in a GeoLite2-City database.
var lookupOutput = []byte(`
  {
    "city":
      {
        "geoname_id":
          3067696 <uint32>
        "names":
          {
            "en":
              "Prague" <utf8_string>
          }
      }
    "country":
      {
        "geoname_id":
          3077311 <uint32>
        "iso_code":
          "CZ" <utf8_string>
        "names":
          {
            "en":
              "Czechia" <utf8_string>
          }
      }
    "location":
      {
        "latitude":
          50.088038 <double>
        "longitude":
          14.420760 <double>
      }
  }
`)

func TestParseLookupOutputFull(t *testing.T) {
	ans := parseLookupOutput(lookupOutput)
	assert.Equal(t, "CZ", ans.Country)
	assert.Equal(t, "Prague", ans.City)
	assert.Equal(t, 50.088038, *ans.Lat)
	assert.Equal(t, 14.420760, *ans.Lon)
}

func TestParseLookupOutputCountryOnly(t *testing.T) {
	blob := []byte(`
  {
    "country":
      {
        "iso_code":
          "US" <utf8_string>
      }
  }
`)
	ans := parseLookupOutput(blob)
	assert.Equal(t, "US", ans.Country)
	assert.Equal(t, "", ans.City)
	assert.Nil(t, ans.Lat)
	assert.Nil(t, ans.Lon)
}

// TestParseLookupOutputCoordinatesArePair tests that a missing
// longitude drops the latitude too.
func TestParseLookupOutputCoordinatesArePair(t *testing.T) {
	blob := []byte(`
  {
    "location":
      {
        "latitude":
          50.088038 <double>
      }
  }
`)
	ans := parseLookupOutput(blob)
	assert.Nil(t, ans.Lat)
	assert.Nil(t, ans.Lon)
}

func TestParseLookupOutputGarbage(t *testing.T) {
	ans := parseLookupOutput([]byte("Could not find an entry for this IP address"))
	assert.True(t, ans.IsEmpty())
}

func TestCmdResolverMissingDatabase(t *testing.T) {
	resolver := NewCmdResolver("mmdblookup", "/nonexistent/GeoLite2-City.mmdb", time.Second)
	ans := resolver.Resolve(context.Background(), "89.24.13.7")
	assert.True(t, ans.IsEmpty())
}

func TestDBResolverMissingDatabase(t *testing.T) {
	resolver := NewDBResolver("/nonexistent/GeoLite2-City.mmdb")
	defer resolver.Close()
	ans := resolver.Resolve(context.Background(), "89.24.13.7")
	assert.True(t, ans.IsEmpty())
}
