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

// Package scripting allows a user-provided Lua script to amend or drop
// enriched hits before they enter the aggregation. The script must
// define a global function
//
//	function transform(hit)
//	    ...
//	    return hit  -- or nil to drop the hit
//	end
//
// where `hit` is a table with the hit's attributes. This serves ad-hoc
// needs like hiding internal traffic or overriding a client category
// without rebuilding the binary.

package scripting

import (
	"fmt"

	"logglobe/common"
	"logglobe/hitlog"

	lua "github.com/yuin/gopher-lua"
)

// Transformer wraps a single Lua state with a loaded user script.
// It is bound to one processing run and must not be shared between
// goroutines (which the single-threaded pipeline never does anyway).
type Transformer struct {
	L *lua.LState
}

func importHit(L *lua.LState, hit *hitlog.Hit) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("ip", lua.LString(hit.IP))
	tbl.RawSetString("orig_ip", lua.LString(hit.OrigIP))
	tbl.RawSetString("ts", lua.LString(hit.Datetime))
	tbl.RawSetString("request", lua.LString(hit.Request))
	tbl.RawSetString("path", lua.LString(hit.Path))
	tbl.RawSetString("status", lua.LNumber(hit.Status))
	tbl.RawSetString("bytes", lua.LNumber(hit.Bytes))
	tbl.RawSetString("referer", lua.LString(hit.Referer))
	tbl.RawSetString("ua", lua.LString(hit.UserAgent))
	tbl.RawSetString("ua_type", lua.LString(hit.UAType))
	tbl.RawSetString("host", lua.LString(hit.Host))
	tbl.RawSetString("country_hint", lua.LString(hit.CountryHint))
	tbl.RawSetString("country", lua.LString(hit.Country))
	tbl.RawSetString("city", lua.LString(hit.City))
	if hit.Lat != nil && hit.Lon != nil {
		tbl.RawSetString("lat", lua.LNumber(*hit.Lat))
		tbl.RawSetString("lon", lua.LNumber(*hit.Lon))
	}
	return tbl
}

func exportString(tbl *lua.LTable, key string, target *string) {
	v := tbl.RawGetString(key)
	if v != lua.LNil {
		*target = lua.LVAsString(v)
	}
}

func exportInt(tbl *lua.LTable, key string, target *int) {
	if v, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		*target = int(v)
	}
}

func exportHit(tbl *lua.LTable, hit *hitlog.Hit) *hitlog.Hit {
	ans := *hit
	exportString(tbl, "ip", &ans.IP)
	exportString(tbl, "orig_ip", &ans.OrigIP)
	exportString(tbl, "ts", &ans.Datetime)
	exportString(tbl, "request", &ans.Request)
	exportString(tbl, "path", &ans.Path)
	exportString(tbl, "referer", &ans.Referer)
	exportString(tbl, "ua", &ans.UserAgent)
	exportString(tbl, "ua_type", &ans.UAType)
	exportString(tbl, "host", &ans.Host)
	exportString(tbl, "country_hint", &ans.CountryHint)
	exportString(tbl, "country", &ans.Country)
	exportString(tbl, "city", &ans.City)
	exportInt(tbl, "status", &ans.Status)
	exportInt(tbl, "bytes", &ans.Bytes)
	if lat, ok := tbl.RawGetString("lat").(lua.LNumber); ok {
		if lon, ok := tbl.RawGetString("lon").(lua.LNumber); ok {
			latV, lonV := float64(lat), float64(lon)
			ans.Lat = &latV
			ans.Lon = &lonV
		}
	}
	return &ans
}

// Transform applies the script's `transform` function to a hit.
// The returned bool is false in case the script decided to drop
// the hit. The input hit is never modified in place.
func (t *Transformer) Transform(hit *hitlog.Hit) (*hitlog.Hit, bool, error) {
	fnObj := t.L.GetGlobal("transform")
	if fnObj == lua.LNil {
		return nil, false, fmt.Errorf("failed to transform hit using a Lua script: missing `transform` function")
	}
	err := t.L.CallByParam(
		lua.P{
			Fn:      fnObj,
			NRet:    1,
			Protect: true,
		},
		importHit(t.L, hit),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to execute the transform() function: %w", err)
	}
	ret := t.L.Get(-1)
	t.L.Pop(1)
	if ret == lua.LNil {
		return nil, false, nil
	}
	tRet, ok := ret.(*lua.LTable)
	if !ok {
		return nil, false, fmt.Errorf("the transform() function must return a table or nil")
	}
	return exportHit(tRet, hit), true, nil
}

func (t *Transformer) Close() {
	if t.L != nil {
		t.L.Close()
	}
}

// NewTransformerFromSource creates a transformer with the script
// provided directly as a string.
func NewTransformerFromSource(src string) (*Transformer, error) {
	L := lua.NewState()
	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to load a Lua transform script: %w", err)
	}
	if L.GetGlobal("transform") == lua.LNil {
		L.Close()
		return nil, fmt.Errorf("the Lua script does not define a `transform` function")
	}
	return &Transformer{L: L}, nil
}

// NewTransformer loads a user script from a filesystem path or URL
// and validates that it defines the required `transform` function.
func NewTransformer(scriptPath string) (*Transformer, error) {
	src, err := common.LoadSupportedResource(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load a Lua transform script: %w", err)
	}
	return NewTransformerFromSource(string(src))
}
