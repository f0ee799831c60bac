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

package main

import (
	"fmt"

	"logglobe/config"
)

var helpTexts = map[string]string{
	config.ActionSnapshot: `Read a configured web access log from start to end and produce a JSON
snapshot with per-IP geolocated aggregates and a bounded tail of recent
hits. A proper JSON configuration file must be specified:

{
    "srcPath": "/var/log/nginx/access.log",
    "geoIpDbPath": "/usr/share/GeoIP/GeoLite2-City.mmdb",
    "outputPath": "./web/data.json",
    "timeZone": "Europe/Prague"
}

Optional sections: "mmdbLookupPath" (resolve locations via the
mmdblookup binary), "botDefsPath", "scriptPath", "burstDetection",
"s3", "emailNotification", "conomiNotification".
`,
	config.ActionVersion: `Show the program version and build information.`,
}

func help(topic string) {
	if topic == "" {
		fmt.Printf("Missing action to help with. Select one of the:\n\t%s, %s\n",
			config.ActionSnapshot, config.ActionVersion)
		return
	}
	fmt.Printf("\n[%s]\n\n", topic)
	text, ok := helpTexts[topic]
	if !ok {
		text = "- no information available -"
	}
	fmt.Println(text)
	fmt.Println()
}
