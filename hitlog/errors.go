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

package hitlog

import "fmt"

// LineParsingError informs that we failed to parse a line as a standard
// access log record. This may or may not mean the line is actually broken.
// Web server logs regularly contain noise (partial writes, foreign log
// formats mixed in) and the processing must tolerate such lines without
// aborting. The error is typed so that callers can distinguish a rejected
// line from other failures.
type LineParsingError struct {
	LineNumber int64
	Message    string
}

func (m LineParsingError) Error() string {
	return fmt.Sprintf("%s: LineParsingError at line %d", m.Message, m.LineNumber)
}

// NewLineParsingError is a constructor for LineParsingError
func NewLineParsingError(lineNumber int64, message string) LineParsingError {
	return LineParsingError{LineNumber: lineNumber, Message: message}
}
