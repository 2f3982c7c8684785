// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package langsvc

import (
	"fmt"
	"regexp"
	"strings"
)

// Nominal types are branded with a "_nominal_<Name>" property. Host
// messages about the missing brand are rewritten to name the nominal type.
var (
	missingBrandRe = regexp.MustCompile(`Property '_nominal_(.*)' is missing in type '(.*)' but required in type '(.*)'.`)
	missingPropsRe = regexp.MustCompile(`Type '(.*?)' is missing the following properties from type '(.*?)': (.*)`)
)

// ClarifyMessage rewrites a host message about a nominal type. The second
// result is false when the message is left unchanged.
func ClarifyMessage(msg string) (string, bool) {
	if m := missingBrandRe.FindStringSubmatch(msg); m != nil {
		return fmt.Sprintf("Type '%s' is not assignable to nominal type '%s'", m[2], m[1]), true
	}
	if m := missingPropsRe.FindStringSubmatch(msg); m != nil && strings.Contains(m[3], "_nominal_"+m[2]) {
		return fmt.Sprintf("Type '%s' is not assignable to nominal type '%s'", m[1], m[2]), true
	}
	return msg, false
}
