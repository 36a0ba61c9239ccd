package library

import "strings"

// reservedAliases maps header names of renamed libraries to their directory.
var reservedAliases = map[string]string{
	"ArduinoRobot":           "Robot_Control",
	"ArduinoRobotMotorBoard": "Robot_Motor",
	"BlynkSimpleSerial":      "BlynkSimpleEthernet",
	"BlynkSimpleCC3000":      "BlynkSimpleEthernet",
}

// ParseReference returns the last "/"-separated segment of ref.
// A reference without a separator is returned unchanged.
func ParseReference(ref string) string {
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// ResolveAlias returns the directory name for a library filename. Only exact
// matches are rewritten.
func ResolveAlias(filename string) string {
	if canonical, ok := reservedAliases[filename]; ok {
		return canonical
	}
	return filename
}

// CanonicalName applies ParseReference then ResolveAlias.
func CanonicalName(ref string) string {
	return ResolveAlias(ParseReference(ref))
}

// Aliases returns a copy of the reserved alias table.
func Aliases() map[string]string {
	out := make(map[string]string, len(reservedAliases))
	for k, v := range reservedAliases {
		out[k] = v
	}
	return out
}
