package enums

import "strings"

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

type RightCode string

const (
	RightDueProcess     RightCode = "DUE_PROCESS"
	RightFreeSpeech     RightCode = "FREE_SPEECH"
	RightEqualTreatment RightCode = "EQUAL_TREATMENT"
	RightPrivacy        RightCode = "PRIVACY"
	RightAssembly       RightCode = "ASSEMBLY"
	RightRecording      RightCode = "RECORDING"
	RightAccessRecords  RightCode = "ACCESS_RECORDS"
)

var RightCodes = []RightCode{
	RightDueProcess,
	RightFreeSpeech,
	RightEqualTreatment,
	RightPrivacy,
	RightAssembly,
	RightRecording,
	RightAccessRecords,
}

func ParseRightCode(raw string) (RightCode, bool) {
	code := RightCode(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range RightCodes {
		if code == known {
			return known, true
		}
	}
	return "", false
}
