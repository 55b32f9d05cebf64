package claims

import (
	"strings"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/internal/strutil"
)

var claimFormHints = []string{
	"claim form", "claim document", "insurance form", "my claim",
	"here is my claim", "here is the claim", "claim file",
	"the form", "my form", "insurance claim form",
	"uploaded the form", "uploading the form", "this is the form",
	"attached the form", "attaching the form",
	"application form", "claim application",
}

var damagePhotoHints = []string{
	"damage photo", "damage image", "damaged car", "car photo",
	"car image", "vehicle damage", "damage picture", "the damage",
	"here is the damage", "photo of the damage", "photo of damage",
	"picture of the car", "picture of damage", "accident photo",
	"here is the photo", "uploading the photo", "attached the photo",
	"car damage", "vehicle photo",
}

var policeReportHints = []string{
	"police report", "police filing", "fir", "fir report",
	"incident report", "accident report", "police document",
	"here is the police", "the police report", "my police report",
	"filed a police report", "attached the police", "uploading the police",
	"law enforcement report", "officer report",
}

var skipPoliceHints = []string{
	"skip", "no police report", "don't have", "do not have",
	"no report", "wasn't filed", "was not filed", "none",
	"i don't have", "i do not have", "not available",
	"no fir", "skip police", "proceed without",
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// MatchHint finds the slot named by the message text. Police report hints
// are checked first, then claim form, then damage photo.
func MatchHint(text string) (Artifact, bool) {
	q := normalize(text)
	switch {
	case strutil.ContainsAnyPhrase(q, policeReportHints):
		return ArtifactPoliceReport, true
	case strutil.ContainsAnyPhrase(q, claimFormHints):
		return ArtifactClaimForm, true
	case strutil.ContainsAnyPhrase(q, damagePhotoHints):
		return ArtifactDamageImage, true
	}
	return "", false
}

// IsSkip reports whether the message declines the police report.
func IsSkip(text string) bool {
	return strutil.ContainsAnyPhrase(normalize(text), skipPoliceHints)
}

// UploadKind is the outcome of classifying one upload.
type UploadKind int

const (
	// UploadUnknown is a file the flow cannot use (neither document nor image).
	UploadUnknown UploadKind = iota
	// UploadSlot means the upload belongs in a known slot.
	UploadSlot
	// UploadAmbiguous is an image sent without text naming its role.
	UploadAmbiguous
)

// ClassifyUpload decides which slot filePath fills. The message text wins;
// otherwise a document is taken to be the claim form and an image is ambiguous.
func ClassifyUpload(filePath, text string) (Artifact, UploadKind) {
	if slot, ok := MatchHint(text); ok {
		return slot, UploadSlot
	}
	switch {
	case agents.IsDocument(filePath):
		return ArtifactClaimForm, UploadSlot
	case agents.IsImage(filePath):
		return "", UploadAmbiguous
	default:
		return "", UploadUnknown
	}
}
