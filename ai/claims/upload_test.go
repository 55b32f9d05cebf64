package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyUpload(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		text     string
		wantSlot Artifact
		wantKind UploadKind
	}{
		{"claim form by text", "/u/a.pdf", "here is my claim form", ArtifactClaimForm, UploadSlot},
		{"damage photo by text", "/u/b.jpeg", "this is the damage photo", ArtifactDamageImage, UploadSlot},
		{"police report by text", "/u/c.pdf", "Attaching the POLICE REPORT", ArtifactPoliceReport, UploadSlot},
		{"police beats claim", "/u/c.pdf", "police report for my claim", ArtifactPoliceReport, UploadSlot},
		{"scanned claim form image", "/u/scan.png", "this is the form", ArtifactClaimForm, UploadSlot},
		{"document defaults to claim form", "/u/report.pdf", "", ArtifactClaimForm, UploadSlot},
		{"image without hint is ambiguous", "/u/img.webp", "see attached", "", UploadAmbiguous},
		{"unknown extension", "/u/data.zip", "", "", UploadUnknown},
		{"fir needs a whole word", "/u/first.png", "my first upload", "", UploadAmbiguous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, kind := ClassifyUpload(tt.file, tt.text)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantSlot, slot)
		})
	}
}

func TestIsSkip(t *testing.T) {
	for _, text := range []string{"skip, no police report", "I don't have one", "Proceed without it", "none"} {
		assert.True(t, IsSkip(text), text)
	}
	for _, text := range []string{"here is the police report", "ok"} {
		assert.False(t, IsSkip(text), text)
	}
}
