package claims

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/agenthub/ai/core/llm/llmtest"
)

const (
	claimSummary   = "## Claim Summary\n- **Claimant Name**: Jane Doe\n- **Vehicle VIN**: 1HGCM82633A004352"
	damageSummary  = "## Damage Assessment\n- **Damage Severity**: Moderate"
	policeSummary  = "## Police Report Summary\n- **Vehicle(s) Involved**: VIN 1HGCM82633A004352"
	noReportReport = "# 🚗 Car Insurance Claim — Decision Report\n\n## 3. Police Report Summary\n" +
		"No police report was provided; the policy requires one for collisions above $1,000.\n\n" +
		"## 7. Decision\n\n**DECISION: ❌ REJECTED**"
	verifiedReport = "# 🚗 Car Insurance Claim — Decision Report\n\n## 5. Cross-Verification Results\n" +
		"- VIN: ✅ MATCH\n\n## 7. Decision\n\n**DECISION: ✅ APPROVED**"
)

// claimsLLM answers every prompt the pipeline sends.
func claimsLLM() *llmtest.MockLLM {
	return llmtest.NewMockLLM().
		On("NO POLICE REPORT WAS PROVIDED", noReportReport).
		On("MUST cross-verify", verifiedReport).
		On("CLAIM FORM CONTENT", claimSummary).
		On("scanned insurance claim form", claimSummary).
		On("POLICE REPORT CONTENT", policeSummary).
		On("automotive damage assessor", damageSummary)
}

// uploads writes a claim form, a damage photo and a police report to a temp dir.
type uploads struct {
	claimForm, damage, police, scan string
}

func writeUploads(t *testing.T) uploads {
	t.Helper()
	dir := t.TempDir()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	u := uploads{
		claimForm: filepath.Join(dir, "claim_form_1a2b3c4d.txt"),
		damage:    filepath.Join(dir, "damage_5e6f7a8b.jpg"),
		police:    filepath.Join(dir, "police_9c0d1e2f.md"),
		scan:      filepath.Join(dir, "scan_0a0b0c0d.png"),
	}
	require.NoError(t, os.WriteFile(u.claimForm, []byte("Claimant: Jane Doe\nVIN: 1HGCM82633A004352"), 0o600))
	require.NoError(t, os.WriteFile(u.damage, png, 0o600))
	require.NoError(t, os.WriteFile(u.police, []byte("Case 2024-117\nVIN 1HGCM82633A004352"), 0o600))
	require.NoError(t, os.WriteFile(u.scan, png, 0o600))
	return u
}
