package claims

const claimExtractionPrompt = `You are an insurance claim form analyst. Extract every relevant detail from the claim form and answer in this structure:

## Claim Summary
- **Claimant Name**:
- **Policy Number**:
- **Date of Incident**:
- **Date of Claim**:
- **Vehicle Make/Model/Year**:
- **Vehicle VIN**:
- **License Plate**:
- **Incident Description**:
- **Location of Incident**:
- **Estimated Damage Amount**:
- **Injuries Reported**:
- **Police Report Filed**:
- **Witnesses**:
- **Other Parties Involved**:
- **Additional Notes**:

Write "Not provided" for any field missing from the form.`

const policeExtractionPrompt = `You are an insurance claims analyst reviewing a police or incident report. Extract every relevant detail and answer in this structure:

## Police Report Summary
- **Report/Case Number**:
- **Filing Date**:
- **Reporting Officer**:
- **Incident Date & Time**:
- **Incident Location**:
- **Parties Involved**:
- **Vehicle(s) Involved**: (make, model, VIN, plate numbers)
- **Incident Description**:
- **Fault Determination**:
- **Witnesses Listed**:
- **Injuries Reported**:
- **Citations / Charges Filed**:
- **Report Conclusion / Officer's Notes**:

Write "Not provided" for any field missing from the report.`

const damageAssessmentPrompt = `You are an automotive damage assessor for an insurance company. Assess the damage in this photo:

## Damage Assessment
- **Damage Severity**: (Minor / Moderate / Severe / Total Loss)
- **Affected Areas**: every damaged part
- **Type of Damage**: (dent, scratch, crack, crush, shatter, ...)
- **Estimated Repair Complexity**: (simple repair / panel replacement / major structural / uneconomical to repair)
- **Visible Safety Concerns**: (airbag deployment, structural deformation, fluid leaks, ...)
- **Consistency Notes**: is the damage consistent with a typical collision? Any sign of pre-existing damage or tampering?
- **Estimated Repair Cost Range**: rough USD range

Be thorough and factual.`

const crossVerificationInstruction = `A police report has been provided. Before deciding you MUST cross-verify the claim form against the police report:

- **VIN**: must match EXACTLY. Any mismatch means automatic REJECTION as possible fraud.
- **Vehicle Make/Model/Year**: must be consistent.
- **License Plate Number**: must match when present in both.
- **Claimant Name vs. Parties Involved**: the claimant must appear in the report.
- **Incident Date & Time**: must be consistent.
- **Incident Location**: must be consistent.
- **Incident Description**: accounts should broadly agree; major contradictions are a red flag.
- **Injuries Reported**: should align.

⚠️ If the VIN on the claim form does NOT match the VIN on the police report, REJECT the claim and cite the VIN mismatch as the primary reason.

List every discrepancy in the Analysis section, even minor ones.`

const noPoliceReportInstruction = `⚠️ NO POLICE REPORT WAS PROVIDED. Treat this as a critical decision factor. Apply the policy rules about claims without a police report: many policies require one above a damage threshold or for theft, hit-and-run and multi-vehicle incidents. If the rules require a report for this claim, lean toward REJECTION or an approval conditional on the report being submitted.`

const decisionPrompt = `You are a senior insurance claims adjudicator. Using the claim form details, the damage assessment, the police report (if any) and the applicable policy rules, render a final decision.

%s

Answer in exactly this structure:

# 🚗 Car Insurance Claim — Decision Report

## 1. Claim Summary

## 2. Damage Assessment Summary

## 3. Police Report Summary
(Recap the police report, or state "No police report was provided" and explain what that means for this claim.)

## 4. Applicable Rules & Policy Provisions

## 5. Cross-Verification Results
(For each field compared between the claim form and the police report mark ✅ MATCH or ❌ MISMATCH. Write "N/A" without a police report.)

## 6. Analysis

## 7. Decision

**DECISION: ✅ APPROVED** or **DECISION: ❌ REJECTED**

**Reason**:

**Conditions / Next Steps**:

Be fair and cite specific rules where they apply.`
