package claims

import (
	"fmt"
	"path/filepath"
)

const introMessage = "## 🚗 Car Insurance Claim Processing (CICP)\n\n" +
	"I can help you process a car insurance claim! To get started, I need **three files**:\n\n" +
	"1. 📄 **Claim Form**: the insurance claim form (PDF, DOCX, TXT, or a **scanned image** like JPG/PNG)\n" +
	"2. 📸 **Damaged Car Photo**: a photo of the vehicle damage (PNG, JPG, GIF, or WebP)\n" +
	"3. 🚔 **Police Report**: the police/incident report (PDF, DOCX, TXT, or scanned image)\n\n" +
	"Please **attach the claim form** using the 📎 clip icon, then send a message like *\"Here is my claim form\"*.\n\n" +
	"💡 **Tip:** Since files can be images, always tell me what you're uploading in your message!\n\n" +
	"Once I have all files, I will:\n" +
	"- Extract details from your claim form\n" +
	"- Assess the vehicle damage from the photo\n" +
	"- Review the police report\n" +
	"- Check applicable insurance rules\n" +
	"- Render a final **APPROVE** or **REJECT** decision"

func ambiguousUploadMessage(path string) string {
	return fmt.Sprintf("## 🚗 CICP — File Received: **%s**\n\n", filepath.Base(path)) +
		"I received an image file but I'm not sure what this is:\n\n" +
		"- 📄 A **scanned claim form**: reply with *\"This is my claim form\"*\n" +
		"- 📸 A **damaged car photo**: reply with *\"This is the damage photo\"*\n" +
		"- 🚔 A **police report**: reply with *\"This is the police report\"*\n\n" +
		"This helps me process your claim correctly!"
}

func claimFormReceivedMessage(path string) string {
	return "## 🚗 CICP — Claim Form Received ✅\n\n" +
		fmt.Sprintf("I've received your claim form: **%s**\n\n", filepath.Base(path)) +
		"Now please **attach a photo of the damaged vehicle** using the 📎 clip icon " +
		"and send a message like *\"Here is the damage photo\"*."
}

func damagePhotoReceivedMessage(path string) string {
	return "## 🚗 CICP — Damage Photo Received ✅\n\n" +
		fmt.Sprintf("I've received the damage photo: **%s**\n\n", filepath.Base(path)) +
		"Now please **attach the insurance claim form** (PDF, DOCX, TXT, or scanned image) " +
		"using the 📎 clip icon and send a message like *\"Here is my claim form\"*."
}

func policeReportRequestMessage(claimForm, damageImage string) string {
	return "## 🚗 CICP — Claim Form ✅ & Damage Photo ✅\n\n" +
		fmt.Sprintf("✅ Claim form: **%s**\n", filepath.Base(claimForm)) +
		fmt.Sprintf("✅ Damage photo: **%s**\n\n", filepath.Base(damageImage)) +
		"---\n\n" +
		"### 🚔 Police Report Required\n\n" +
		"A **police/incident report** is required for claim processing. " +
		"Please upload it using the 📎 clip icon and send a message like *\"Here is the police report\"*.\n\n" +
		"**If you do not have a police report**, reply with *\"No police report\"* or *\"Skip\"*. " +
		"I will still process your claim, but **the absence of a police report will be factored into " +
		"the decision per insurance policy rules** and may result in rejection."
}

func processingErrorMessage(err error) string {
	return "## ⚠️ CICP Processing Error\n\n" +
		fmt.Sprintf("An error occurred while processing your claim: **%v**\n\n", err) +
		"Please try again or contact support."
}
