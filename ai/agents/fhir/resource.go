package fhir

import (
	"encoding/json"
	"regexp"
)

var jsonBlock = regexp.MustCompile("(?s)```json\\s*\\n(.*?)```")

// Resource is a decoded FHIR resource.
type Resource map[string]any

// Type returns the resourceType, or "Resource" when missing.
func (r Resource) Type() string {
	if t, ok := r["resourceType"].(string); ok && t != "" {
		return t
	}
	return "Resource"
}

func (r Resource) bundleType() string {
	t, _ := r["type"].(string)
	if t == "" {
		return "unknown"
	}
	return t
}

func (r Resource) entries() []any {
	e, _ := r["entry"].([]any)
	return e
}

// withoutID copies r minus its client-side id so the server assigns one.
func (r Resource) withoutID() Resource {
	out := make(Resource, len(r))
	for k, v := range r {
		if k != "id" {
			out[k] = v
		}
	}
	return out
}

// ExtractResources decodes every ```json block of text that holds an object
// with a resourceType. Malformed blocks are skipped.
func ExtractResources(text string) []Resource {
	var out []Resource
	for _, m := range jsonBlock.FindAllStringSubmatch(text, -1) {
		var r Resource
		if err := json.Unmarshal([]byte(m[1]), &r); err != nil {
			continue
		}
		if _, ok := r["resourceType"]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Flatten returns the entry resources of a Bundle, or the resource itself.
func Flatten(r Resource) []Resource {
	if r.Type() != "Bundle" {
		return []Resource{r}
	}
	var out []Resource
	for _, e := range r.entries() {
		entry, _ := e.(map[string]any)
		res, _ := entry["resource"].(map[string]any)
		if _, ok := res["resourceType"]; ok {
			out = append(out, Resource(res))
		}
	}
	if len(out) == 0 {
		return []Resource{r}
	}
	return out
}

var postable = map[string]bool{
	"Patient": true, "Observation": true, "Condition": true, "Encounter": true,
	"MedicationRequest": true, "MedicationStatement": true, "Procedure": true,
	"AllergyIntolerance": true, "DiagnosticReport": true, "Immunization": true,
	"CarePlan": true, "ServiceRequest": true, "Coverage": true, "Composition": true,
	"DocumentReference": true, "Organization": true, "Practitioner": true,
	"PractitionerRole": true, "Location": true, "Device": true, "Specimen": true,
	"ExplanationOfBenefit": true, "Claim": true, "ClaimResponse": true,
}

// Postable reports whether resources of type t are validated and created one by one.
func Postable(t string) bool {
	return postable[t]
}
