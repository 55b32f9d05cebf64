package routing

import (
	"strings"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/internal/strutil"
)

// keywordRule maps a keyword set to the agent it selects.
type keywordRule struct {
	agent    string
	keywords []string
}

// keywordRules are evaluated in order; every rule with a hit contributes its agent.
var keywordRules = []keywordRule{
	{agents.NASA, []string{
		"nasa", "space", "apod", "mars", "rover", "asteroid", "nebula",
		"galaxy", "planet", "satellite", "spacecraft", "rocket", "astronomy",
		"cosmos", "near earth", "neo", "picture of the day", "hubble",
		"james webb", "jwst", "orbit", "comet", "meteor", "solar system",
		"moon landing", "iss", "international space station",
	}},
	{agents.Weather, []string{
		"weather", "temperature", "forecast", "rain", "snow", "sunny",
		"cloudy", "humidity", "wind speed", "uv index", "heat",
		"cold", "storm", "thunder", "hail", "fog", "climate",
		"feels like", "dew point", "barometer", "precipitation",
	}},
	{agents.Traffic, []string{
		"traffic", "route", "directions", "driving", "commute",
		"drive from", "how long to drive", "road", "highway",
		"travel time", "distance from", "eta", "navigation",
		"traffic from", "route from", "directions from",
	}},
	{agents.SQL, []string{
		"sql", "database", "northwind", "query", "table",
		"customers", "orders", "products", "employees", "suppliers",
		"categories", "shippers", "territories", "regions",
		"order details", "how many orders", "top selling",
		"total sales", "revenue", "most ordered", "least ordered",
		"employee list", "customer list", "product list",
		"average price", "total quantity", "inventory",
	}},
	{agents.Viz, []string{
		"chart", "graph", "plot", "visualize", "visualization",
		"bar chart", "pie chart", "bubble chart", "line chart",
		"histogram", "donut", "area chart", "scatter",
		"show me a chart", "draw a chart", "create a chart",
		"stacked bar", "grouped bar", "horizontal bar",
		"visualise", "diagram", "infographic",
	}},
	{agents.CICP, []string{
		"insurance claim", "car insurance", "claim form", "my claim",
		"file a claim", "damage photo", "damaged car", "car damage",
		"vehicle damage", "police report", "cicp",
	}},
	{agents.IDA, []string{
		"interior design", "room design", "redesign my room", "decorate",
		"furniture", "living room", "bedroom", "home decor", "ida",
	}},
	{agents.FHIR, []string{
		"fhir", "hl7", "clinical note", "patient record", "medical record",
		"discharge summary", "observation resource", "encounter",
	}},
	{agents.Banking, []string{
		"bank", "banking", "account balance", "loan", "mortgage",
		"credit card", "transaction", "overdraft", "interest rate", "deposit",
	}},
}

// ragHints route to rag only when no file is attached.
var ragHints = []string{
	"document", "uploaded", "search the file", "find in file",
	"my file", "the file", "the pdf", "the csv", "retrieve",
	"search index", "internal search", "knowledge base",
}

// normalize trims and case-folds a query.
func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// HasRAGPrefix reports whether the query forces the retrieval agent.
func HasRAGPrefix(query string) bool {
	q := normalize(query)
	return strings.HasPrefix(q, "rag ") || strings.HasPrefix(q, "rag:")
}

// FileSeed returns the agent implied by the attached file's extension, if any.
func FileSeed(filePath string) []string {
	switch {
	case filePath == "":
		return nil
	case agents.IsImage(filePath):
		return []string{agents.Multimodal}
	case agents.IsDocument(filePath):
		return []string{agents.RAG}
	default:
		return nil
	}
}

// KeywordFallback classifies deterministically. Callers use it when the
// semantic step returns an error.
func KeywordFallback(in Input) Result {
	if HasRAGPrefix(in.Query) {
		return Result{Agents: []string{agents.RAG}, Source: SourcePrefix}
	}

	q := normalize(in.Query)
	selected := FileSeed(in.FilePath)
	for _, rule := range keywordRules {
		if strutil.ContainsAnyPhrase(q, rule.keywords) {
			selected = append(selected, rule.agent)
		}
	}
	if in.FilePath == "" && strutil.ContainsAnyPhrase(q, ragHints) {
		selected = append(selected, agents.RAG)
	}
	if len(selected) == 0 {
		selected = append(selected, agents.Fallback)
	}
	return Result{Agents: dedupe(selected), Source: SourceKeyword}
}

// subsumes lists agents whose presence removes others from a selection.
var subsumes = map[string][]string{
	agents.CICP: {agents.Multimodal, agents.RAG},
	agents.IDA:  {agents.Multimodal},
}

// Finalize turns a candidate list into a dispatchable one: unknown names
// and duplicates are dropped (first occurrence wins), subsumed agents are
// removed, and an empty list becomes the fallback agent.
func Finalize(candidates []string) []string {
	known := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if agents.IsKnown(name) {
			known = append(known, name)
		}
	}
	known = dedupe(known)

	removed := make(map[string]bool)
	for _, name := range known {
		for _, victim := range subsumes[name] {
			removed[victim] = true
		}
	}

	out := make([]string, 0, len(known))
	for _, name := range known {
		if !removed[name] {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		out = append(out, agents.Fallback)
	}
	return out
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
