package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonwraymond/toolverse/domain"
)

// Op names the operation a prompt is built for.
type Op string

const (
	OpFindTools       Op = "find_tools"
	OpToolDetails     Op = "tool_details"
	OpCompare         Op = "compare_tools"
	OpNewsDiscovery   Op = "news_discovery"
	OpNewsStructuring Op = "news_structuring"
)

// DirectoryName is how the model is told to refer to the directory.
const DirectoryName = "Toolkitverse"

// MaxSearchResults caps the number of tools a search asks for.
const MaxSearchResults = 8

// NewsStories is the number of stories the discovery phase asks for.
const NewsStories = 5

// NewsWindowDays is how far back the discovery phase looks.
const NewsWindowDays = 7

const jsonOnly = "CRITICAL: Your final output must be ONLY a single, valid JSON value that conforms to the specified schema. Do not include any other text, explanations, or markdown formatting."

var templates = map[Op]string{
	OpFindTools: `You are an expert AI tool researcher for a software directory called %[1]s.
A user is searching the directory with the query: %[2]s

Use Google Search to find the most relevant, real-world software or AI tools that match this query.
Return a list of up to %[3]d of the most relevant tools.

` + jsonOnly,

	OpToolDetails: `You are a software and AI tool analyst. Your task is to provide a detailed, structured, and objective overview of a publicly known tool.

CRITICAL INSTRUCTION: If you cannot find any information about a real, publicly known tool with the name %[1]s, you MUST respond with a valid JSON object that fits the requested schema, but with the "description" field set to the exact string "%[2]s". Do NOT invent or hallucinate information for a tool that does not exist. For all other fields, provide empty arrays or empty strings.

If the tool is real, generate the full analysis for: %[1]s.`,

	OpCompare: `You are a software analyst. Create a detailed side-by-side comparison of two tools: %[1]s and %[2]s. Provide a balanced and objective view.

In the output, "tool1" always refers to %[1]s and "tool2" always refers to %[2]s.`,

	OpNewsDiscovery: `You are a tech news reporter. Use Google Search to write a report on the top %[1]d most significant news stories in AI and technology from the last %[2]d days. For each story, please include a headline, the publication date, and a one-paragraph summary.`,

	OpNewsStructuring: `You are a data structuring assistant. You will be given a block of text containing news reports and a separate list of GENUINE URLs. Your task is to match each news report from the text to its correct URL from the list and format the result as a JSON array.

CRITICAL MANDATE: You MUST use the exact URL from the provided "Genuine URL List". The 'url' field in the JSON MUST be identical to a URL from this list. Do not invent or modify URLs. Use each URL at most once, and leave out any report that has no matching URL. Infer the source name from the URL's domain (e.g., 'theverge.com' becomes 'The Verge').

News Report Text:
---
%[1]s
---

Genuine URL List:
---
%[2]s
---`,
}

// quote wraps a user-supplied string in double quotes without escaping it.
func quote(s string) string {
	return `"` + s + `"`
}

// FindTools builds the directory search prompt for query.
func FindTools(query string) string {
	return fmt.Sprintf(templates[OpFindTools], DirectoryName, quote(query), MaxSearchResults)
}

// ToolDetails builds the analysis prompt for one tool, including the
// not-found fallback instruction.
func ToolDetails(name string) string {
	return fmt.Sprintf(templates[OpToolDetails], quote(name), domain.NotFoundSentinel)
}

// Compare builds the side-by-side comparison prompt for a and b, in that
// order.
func Compare(a, b string) string {
	return fmt.Sprintf(templates[OpCompare], quote(a), quote(b))
}

// NewsDiscovery builds the grounded free-text prompt of the first news phase.
func NewsDiscovery() string {
	return fmt.Sprintf(templates[OpNewsDiscovery], NewsStories, NewsWindowDays)
}

// NewsStructuring builds the second news phase: restructure report into
// articles whose URLs are drawn verbatim from urls.
func NewsStructuring(report string, urls []string) string {
	if urls == nil {
		urls = []string{}
	}
	var list bytes.Buffer
	enc := json.NewEncoder(&list)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(urls); err != nil {
		list.Reset()
		list.WriteString("[]")
	}
	return fmt.Sprintf(templates[OpNewsStructuring], strings.TrimSpace(report), strings.TrimSpace(list.String()))
}
