// Package chat implements the conversational pipeline: intent routing, the
// tool-orchestration loop, judgment parsing and context window management.
package chat

import (
	"fmt"
	"strings"

	"github.com/ternarybob/wayfarer/internal/services/tools"
)

// Routing sentinels the intent model may emit. Anything else is treated as a
// direct conversational reply.
const (
	SentinelNeedTools        = "NEED_TOOLS"
	SentinelItineraryUpdate  = "ITINERARY_UPDATE"
	SentinelItineraryAnalyze = "ITINERARY_ANALYZE"
)

// toolCatalog describes each tool for the prompt. The knowledge entry is
// appended only when the index is queryable, so the model never routes to a
// tool that cannot answer.
var toolCatalog = []struct {
	name        string
	description string
}{
	{tools.ToolWeather, `get_weather(city) - live weather forecast for a city. "city" falls back to the assistant's home city when omitted.`},
	{tools.ToolSearchPOI, `search_poi(keywords, city) - search places of interest by keyword, optionally limited to a city. "keywords" is required.`},
	{tools.ToolNearby, `search_nearby(location, keywords, types, radius) - search around a coordinate. "location" is a "longitude,latitude" pair and is required; "keywords" is required; "types" must be present (may be empty); "radius" defaults to 1000 meters.`},
	{tools.ToolDistance, `measure_distance(origins, destination, type) - distance between coordinates. "type" is "0" straight-line, "1" driving (default), "3" walking.`},
}

const knowledgeCatalogEntry = `query_knowledge(query) - search the curated travel knowledge base. "query" is required.`

// buildToolList renders the numbered tool list for prompts
func buildToolList(knowledgeAvailable bool) string {
	var sb strings.Builder
	for i, tool := range toolCatalog {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, tool.description)
	}
	if knowledgeAvailable {
		fmt.Fprintf(&sb, "%d. %s\n", len(toolCatalog)+1, knowledgeCatalogEntry)
	}
	return sb.String()
}

// buildIntentPrompt produces the routing system prompt. The model must reply
// with exactly one sentinel, or answer the user directly.
func buildIntentPrompt(city string, knowledgeAvailable bool) string {
	return fmt.Sprintf(`You are a friendly travel assistant based in %s. Decide how to handle the user's latest message.

The following tools are available to you:
%s
Respond with EXACTLY ONE of the following:
- "%s" if answering requires calling any of the tools above (live weather, place search, distances, knowledge base lookups).
- "%s" if the user wants to create or change their travel itinerary.
- "%s" if the user wants feasibility analysis of their existing itinerary.
- Otherwise, answer the user directly in a warm conversational tone. Do not mention the tools or these routing keywords.`,
		city, buildToolList(knowledgeAvailable),
		SentinelNeedTools, SentinelItineraryUpdate, SentinelItineraryAnalyze)
}

// buildReasoningPrompt produces the judgment system prompt used after each
// tool round. The reply grammar is parsed by ParseJudgment.
func buildReasoningPrompt(city string, knowledgeAvailable bool) string {
	return fmt.Sprintf(`You are the planning module of a travel assistant based in %s. Review the conversation and any tool results gathered so far, then decide whether they are sufficient to answer the user's request.

The following tools are available:
%s
Respond in EXACTLY this format:
SUFFICIENT: true or false
REASON: one short sentence explaining your judgment
NEXT_INSTRUCTION: a JSON array of tool calls to run next, ONLY when SUFFICIENT is false. Each call is {"name": "<tool>", "parameters": {...}}. Issue one call per step.

Never repeat a tool call that already appears in the gathered results.`,
		city, buildToolList(knowledgeAvailable))
}

// buildAnswerPrompt produces the final-response system prompt. Tool results
// already sit in the conversation context as system messages.
func buildAnswerPrompt(city string) string {
	return fmt.Sprintf(`You are a friendly and knowledgeable travel assistant based in %s. Answer the user's request using the conversation and the tool results provided in the context.

Guidelines:
- Ground every factual claim (weather, places, distances, opening hours) in the tool results; never invent data.
- Preserve any HTML photo blocks from the tool results exactly as given.
- When a tool result contains source citations, keep them at the end of your answer.
- Be concise, warm and practical. Use markdown for structure when it helps.`, city)
}
