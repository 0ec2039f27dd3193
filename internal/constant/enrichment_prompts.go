package constant

// Prompt templates for the enrichment jobs. All of them instruct the model
// to answer with a single JSON object; the llmjson cascade handles the usual
// deviations (fences, trailing commas, unquoted keys).

const SemanticExtractionPrompt = `Analyze this visited web page and extract its semantic profile.

URL: %s
Title: %s
Selected text: %s

Respond with a single JSON object:
{"concepts": ["..."], "entities": ["..."], "primary_action": "...", "content_type": "article|docs|video|shop|forum|other", "sentiment": "positive|neutral|negative"}`

const IntentMatchingPrompt = `A user visited a new page. Decide which of their current research intents it belongs to, if any.

Page:
  title: %s
  url: %s
  concepts: %s

Current intents:
%s

Respond with a single JSON object:
{"intent_id": "<id or empty string for a new intent>", "confidence": 0.0, "label_hint": "<short label if a new intent is needed>"}`

const IntentLabelPrompt = `Propose a short human-readable label for a browsing research session.

Top keywords: %s
Domains: %s
Sample page titles:
%s

Respond with a single JSON object:
{"label": "...", "goal": "...", "confidence": 0.0}`

const IntentSummaryPrompt = `Summarize what the user has learned and done in this research session.

Label: %s
Goal: %s
Pages (title - url):
%s

Respond with a single JSON object:
{"summary": "..."}`

const IntentInsightsPrompt = `Derive practical insights and next steps from this research session.

Label: %s
Summary: %s
Top keywords: %s

Respond with a single JSON object:
{"insights": ["..."], "next_steps": ["..."]}`

const MilestoneCheckPrompt = `Given this research session, judge whether the user has likely completed their goal and what the next milestone would be.

Label: %s
Goal: %s
Summary: %s
Days since last activity: %d

Respond with a single JSON object:
{"completed": false, "next_milestone": "...", "confidence": 0.0}`

const MergeDecisionPrompt = `Two browsing intents look similar. Decide whether they are the same research topic and should be merged.

Intent A: label=%q keywords=%s domains=%s
Intent B: label=%q keywords=%s domains=%s
Concept overlap: %.0f%%  Shared domains: %d

Respond with a single JSON object:
{"merge": false, "confidence": 0.0, "reasoning": "..."}`
