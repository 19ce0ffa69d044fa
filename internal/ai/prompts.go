package ai

import "fmt"

const maxWordsPerSection = 200

const systemPrompt = "You are an AI news curator specializing in providing concise, accurate updates on artificial intelligence developments. Focus on recent news from the past week."

// Per-topic prompts tuned to pull out concrete names and numbers rather than
// generic commentary.
var topicPrompts = map[string]string{
	"LLMs released this week":            "What are the most significant large language model releases, updates, or announcements from the past week? Include specific model names, capabilities, and companies involved. Keep response under %d words.",
	"Coding tools and IDEs":              "What are the latest updates, new features, or releases in coding tools, IDEs, and developer environments from the past week? Include specific tool names and new capabilities. Keep response under %d words.",
	"Agentic AI systems":                 "What are the recent developments in autonomous AI agents and agentic AI systems from the past week? Include new frameworks, platforms, or significant implementations. Keep response under %d words.",
	"AI tools for business workflows":    "What are the newest AI tools and platforms for business automation and productivity released or updated this week? Include specific tools and their business applications. Keep response under %d words.",
	"AI tools for personal productivity": "What are the latest AI-powered personal productivity tools, apps, and features released this week? Include specific tools and their capabilities. Keep response under %d words.",
	"Computer vision and image AI":       "What are the recent developments in computer vision, image generation, and visual AI from the past week? Include new models, tools, or significant research. Keep response under %d words.",
	"Natural language processing":        "What are the latest advancements in natural language processing, text analysis, and language AI from the past week? Include new techniques, tools, or applications. Keep response under %d words.",
	"AI research papers":                 "What are the most important AI research papers published or highlighted this week? Include paper titles, key findings, and institutions involved. Keep response under %d words.",
	"AI startup news":                    "What are the significant AI startup funding announcements, launches, or major developments from the past week? Include company names, funding amounts, and what they're building. Keep response under %d words.",
	"AI ethics and regulation":           "What are the latest developments in AI ethics, governance, policy, and regulation from the past week? Include specific policies, guidelines, or regulatory actions. Keep response under %d words.",
}

func promptFor(topic string, maxWords int) string {
	if p, ok := topicPrompts[topic]; ok {
		return fmt.Sprintf(p, maxWords)
	}
	return fmt.Sprintf("Provide the latest news and updates about %s from the past week in under %d words.", topic, maxWords)
}
