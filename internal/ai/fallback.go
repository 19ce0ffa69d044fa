package ai

import "fmt"

// Canned section text used when the provider is unconfigured or a call fails.
// Deterministic per topic so repeated degraded passes produce identical output.
var fallbackTexts = map[string]string{
	"LLMs released this week":            "Stay tuned for the latest large language model releases. This week's updates will include new model announcements, capability improvements, and performance benchmarks from leading AI companies.",
	"Coding tools and IDEs":              "Discover the newest coding tools and IDE features that are enhancing developer productivity. From AI-powered code completion to advanced debugging tools, we'll cover the latest innovations in development environments.",
	"Agentic AI systems":                 "Explore the cutting-edge world of autonomous AI agents and agentic systems. Learn about new frameworks, platforms, and implementations that are pushing the boundaries of AI autonomy.",
	"AI tools for business workflows":    "Transform your business processes with the latest AI-powered automation tools. We'll highlight new platforms and solutions that are revolutionizing workplace productivity and efficiency.",
	"AI tools for personal productivity": "Boost your personal productivity with AI-powered assistants and tools. From smart scheduling to automated task management, discover the latest apps that can streamline your daily workflows.",
	"Computer vision and image AI":       "Dive into the latest advancements in computer vision and image AI. From breakthrough models to practical applications, we'll cover the innovations shaping visual AI technology.",
	"Natural language processing":        "Explore recent developments in natural language processing and text AI. Learn about new techniques, models, and applications that are advancing our understanding of human language.",
	"AI research papers":                 "Access summaries of the most impactful AI research papers. We'll break down complex findings from leading institutions and explain their potential real-world implications.",
	"AI startup news":                    "Get insights into the dynamic AI startup ecosystem. From funding announcements to product launches, stay informed about the companies building tomorrow's AI solutions.",
	"AI ethics and regulation":           "Stay informed about AI governance, ethics, and policy developments. Learn about new regulations, guidelines, and frameworks shaping the responsible development of AI technology.",
}

func fallbackFor(topic string) string {
	if t, ok := fallbackTexts[topic]; ok {
		return t
	}
	return fmt.Sprintf("Latest updates on %s will be available soon. Subscribe to stay informed about the most important developments in this area.", topic)
}
