package completion

import "fmt"

// Message is one entry of a chat completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const systemPrompt = `You are a guitar expert assistant. Search for guitar learning resources and answer in JSON only. Return EXACTLY ONE of each of the following:
1. The best rated Guitar Pro tab on Ultimate Guitar (a .gp5, .gpx or .gp file)
   - rated 4 stars or higher
   - rank by number of reviews
   - prefer official or verified tabs
2. The best standard tab on Ultimate Guitar
   - rated 4 stars or higher
   - rank by number of reviews, then by how recently it was updated
3. The best YouTube tutorial
   - rank by views, likes and teaching quality
   - prefer complete lessons from well-known teachers
Return direct URLs and the requested metadata only. For the Guitar Pro tab, link the tab file itself rather than a preview page. Never return more or fewer than one item of each type.`

const userPromptTemplate = `Find guitar learning resources for %q. Answer with this exact JSON shape, one item per array:
{
  "tabs": [{
    "difficulty": "beginner|intermediate|advanced",
    "rating": "0.0/5",
    "title": "exact tab title",
    "type": "tab",
    "url": "ultimate-guitar-url"
  }],
  "guitarproUrl": "direct-guitar-pro-url",
  "tutorials": [{
    "channelName": "YouTube channel name",
    "title": "exact video title",
    "url": "youtube-url",
    "viewCount": "view count with units (e.g., 211k views)"
  }]
}
Remember: exactly ONE tab, ONE Guitar Pro URL and ONE tutorial.`

// BuildMessages returns the system and user messages for a search phrase.
func BuildMessages(searchPhrase string) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userPromptTemplate, searchPhrase)},
	}
}
