// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package recommend

import "fmt"

// Prompt templates. Each one fixes the mixture ratio of stable
// (context-aligned) versus fresh (deliberately divergent) items for
// its use case, mandates the output language and required fields, and
// forbids markdown. The ratio is instruction-only: the engine does not
// verify compliance post hoc.

const quotePromptTemplate = `Recommend %d POWERFUL and AUTHENTIC quotes exclusively from EXISTING %sS (Literature, Philosophy, History).

CRITICAL RULES:
1. NO PROVERBS, NO GENERAL SAYINGS, NO ANONYMOUS ADAGES.
2. EVERY quote MUST have a SPECIFIC and REAL TITLE and a KNOWN AUTHOR.
3. MIXTURE RATIO (Crucial):
   - 4 out of 6 quotes: Must STICK to the User's Interest/Context (STABLE).
   - 2 out of 6 quotes: Must be from TOTALLY DIFFERENT genres or authors (FRESH/EXPLORATORY) to prevent boredom.
4. AVOID cliché or overly common sayings. Seek for deep, artistic sentences.

User's Interest/Context:
%s
Only Korean.

Response in valid JSON format LIST of objects:
- content: The quote text (in Korean).
- source_title: The title of the work (in Korean).
- author: The author or character who said it (in Korean).
- source_type: "%s"
- tags: A list of 1-3 keywords.

Just the raw JSON list.`

const relatedPromptTemplate = `You are a creative muse. The user is reading this quote:
"%s"

Recommend %d NEW and DISTINCT quotes derived EXCLUSIVELY from REAL BOOKS or WORKS.

MIXTURE RULES (For 3 recommendations):
- 2 quotes: High relevance to the current quote's theme/mood (STABLE).
- 1 quote: A fresh perspective or a contrasting but interesting genre (FRESH).

Each recommendation MUST include a verified Book Title and Author.
Target Language: Korean.

Response in valid JSON format LIST:
- content: The quote text (in Korean).
- source_title: The title of the work (in Korean).
- author: The author or character (in Korean).
- source_type: "book"
- tags: A list of 1-3 keywords.`

const dailyPromptTemplate = `Recommend a famous and inspiring quote from a %s for today (%s).
The quote must be suitable for a general audience and widely recognized.

Please provide the response in valid JSON format with the following keys:
- content: The quote text (in Korean).
- source_title: The title of the %s (in Korean).
- author: The author or character who said it (in Korean).
- source_type: "%s"
- tags: A list of 1-3 keywords relevant to the quote (in Korean).

Do not include markdown formatting. Just the raw JSON string.`

const bookPromptTemplate = `You are a smart AI book curator. Recommend %d books based on the user's interests.
IMPORTANT: Provide UNIQUE, FRESH, and VARIED recommendations. Avoid repeating the same bestsellers.

MIXTURE RATIO (Crucial for 5 recommendations):
- 3 out of 5 books: Must STICK to the User's Interest/Context (STABLE).
- 2 out of 5 books: Must be from TOTALLY DIFFERENT genres or authors (FRESH/EXPLORATORY) to prevent boredom.

For each book, provide:
- "title": Exact Korean book title (한글 제목)
- "author": Author name (저자명)
- "reason": Short explanation why this book is interesting/recommended.

User's Interest Context:
%s

Output ONLY raw JSON (no markdown, no explanation):
[
    {
        "title": "책 제목",
        "author": "저자명",
        "reason": "추천 이유"
    },
    ...
]`

const defaultUserContext = "General audience"

// quotePrompt asks for a pool of poolSize quotes on topic, 4:2 stable
// to fresh.
func quotePrompt(poolSize int, userContext string, topic Topic) string {
	if userContext == "" {
		userContext = defaultUserContext
	}
	return fmt.Sprintf(quotePromptTemplate, poolSize, topicNoun(topic), userContext, topic)
}

// relatedPrompt asks for count quotes chained off content, 2:1 stable
// to fresh.
func relatedPrompt(content string, count int) string {
	return fmt.Sprintf(relatedPromptTemplate, content, count)
}

// dailyPrompt asks for a single widely recognized quote for the day.
func dailyPrompt(topic Topic, day string) string {
	noun := topicNoun(topic)
	return fmt.Sprintf(dailyPromptTemplate, noun, day, noun, topic)
}

// bookPrompt asks for count whole-work suggestions, 3:2 stable to
// fresh.
func bookPrompt(count int, userContext string) string {
	if userContext == "" {
		userContext = "신규 사용자입니다. 명작을 추천해주세요."
	}
	return fmt.Sprintf(bookPromptTemplate, count, userContext)
}

func topicNoun(topic Topic) string {
	switch topic {
	case TopicMovie:
		return "MOVIE"
	case TopicDrama:
		return "DRAMA"
	default:
		return "BOOK"
	}
}
