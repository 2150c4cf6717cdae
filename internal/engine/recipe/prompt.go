package recipe

// LLM prompt templates. Data only, no logic.

const systemPrompt = `You are a culinary data assistant. You read cooking video transcripts and ingredient lists.
Respond with valid JSON only (no markdown, no prose, no code fences).`

// extractionPrompt lists ingredients used in a transcript.
// Args: transcript.
const extractionPrompt = `Below is the transcript of a cooking video. Extract the ingredients used in the dish.

Transcript:
%s

Rules:
1. Include only items actually used as ingredients
2. Exclude cooking tools, appliances and techniques
3. Strip quantities and units; keep only the ingredient name (e.g. "김치 200g" → "김치")
4. Write each name in the SAME LANGUAGE as the transcript
5. List each ingredient once

Respond with exactly this shape:
{"ingredients": ["ingredient", "ingredient"]}`

// normalizeFirstPrompt cleans an ingredient list.
// Args: bullet list of ingredients.
const normalizeFirstPrompt = `Normalize the following ingredient list.

Ingredients:
%s

Rules:
1. Fix typos (e.g. "영파" → "양파")
2. Generalize overly specific names to their common name (e.g. "적양파" → "양파", "대파" → "파")
3. Remove brand names
4. Use the standard spelling of the list's language
5. Merge duplicates
6. Never add an ingredient that is not in the list; the output must not be longer than the input`

// normalizeSecondPrompt consolidates an already normalized list more strictly.
// Args: bullet list of ingredients.
const normalizeSecondPrompt = `Normalize the following ingredient list more strictly. Reduce every item to its most general, standard name.

Ingredients:
%s

Strict rules:
1. Replace very specific names with the most general name
2. Replace regional or dialect names with the standard term
3. Merge similar items into one (e.g. "쪽파", "실파", "대파" → "파")
4. Remove unnecessary qualifiers
5. Keep only the most basic ingredient names
6. Never add or re-introduce an ingredient; the output must not be longer than the input`

// normalizeShape is the plain response shape for both normalization passes.
const normalizeShape = `

Respond with exactly this shape:
{"normalized_ingredients": ["ingredient", "ingredient"]}`

// trackedSuffix replaces the response shape when provenance tracking is on.
// The input list is numbered from 1.
const trackedSuffix = `

Every input line is numbered. For every output name, list the numbers of the input lines it was derived from.
Respond with exactly this shape:
{"normalized_ingredients": [{"name": "ingredient", "from": [1, 3]}]}`

// classifyPrompt assigns a cuisine label.
// Args: transcript prefix, comma-separated ingredients, title, label list.
const classifyPrompt = `Classify the cuisine of this dish using the transcript excerpt, ingredients and title.

Transcript excerpt:
%s

Ingredients:
%s

Video title:
%s

Rules:
1. Weigh ingredients, cooking techniques and terminology together
2. Korean: kimchi, gochugaru, doenjang, gochujang, soy sauce, sesame oil, perilla leaves
3. Chinese: oyster sauce, chunjang, star anise, five-spice, bok choy, bamboo shoots
4. Japanese: miso, kombu, katsuobushi, mirin, sake, wasabi
5. Western: butter, cheese, cream, olive oil, herbs
6. Italian: pasta, tomato sauce, basil, parmesan
7. If you are not sure, answer "Other" rather than guessing
8. confidence is a number between 0.0 and 1.0

cuisine_type must be exactly one of: %s

Respond with exactly this shape:
{"cuisine_type": "Korean", "confidence": 0.9, "reasoning": "one or two sentences"}`

// verifyPrompt re-checks an initial classification as a hypothesis.
// Args: initial label, initial confidence, initial reasoning, ingredients, transcript prefix, label list.
const verifyPrompt = `A first-pass classifier produced this hypothesis:
- cuisine: %s
- confidence: %.2f
- reasoning: %s

Check whether the hypothesis holds.

Ingredients: %s
Transcript excerpt: %s

Verification rules:
1. Judge whether the first result is reasonable; do not start from scratch
2. Re-examine the ingredients and techniques
3. If uncertain, lower the confidence or change the cuisine to "Other"
4. Be conservative with the final confidence

cuisine_type must be exactly one of: %s

Respond with exactly this shape:
{"cuisine_type": "Korean", "confidence": 0.8, "reasoning": "one or two sentences"}`
