package llm

// Shared prompt text for the three collaborator roles. Both provider
// implementations send these verbatim so their parsing contracts stay
// identical.

// ClassifyPrompt instructs the model to classify one note into the
// structured result ParseClassification expects.
const ClassifyPrompt = `You are classifying ONE short memory note about a user.

Return a compact JSON object with exactly this structure:
{"type": "...", "tags": ["...", "..."], "importance": 1}

Allowed "type" values:
- "identity": where they live, study, work, or background.
- "preference": likes/dislikes, hobbies, taste in music/food/etc.
- "goal": anything they want to achieve or become.
- "worry": repeated concerns about future, career, money, health, etc.
- "relationship": info about family/partner/friends that matters to them.
- "story": memories or personal stories (especially childhood, key events).
- "personality_trait": stable traits, e.g. overthinks, ambitious, shy.
- "mood_pattern": recurring emotional tendencies (e.g. often anxious).
- "other": if none of the above clearly fits.

"tags": short keywords only, 1-3 words each, derived only from the note text.

"importance": 1 for a small detail, 2 if it matters a bit for who they are,
3 if it is central, emotionally heavy, or a repeated theme.

Return ONLY the JSON object, no explanation, no extra fields.`

// ExtractPrompt instructs the model to pull durable facts from one message.
const ExtractPrompt = `You log long-term facts about the user from a single chat message.

Extract up to FIVE short, concrete notes that would be useful later:
- identity (where they live, what they study or do)
- stable likes/dislikes (food, hobbies, topics, music, style)
- long-term goals or dreams (career, life, travel, money, family)
- ongoing worries or problems (career, money, health, relationships, studies)
- relationships they mention (e.g. "younger sister", "mom") only if relevant
- meaningful memories or stories, written as "user has a memory about ..."
- personality traits that clearly show up (e.g. "user tends to overthink")
- recurring mood patterns IF stated (e.g. "user often feels anxious")

Format: one note per line, each a short sentence starting with "user".
Examples:
user likes strawberries
user lives in chicago
user is worried about their career path
user has a childhood memory about playing with a ball

Rules:
- Do NOT invent or guess hidden facts.
- Only use what is explicitly or very clearly implied by the message.
- Do NOT write temporary moods like "user is tired today".
- Do NOT include generic lines like "user sent a message".
- If there is no clear long-term info, return exactly: NONE`

// SummarizePrompt instructs the model to compress the note list into prose.
const SummarizePrompt = `You are summarizing a user's personality and life based on memory notes.

Input: a list of short "user ..." facts and stories.

Output: a short, human-readable summary (1-3 short paragraphs) covering who
they are, what they like and dislike, their goals and worries, their
relationships at a high level, and their personality traits and recurring
themes.

Rules:
- Do NOT add facts that are not in the notes.
- You may gently compress similar notes, but stay faithful.
- Keep it informal but clear, like describing a friend.`
