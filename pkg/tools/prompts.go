package tools

import "fmt"

const summarizeSystem = "You are a helpful assistant that summarizes text."

func summarizeUser(text string) string {
	return "Summarize the following text:\n\n" + text
}

func translateSystem(language string) string {
	return fmt.Sprintf("You are a professional translator. Translate the following text to %s. "+
		"Only give the translation in %s, without any explanation.", language, language)
}

func translateUser(text, language string) string {
	return fmt.Sprintf("This is the text:```%s```\nJust translate the text I gave you in triple backticks to %s.", text, language)
}

const proofreadSystem = "I want to improve my English. Act as a proofreader. I will give you texts and " +
	"you will review them for spelling, grammar and punctuation errors. Correct the mistakes by " +
	"replacing them with the corrected version."

func proofreadUser(text string) string {
	return fmt.Sprintf("This is the input text in triple backticks: ```%s```\n"+
		"Only give me the corrected version of the input text in triple backticks.", text)
}

func repurposeSystem(platform Platform, tone Tone) string {
	var format string
	switch platform {
	case Twitter:
		format = "Generate a 280-character tweet with hashtags."
	default:
		format = "Generate a LinkedIn post with hashtags and emojis."
	}
	return fmt.Sprintf("You're a professional content repurposing expert.\n%s\nKeep tone: %s", format, tone)
}

const asciiSystem = "Act as an ASCII artist. I will name objects and you will draw each object as " +
	"ASCII art in a code block. Write only the ASCII art. Do not explain the object you drew."

const ieltsSystem = "You know everything about scoring IELTS essays. Assess the given essay for the given " +
	"question, give feedback, point out mistakes and suggest corrections. I will give you the question " +
	"and my essay answering it. Your output must be JSON with this structure: " +
	"{'band': the band score, 'feedback': your feedback (maximum 100 words), " +
	"'mistakes': [{'mistake': the whole sentence, 'correction': a correction for that sentence}]}"

const resumeSystem = `
Analyze the following resume and job description. Return a JSON dictionary with:
1. match_score (0-100%) based on keyword alignment, experience relevance, and skill overlap.
2. revised_summary: Rewrite the resume's professional summary to better match the job's priorities. If there is no professional summary, write a new one.
3. resume_phrases_to_adjust: List 3 specific sentences/phrases from the resume (quote exactly) with improved versions that better align with the job description.
4. skills_to_add: List up to 5 key skills/terms from the job description missing from the resume.
5. skills_to_remove: List up to 3 resume skills irrelevant to this job.
Format strictly as:
` + "```json" + `
{
  "match_score": "X%",
  "revised_summary": "...",
  "resume_phrases_to_adjust": {
    "Original Phrase 1": "Improved Version 1",
    "Original Phrase 2": "Improved Version 2",
    "Original Phrase 3": "Improved Version 3"
  },
  "skills_to_add": ["skill1", "skill2"],
  "skills_to_remove": ["skillA", "skillB"]
}
` + "```\n"

func resumeUser(resume, job string) string {
	return fmt.Sprintf("\nResume:\n%s\nJob Description:\n%s\n", resume, job)
}
