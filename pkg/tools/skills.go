package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shanemcd/alchemy/pkg/llm"
	"github.com/shanemcd/alchemy/pkg/textgen"
)

// Platform is a social network targeted by Repurpose.
type Platform string

const (
	LinkedIn Platform = "linkedin"
	Twitter  Platform = "twitter"
)

// ParsePlatform parses a platform name case-insensitively. Empty means LinkedIn.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linkedin":
		return LinkedIn, nil
	case "twitter", "x":
		return Twitter, nil
	default:
		return "", fmt.Errorf("%w: platform %q (want linkedin or twitter)", ErrInvalidArgument, s)
	}
}

// Tone is the voice of a repurposed post.
type Tone string

const (
	Casual       Tone = "Casual"
	Professional Tone = "Professional"
	Humorous     Tone = "Humorous"
)

// ParseTone parses a tone case-insensitively. Empty means Casual.
func ParseTone(s string) (Tone, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "casual":
		return Casual, nil
	case "professional":
		return Professional, nil
	case "humorous":
		return Humorous, nil
	default:
		return "", fmt.Errorf("%w: tone %q (want casual, professional or humorous)", ErrInvalidArgument, s)
	}
}

// Skill describes a tool for discovery.
type Skill struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	Examples    []string
	// Args lists the optional string arguments Run understands.
	Args []string
}

var skills = []Skill{
	{
		ID:          "chat",
		Name:        "Chat",
		Description: "General-purpose assistant reply",
		Tags:        []string{"chat"},
		Examples:    []string{"What is up?"},
	},
	{
		ID:          "summarize",
		Name:        "Summarizer",
		Description: "Summarizes text",
		Tags:        []string{"text", "summary"},
	},
	{
		ID:          "translate",
		Name:        "Translator",
		Description: "Translates text into a target language",
		Tags:        []string{"text", "translation"},
		Args:        []string{"language"},
	},
	{
		ID:          "proofread",
		Name:        "Proofreader",
		Description: "Corrects spelling, grammar and punctuation",
		Tags:        []string{"text", "editing"},
	},
	{
		ID:          "repurpose",
		Name:        "Content Repurposer",
		Description: "Rewrites content as a LinkedIn post or a tweet",
		Tags:        []string{"text", "social"},
		Args:        []string{"platform", "tone"},
	},
	{
		ID:          "ascii",
		Name:        "ASCII Artist",
		Description: "Draws an object as ASCII art",
		Tags:        []string{"art"},
		Examples:    []string{"Dog!"},
	},
	{
		ID:          "ielts",
		Name:        "IELTS Writing Examiner",
		Description: "Scores an IELTS essay and lists mistakes with corrections",
		Tags:        []string{"structured", "education"},
	},
	{
		ID:          "resume",
		Name:        "Resume Matcher",
		Description: "Matches a resume against a job description",
		Tags:        []string{"structured", "career"},
		Args:        []string{"job"},
	},
}

// DefaultLanguage is used by Run when translate gets no language argument.
const DefaultLanguage = "English"

// Skills returns the available tools.
func Skills() []Skill {
	out := make([]Skill, len(skills))
	copy(out, skills)
	return out
}

// Run dispatches input to the tool with the given skill id. Structured
// answers are rendered as indented JSON.
func (t *Toolkit) Run(ctx context.Context, skill, input string, args map[string]string) (*textgen.Result, error) {
	switch skill {
	case "chat":
		return t.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: input}})
	case "summarize":
		return t.Summarize(ctx, input)
	case "translate":
		lang := args["language"]
		if lang == "" {
			lang = DefaultLanguage
		}
		return t.Translate(ctx, input, lang)
	case "proofread":
		return t.Proofread(ctx, input)
	case "repurpose":
		platform, err := ParsePlatform(args["platform"])
		if err != nil {
			return nil, err
		}
		tone, err := ParseTone(args["tone"])
		if err != nil {
			return nil, err
		}
		return t.Repurpose(ctx, input, platform, tone)
	case "ascii":
		return t.ASCIIArt(ctx, input)
	case "ielts":
		ev, err := t.EvaluateEssay(ctx, input)
		if err != nil {
			return nil, err
		}
		return render(ev)
	case "resume":
		m, err := t.MatchResume(ctx, input, args["job"])
		if err != nil {
			return nil, err
		}
		return render(m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, skill)
	}
}

func render(v any) (*textgen.Result, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render result: %w", err)
	}
	return textgen.Completed(string(data)), nil
}
