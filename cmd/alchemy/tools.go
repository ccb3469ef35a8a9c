package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/shanemcd/alchemy/pkg/extract"
	"github.com/shanemcd/alchemy/pkg/textgen"
	"github.com/shanemcd/alchemy/pkg/tools"
)

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	good    = color.New(color.FgGreen, color.Bold).SprintFunc()
	bad     = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Input is the text a tool works on: positional args, a file, or stdin.
type Input struct {
	Text []string `arg:"" optional:"" help:"Input text (read from --file or stdin when omitted)"`
	File string   `short:"f" help:"Read input from a file" type:"existingfile"`
}

// Read returns the input text.
func (in *Input) Read() (string, error) {
	if len(in.Text) > 0 {
		return strings.Join(in.Text, " "), nil
	}
	if in.File != "" {
		data, err := os.ReadFile(in.File)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// SummarizeCmd summarizes text.
type SummarizeCmd struct {
	Input `embed:""`
}

func (c *SummarizeCmd) Run(cli *CLI, ctx context.Context) error {
	return runTool(ctx, cli, &c.Input, func(tk *tools.Toolkit, text string) (*textgen.Result, error) {
		return tk.Summarize(ctx, text)
	})
}

// TranslateCmd translates text.
type TranslateCmd struct {
	Input    `embed:""`
	Language string `short:"l" help:"Target language" default:"English"`
}

func (c *TranslateCmd) Run(cli *CLI, ctx context.Context) error {
	return runTool(ctx, cli, &c.Input, func(tk *tools.Toolkit, text string) (*textgen.Result, error) {
		return tk.Translate(ctx, text, c.Language)
	})
}

// ProofreadCmd corrects text and reports when nothing changed.
type ProofreadCmd struct {
	Input `embed:""`
}

func (c *ProofreadCmd) Run(cli *CLI, ctx context.Context) error {
	text, err := c.Read()
	if err != nil {
		return err
	}
	tk, release, err := cli.Toolkit(ctx)
	if err != nil {
		return err
	}
	defer release()

	res, err := tk.Proofread(ctx, text)
	if err != nil {
		return err
	}
	defer res.Close()

	corrected := extract.StripFences(res.Text())
	if err := res.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(corrected) == strings.TrimSpace(text) {
		fmt.Println(good("No changes"))
		return nil
	}
	fmt.Println(heading("Corrected:"))
	fmt.Println(corrected)
	return nil
}

// RepurposeCmd rewrites content as a social media post.
type RepurposeCmd struct {
	Input    `embed:""`
	Platform string `short:"p" help:"Target platform (linkedin, twitter)" default:"linkedin"`
	Tone     string `short:"t" help:"Tone (casual, professional, humorous)" default:"casual"`
}

func (c *RepurposeCmd) Run(cli *CLI, ctx context.Context) error {
	platform, err := tools.ParsePlatform(c.Platform)
	if err != nil {
		return err
	}
	tone, err := tools.ParseTone(c.Tone)
	if err != nil {
		return err
	}
	return runTool(ctx, cli, &c.Input, func(tk *tools.Toolkit, text string) (*textgen.Result, error) {
		return tk.Repurpose(ctx, text, platform, tone)
	})
}

// ASCIICmd draws an object as ASCII art.
type ASCIICmd struct {
	Input `embed:""`
}

func (c *ASCIICmd) Run(cli *CLI, ctx context.Context) error {
	return runTool(ctx, cli, &c.Input, func(tk *tools.Toolkit, text string) (*textgen.Result, error) {
		return tk.ASCIIArt(ctx, text)
	})
}

// IELTSCmd scores an essay.
type IELTSCmd struct {
	Input `embed:""`
}

func (c *IELTSCmd) Run(cli *CLI, ctx context.Context) error {
	essay, err := c.Read()
	if err != nil {
		return err
	}
	tk, release, err := cli.Toolkit(ctx)
	if err != nil {
		return err
	}
	defer release()

	ev, err := tk.EvaluateEssay(ctx, essay)
	if err != nil {
		return structuredErr(err)
	}

	fmt.Printf("%s %.1f\n", heading("Band:"), ev.Band)
	fmt.Printf("%s\n%s\n", heading("Feedback:"), ev.Feedback)
	if len(ev.Mistakes) > 0 {
		fmt.Println(heading("Mistakes:"))
		for _, m := range ev.Mistakes {
			fmt.Printf("  %s %s\n", bad("-"), m.Mistake)
			fmt.Printf("  %s %s\n", good("+"), m.Correction)
		}
	}
	return nil
}

// ResumeCmd matches a resume against a job description.
type ResumeCmd struct {
	Resume string `arg:"" help:"Resume file" type:"existingfile"`
	Job    string `arg:"" help:"Job description file" type:"existingfile"`
}

func (c *ResumeCmd) Run(cli *CLI, ctx context.Context) error {
	resume, err := os.ReadFile(c.Resume)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}
	job, err := os.ReadFile(c.Job)
	if err != nil {
		return fmt.Errorf("read job description: %w", err)
	}

	tk, release, err := cli.Toolkit(ctx)
	if err != nil {
		return err
	}
	defer release()

	m, err := tk.MatchResume(ctx, string(resume), string(job))
	if err != nil {
		return structuredErr(err)
	}

	score := bad(m.MatchScore)
	if m.Strong() {
		score = good(m.MatchScore)
	}
	fmt.Printf("%s %s\n", heading("Match score:"), score)
	fmt.Printf("%s\n%s\n", heading("Revised summary:"), m.RevisedSummary)
	if len(m.PhrasesToAdjust) > 0 {
		fmt.Println(heading("Phrases to adjust:"))
		for _, c := range m.Phrases() {
			fmt.Printf("  %s %s\n  %s %s\n", bad("-"), c.From, good("+"), c.To)
		}
	}
	printList("Skills to add:", m.SkillsToAdd)
	printList("Skills to remove:", m.SkillsToRemove)
	return nil
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Println(heading(title))
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

func structuredErr(err error) error {
	if errors.Is(err, extract.ErrRetriesExhausted) {
		fmt.Fprintln(os.Stderr, bad("The model did not return a usable answer. Try again."))
	}
	return err
}

// runTool reads the input, runs a text tool and prints its result as it
// arrives.
func runTool(ctx context.Context, cli *CLI, in *Input, run func(*tools.Toolkit, string) (*textgen.Result, error)) error {
	text, err := in.Read()
	if err != nil {
		return err
	}
	tk, release, err := cli.Toolkit(ctx)
	if err != nil {
		return err
	}
	defer release()

	res, err := run(tk, text)
	if err != nil {
		return err
	}
	return printResult(os.Stdout, res)
}

// printResult writes each fragment as it arrives and returns the
// generation error, if any.
func printResult(w io.Writer, res *textgen.Result) error {
	defer res.Close()
	for delta := range res.Fragments() {
		if res.Err() != nil && textgen.IsErrorText(delta) {
			break
		}
		fmt.Fprint(w, delta)
	}
	fmt.Fprintln(w)
	return res.Err()
}
