package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/liliang-cn/askcite/internal/config"
	"github.com/liliang-cn/askcite/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	composeFile   string
	composeQuery  string
	composeInline bool
	composeJSON   bool
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose an answer file into annotated text",
	Long: `Reads an upstream answer (text, state, citations, references) from a JSON
file, splices dense citation markers into the text and resolves source links.`,
	Args: cobra.NoArgs,
	RunE: runCompose,
}

func init() {
	addComposeFlags(composeCmd)
	rootCmd.AddCommand(composeCmd)
}

func addComposeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&composeFile, "file", "f", "", "answer JSON file")
	cmd.Flags().StringVarP(&composeQuery, "query", "q", "", "query the answer was generated for")
	cmd.Flags().BoolVar(&composeInline, "inline", false, "answer text already carries [k] markers")
	cmd.Flags().BoolVar(&composeJSON, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("file")
}

func runCompose(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("query") && strings.TrimSpace(composeQuery) == "" {
		cmd.Println(domain.EmptyInputPrompt)
		return nil
	}

	data, err := os.ReadFile(composeFile)
	if err != nil {
		return fmt.Errorf("failed to read answer: %w", err)
	}
	var wire domain.WireAnswer
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to parse answer: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a, err := newApp(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	var composed *domain.ComposedAnswer
	if composeInline {
		composed, err = a.composer.ComposeInlineWire(ctx, wire)
	} else {
		composed, err = a.composer.ComposeWire(ctx, wire)
	}
	var failure *domain.UpstreamFailureError
	if errors.As(err, &failure) {
		return failure
	}
	if err != nil {
		return fmt.Errorf("compose failed: %w", err)
	}

	if strings.TrimSpace(composed.AnnotatedText) == "" {
		cmd.Println(domain.EmptyInputPrompt)
		return nil
	}

	if composeJSON {
		out, err := json.MarshalIndent(composed, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	outputComposed(cmd, composed)
	return nil
}

func outputComposed(cmd *cobra.Command, composed *domain.ComposedAnswer) {
	if composeQuery != "" {
		cmd.Printf("Q: %s\n\n", composeQuery)
	}
	cmd.Println(composed.AnnotatedText)

	if len(composed.Citations) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for _, c := range composed.Citations {
		// Format: [N] Title (kind, location) link
		title := c.Title
		if title == "" {
			title = c.DocumentID + c.VideoID
		}
		line := fmt.Sprintf("[%d] %s (%s", c.Number, title, c.Kind)
		switch {
		case c.Kind == domain.CitationKindVideo:
			line += fmt.Sprintf(", %ds", c.TimestampStart)
		case c.PageNumber > 0:
			line += fmt.Sprintf(", p.%d", c.PageNumber)
		case c.SectionHeading != "":
			line += ", " + c.SectionHeading
		}
		line += ")"
		if c.ResolvedLink != "" {
			line += " " + c.ResolvedLink
		}
		cmd.Println(line)
	}
}
