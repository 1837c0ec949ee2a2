package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/toolverse/domain"
)

var flagNewsRefresh bool

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Find AI tools matching a description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			res, err := a.dir.FindTools(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("finding tools: %w", err)
			}
			return render(cmd.OutOrStdout(), res, func(w io.Writer) {
				if len(res.Tools) == 0 {
					fmt.Fprintln(w, "No tools found.")
				}
				for _, t := range res.Tools {
					fmt.Fprintf(w, "%-24s %s\n", t.Name, t.Tagline)
				}
				printSources(w, res.Sources)
			})
		})
	},
}

var detailsCmd = &cobra.Command{
	Use:   "details <tool>",
	Short: "Describe a single AI tool",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			d, err := a.dir.GetToolDetails(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("getting details: %w", err)
			}
			return render(cmd.OutOrStdout(), d, func(w io.Writer) {
				fmt.Fprintln(w, d.Description)
				fmt.Fprintf(w, "\nPricing: %s\n", d.PricingModel)
				printList(w, "Key features", d.KeyFeatures)
				printList(w, "Use cases", d.UseCases)
				printList(w, "Pros", d.Pros)
				printList(w, "Cons", d.Cons)
				printList(w, "Competitors", d.Competitors)
			})
		})
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <tool1> <tool2>",
	Short: "Compare two AI tools side by side",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			c, err := a.dir.CompareTools(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("comparing tools: %w", err)
			}
			return render(cmd.OutOrStdout(), c, func(w io.Writer) {
				fmt.Fprintf(w, "%s vs %s\n\n", c.Tool1, c.Tool2)
				fmt.Fprintf(w, "%s wins: %s\n", c.Tool1, c.Summary.Tool1Wins)
				fmt.Fprintf(w, "%s wins: %s\n", c.Tool2, c.Summary.Tool2Wins)
				printList(w, c.Tool1+" features", c.FeatureComparison.Tool1)
				printList(w, c.Tool2+" features", c.FeatureComparison.Tool2)
				printList(w, c.Tool1+" use cases", c.UseCaseComparison.Tool1)
				printList(w, c.Tool2+" use cases", c.UseCaseComparison.Tool2)
				fmt.Fprintf(w, "\nPricing: %s / %s\n", c.PricingComparison.Tool1Pricing, c.PricingComparison.Tool2Pricing)
				fmt.Fprintf(w, "\nRecommendation: %s\n", c.Recommendation)
			})
		})
	},
}

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Show recent AI news",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			batch, err := a.dir.GetNews(ctx, flagNewsRefresh)
			if err != nil {
				return fmt.Errorf("getting news: %w", err)
			}
			return render(cmd.OutOrStdout(), batch, func(w io.Writer) {
				fmt.Fprintf(w, "Generated %s\n", batch.GeneratedAt.Local().Format("Jan 2, 2006 15:04"))
				for _, art := range batch.Articles {
					fmt.Fprintf(w, "\n%s\n  %s | %s\n  %s\n  %s\n", art.Title, art.Source, art.PublishDate, art.Summary, art.URL)
				}
			})
		})
	},
}

func init() {
	newsCmd.Flags().BoolVar(&flagNewsRefresh, "refresh", false, "ignore the cached batch and fetch fresh news")
}

// render writes v as indented JSON when --json is set, otherwise runs text.
func render(w io.Writer, v any, text func(io.Writer)) error {
	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

func printSources(w io.Writer, sources []domain.GroundingSource) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for _, s := range sources {
		if s.Title != "" {
			fmt.Fprintf(w, "  %s (%s)\n", s.Title, s.URI)
			continue
		}
		fmt.Fprintf(w, "  %s\n", s.URI)
	}
}
