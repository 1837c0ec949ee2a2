package schema

// ToolSearch is the shape of a directory search.
var ToolSearch = &Descriptor{
	Name:    "tool_search",
	Version: "tool-search-v1",
	Root: object("", "",
		&Field{
			Name:        "tools",
			Type:        TypeArray,
			Description: "A list of up to 8 relevant tools found on the web.",
			Required:    true,
			Items: object("", "",
				str("id", "A URL-friendly slug for the tool, based on its name (e.g., 'visual-studio-code'). Must be lowercase and use dashes for spaces."),
				str("name", "The official name of the tool."),
				str("tagline", "A concise, one-sentence tagline or description for the tool."),
			),
		},
	),
}

// ToolDetail is the shape of a single tool analysis.
var ToolDetail = &Descriptor{
	Name:    "tool_detail",
	Version: "tool-details-v3",
	Root: object("", "",
		str("description", "A comprehensive and neutral paragraph describing what the tool is, its primary purpose, and who its target audience is. Should be around 4-5 sentences. If the tool is not found, this MUST be the exact string 'ERROR: Tool not found'."),
		strList("keyFeatures", "A list of 3 to 5 of the most important and defining features of the tool."),
		strList("useCases", "A list of 3 to 5 common real-world applications or problems this tool solves."),
		str("pricingModel", "A brief description of the pricing structure (e.g., 'Freemium with paid tiers', 'Subscription-based', 'Free and Open Source', 'One-time purchase')."),
		strList("pros", "A list of 3 key strengths or advantages of using this tool."),
		strList("cons", "A list of 3 key weaknesses or disadvantages of using this tool."),
		strList("competitors", "A list of 3-4 main competitors or alternative tools."),
	),
}

// NewsArticles is the shape of the structured news phase.
var NewsArticles = &Descriptor{
	Name:    "news_articles",
	Version: "news-v9",
	Root: &Field{
		Type:     TypeArray,
		Required: true,
		Items: object("", "",
			str("title", "The original, accurate title of the news article."),
			str("summary", "A concise, one-paragraph summary of the article's key points, written in a journalistic style."),
			str("source", "The name of the publication or website that published the article (e.g., 'TechCrunch', 'The Verge')."),
			str("publishDate", "The original publication date in the format 'Month Day, Year' (e.g., August 27, 2025)."),
			str("url", "The direct URL to the original news article, copied exactly from the provided list."),
		),
	},
}

// ToolComparison is the shape of a pairwise comparison.
var ToolComparison = &Descriptor{
	Name:    "tool_comparison",
	Version: "comparison-v2",
	Root: object("", "",
		object("summary", "",
			str("tool1_wins", "A brief sentence on where Tool 1 excels or its ideal user profile."),
			str("tool2_wins", "A brief sentence on where Tool 2 excels or its ideal user profile."),
		),
		object("featureComparison", "",
			strList("tool1", "A list of 3-4 key features for Tool 1."),
			strList("tool2", "A list of 3-4 key features for Tool 2."),
		),
		object("useCaseComparison", "",
			strList("tool1", "A list of 2-3 primary use cases for Tool 1."),
			strList("tool2", "A list of 2-3 primary use cases for Tool 2."),
		),
		object("pricingComparison", "",
			str("tool1_pricing", "A brief description of Tool 1's pricing model."),
			str("tool2_pricing", "A brief description of Tool 2's pricing model."),
		),
		str("recommendation", "A concluding paragraph summarizing the comparison and providing a clear recommendation on which tool to choose for specific needs or user types."),
	),
}

// All returns every registered descriptor.
func All() []*Descriptor {
	return []*Descriptor{ToolSearch, ToolDetail, NewsArticles, ToolComparison}
}
