package chunk

// Strategy is a separator hierarchy for one language. Separators are tried
// in order: the splitter cuts at the coarsest boundary that still appears
// in an oversized span, then recurses with the finer ones.
type Strategy struct {
	Name       string
	Separators []string
}

// genericSeparators is the fallback hierarchy for text with no language
// strategy: paragraph, line, word, character.
var genericSeparators = []string{"\n\n", "\n", " ", ""}

// strategies maps chunker language tags to their boundary heuristics.
// The hierarchies put top-level declaration keywords first so that chunks
// tend to open on semantically meaningful lines.
var strategies = map[string]Strategy{
	"python": {
		Name: "python",
		Separators: []string{
			"\nclass ",
			"\ndef ",
			"\n\tdef ",
			"\n\n",
			"\n",
			" ",
			"",
		},
	},
	"go": {
		Name: "go",
		Separators: []string{
			"\nfunc ",
			"\ntype ",
			"\nvar ",
			"\nconst ",
			"\n\n",
			"\n",
			" ",
			"",
		},
	},
	"javascript": {
		Name: "javascript",
		Separators: []string{
			"\nfunction ",
			"\nclass ",
			"\nconst ",
			"\nlet ",
			"\nvar ",
			"\n\n",
			"\n",
			" ",
			"",
		},
	},
	"typescript": {
		Name: "typescript",
		Separators: []string{
			"\nfunction ",
			"\nclass ",
			"\ninterface ",
			"\nenum ",
			"\nconst ",
			"\nlet ",
			"\nvar ",
			"\n\n",
			"\n",
			" ",
			"",
		},
	},
}

// StrategyFor returns the splitting strategy for a language tag. Unknown
// tags get the generic recursive text strategy; the classifier keeps
// unsupported files out upstream, so this is a safety net, not a mode.
func StrategyFor(language string) Strategy {
	if s, ok := strategies[language]; ok {
		return s
	}
	return Strategy{Name: "generic", Separators: genericSeparators}
}
