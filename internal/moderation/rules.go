package moderation

import (
	"fmt"
	"regexp"
	"strings"
)

// Shared patterns reused across groups. Compiled once at package init and
// reused for every call, making them safe and efficient for concurrent use.
// Go's regexp package (RE2) guarantees linear-time matching, so none of the
// patterns below can be driven into catastrophic backtracking by hostile
// input.
var (
	// urlPattern matches http/https URLs, www. URLs, and common TLD patterns.
	// The bare-domain variant requires a trailing "/" to avoid false positives
	// on version strings like "v2.0" or decimal numbers like "3.14".
	urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|\S+\.(com|net|org|io|co|xyz|info|biz|ru|cn|tk|ml|ga|cf)/\S*)`)

	// phonePattern matches common phone number formats such as:
	//   +1-555-123-4567, (555) 123-4567, 555.123.4567, 09171234567
	// Anchored to non-digit boundaries to avoid matching digit sequences
	// embedded in longer numbers or short values like "100".
	phonePattern = regexp.MustCompile(`(?:^|[^\d])(\+?\d{1,3}[-.\s]?)?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}(?:[^\d]|$)`)

	// emailPattern matches ordinary email addresses.
	emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)

	// cardPattern matches 16-digit payment card numbers with optional
	// spacing or dashes between the four-digit groups.
	cardPattern = regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)
)

// rx compiles a case-insensitive rule pattern. All rule matching is
// case-insensitive by contract.
func rx(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// patternGroup binds one category to the rules that detect it. Groups are
// independent: no rule depends on another, and the scan never stops early,
// so every category that matches is reported.
type patternGroup struct {
	category    Category
	description string
	patterns    []*regexp.Regexp
}

// defaultGroups is the static pattern table. It is immutable after package
// init; concurrent readers need no synchronization.
var defaultGroups = mustGroups([]patternGroup{
	{
		category:    CategorySexualContent,
		description: "sexual content or inappropriate advances",
		patterns: []*regexp.Regexp{
			rx(`\bsend (me )?(a |some )?(nudes?|naked (pics?|photos?)|sexy (pics?|photos?))\b`),
			rx(`\bnude (pics?|photos?|selfies?)\b`),
			rx(`\bsend (me )?(a )?selfies?\b`),
			rx(`\byou('re| are| look) (so |really )?(sexy|hot|cute)\b`),
			rx(`\bwhat are you wearing\b`),
			rx(`\bare you (a )?virgin\b`),
			rx(`\bage is just a number\b`),
		},
	},
	{
		category:    CategoryThreatening,
		description: "threats of violence or harm",
		patterns: []*regexp.Regexp{
			rx(`\bi('ll| will|'m going to| am going to) (hurt|kill|find|get) you\b`),
			rx(`\bkill yourself\b`),
			rx(`\bgo die\b`),
			rx(`\byou('ll| will) regret (this|it)\b`),
			rx(`\bi know where you live\b`),
			rx(`\bwatch your back\b`),
			rx(`\byou deserve to (die|suffer)\b`),
		},
	},
	{
		category:    CategoryHarassment,
		description: "insults or demeaning language",
		patterns: []*regexp.Regexp{
			rx(`\bfuck you\b`),
			rx(`\byou('re| are) (so |such )?(stupid|an idiot|worthless|pathetic|a loser|useless|a failure)\b`),
			rx(`\b(dumbass|moron|imbecile)\b`),
			rx(`\bbitch\b`),
			rx(`\bshut up\b`),
			rx(`\byour (son|daughter|kid|child) is (stupid|dumb|hopeless|an idiot)\b`),
		},
	},
	{
		category:    CategoryHateSpeech,
		description: "pejorative generalizations about protected groups",
		patterns: []*regexp.Regexp{
			rx(`\b(all|every) (women|men|foreigners|immigrants|muslims|christians|jews|gays|blacks|asians) (are|is) (stupid|evil|criminals?|liars?|dirty|trash|inferior)\b`),
			rx(`\bgo back to your country\b`),
			rx(`\byour kind (is not|isn't|aren't) welcome\b`),
			rx(`\b(white|racial) (power|supremacy)\b`),
			rx(`\bheil hitler\b`),
		},
	},
	{
		category:    CategoryOffPlatformPay,
		description: "attempts to move payment off the platform",
		patterns: []*regexp.Regexp{
			rx(`\b(gcash|paymaya|venmo|paypal|cash ?app|zelle|revolut|western union|bank transfer)\b`),
			rx(`\bpay (me )?(directly|in cash|outside|off( |-)platform)\b`),
			rx(`\b(send|wire|transfer) (the )?(money|payment|fee) (directly|to my (account|number))\b`),
			rx(`\bavoid (the )?(platform|service|booking) fees?\b`),
			rx(`\b(cheaper|discount) if (we|you) (book|pay|go) (outside|direct(ly)?|off( |-)platform)\b`),
			rx(`\bsettle (it |payment )?(offline|privately)\b`),
		},
	},
	{
		category:    CategoryContactExchange,
		description: "sharing or requesting contact details",
		patterns: []*regexp.Regexp{
			phonePattern,
			emailPattern,
			rx(`\b(whats ?app|telegram|viber|wechat|snapchat|kakao ?talk)\b`),
			rx(`\b(here('s| is)|this is) my (number|cell|mobile|digits)\b`),
			rx(`\b(text|call) me (at|on)\b`),
			rx(`\b(send|give) me your (phone number|number|cell|mobile|email|instagram|facebook)\b`),
			rx(`\b(add|dm|message) me on\b`),
		},
	},
	{
		category:    CategoryExternalLinks,
		description: "external URLs or link solicitation",
		patterns: []*regexp.Regexp{
			urlPattern,
			rx(`\b(visit|click|check out|go to) (this|the|my) (link|site|website|page)\b`),
		},
	},
	{
		category:    CategorySpam,
		description: "unsolicited offers and get-rich-quick schemes",
		patterns: []*regexp.Regexp{
			rx(`\bget rich quick\b`),
			rx(`\bguaranteed (income|profits?|returns?|earnings)\b`),
			rx(`\bearn \$?\d+([,.]\d+)? (a|per|every) (day|week|month|hour)\b`),
			rx(`\bdouble your (money|investment)\b`),
			rx(`\bfree (bitcoin|crypto|money|cash)\b`),
			rx(`\b(bitcoin|crypto|forex) (investment|trading) (opportunity|scheme|program)\b`),
			rx(`\bjoin my (team|network|downline)\b`),
			rx(`\bpassive income\b`),
			rx(`\bwork from home and (earn|make)\b`),
			rx(`\blimited (slots?|time) (offer|only)\b`),
		},
	},
	{
		category:    CategoryGrooming,
		description: "secrecy requests and private-meeting solicitation",
		patterns: []*regexp.Regexp{
			rx(`\bdon'?t tell (your )?(parents?|mom|mum|dad|anyone|anybody)\b`),
			rx(`\b(our|it'?s our) (little )?secret\b`),
			rx(`\bkeep (this|it) (a secret|between us|just between us)\b`),
			rx(`\bmeet (me )?(alone|in private|privately)\b`),
			rx(`\bjust the two of us\b`),
			rx(`\bwithout your parents (knowing|around)\b`),
			rx(`\byou('re| are) (so )?mature for your age\b`),
		},
	},
	{
		category:    CategorySensitiveInfo,
		description: "requests for identification or financial details",
		patterns: []*regexp.Regexp{
			rx(`\b(home|house) address\b`),
			rx(`\bwhere (exactly )?do you live\b`),
			rx(`\b(ssn|social security number)\b`),
			rx(`\b(credit|debit) card (number|details)\b`),
			rx(`\bcvv\b`),
			rx(`\bpassport number\b`),
			rx(`\b(send|give) me your (id|government id|school id)\b`),
			cardPattern,
		},
	},
})

// mustGroups validates the pattern table at init time: every group must have
// a unique category and at least one pattern. A malformed table is a
// programming error, so it panics rather than surfacing at evaluation time.
func mustGroups(groups []patternGroup) []patternGroup {
	seen := make(map[Category]bool, len(groups))
	for _, g := range groups {
		if g.category == "" {
			panic("moderation: pattern group with empty category")
		}
		if len(g.patterns) == 0 {
			panic(fmt.Sprintf("moderation: pattern group %q has no patterns", g.category))
		}
		if seen[g.category] {
			panic(fmt.Sprintf("moderation: duplicate pattern group for category %q", g.category))
		}
		seen[g.category] = true
	}
	return groups
}

// RuleEngine scans message text against the static pattern table. It is
// pure, stateless computation over immutable data and is safe for any
// number of concurrent callers.
type RuleEngine struct {
	groups []patternGroup
}

// NewRuleEngine returns a RuleEngine backed by the default pattern table.
func NewRuleEngine() *RuleEngine {
	return &RuleEngine{groups: defaultGroups}
}

// Scan returns every category whose group has at least one matching rule,
// plus the source text of each rule that matched (for diagnostics and audit
// logging). All groups are always evaluated; finding one category never
// short-circuits the others. Empty or whitespace-only text yields an empty
// result.
func (e *RuleEngine) Scan(text string) ([]Category, []string) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var categories []Category
	var matched []string
	for _, g := range e.groups {
		hit := false
		for _, p := range g.patterns {
			if p.MatchString(text) {
				matched = append(matched, p.String())
				hit = true
			}
		}
		if hit {
			categories = append(categories, g.category)
		}
	}
	return categories, matched
}
