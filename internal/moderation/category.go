package moderation

// Category identifies one kind of unsafe content. Categories are opaque
// labels shared between the local rule engine and the external classifier;
// the classifier may contribute categories that have no local pattern group.
type Category string

// Categories detected by the local pattern table.
const (
	CategorySexualContent   Category = "sexual-content"
	CategoryThreatening     Category = "threatening"
	CategoryHarassment      Category = "harassment"
	CategoryHateSpeech      Category = "hate-speech"
	CategoryOffPlatformPay  Category = "off-platform-payment"
	CategoryContactExchange Category = "contact-exchange"
	CategoryExternalLinks   Category = "external-links"
	CategorySpam            Category = "spam"
	CategoryGrooming        Category = "grooming"
	CategorySensitiveInfo   Category = "sensitive-info"
)

// Categories sourced only from the external classifier.
const (
	CategorySelfHarm Category = "self-harm"
	CategoryViolence Category = "violence"
)

// Severity is the action class derived from a result's reason set.
type Severity string

const (
	SeverityBlock Severity = "block"
	SeverityWarn  Severity = "warn"
	SeverityAllow Severity = "allow"
)

// blockCategories is the high-severity set: any of these reasons means the
// message must not be delivered.
var blockCategories = map[Category]bool{
	CategorySexualContent:   true,
	CategoryGrooming:        true,
	CategoryThreatening:     true,
	CategoryViolence:        true,
	CategoryHateSpeech:      true,
	CategoryHarassment:      true,
	CategoryOffPlatformPay:  true,
	CategoryContactExchange: true,
	CategorySensitiveInfo:   true,
	CategorySelfHarm:        true,
}

// warnCategories is the medium-severity set: the message may be delivered
// but the sender should be prompted to confirm.
var warnCategories = map[Category]bool{
	CategoryExternalLinks: true,
	CategorySpam:          true,
}

// categoryDescriptions holds the user-facing sentence shown when a message
// is rejected or flagged for a given category.
var categoryDescriptions = map[Category]string{
	CategorySexualContent:   "This message contains sexual or inappropriate content.",
	CategoryThreatening:     "This message contains threatening language.",
	CategoryHarassment:      "This message contains insulting or demeaning language.",
	CategoryHateSpeech:      "This message contains hateful language targeting a group.",
	CategoryOffPlatformPay:  "Payments must go through the platform. Please do not arrange payment outside it.",
	CategoryContactExchange: "Sharing phone numbers, emails, or outside messaging apps is not allowed.",
	CategoryExternalLinks:   "This message contains an external link.",
	CategorySpam:            "This message looks like spam or an unsolicited offer.",
	CategoryGrooming:        "This message contains secrecy or private-meeting requests that are not allowed.",
	CategorySensitiveInfo:   "Please do not request or share personal identification or financial details.",
	CategorySelfHarm:        "This message references self-harm.",
	CategoryViolence:        "This message contains violent content.",
}

// DescribeCategory returns the user-facing description for a category.
// Unknown categories are returned unchanged so the caller always has
// something to display.
func DescribeCategory(c Category) string {
	if desc, ok := categoryDescriptions[c]; ok {
		return desc
	}
	return string(c)
}
