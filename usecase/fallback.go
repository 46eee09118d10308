package usecase

import "strings"

const (
	rescueReply = "I'd be happy to help with animal rescue! AidBridge connects people who care with animals in need. " +
		"You can submit a help request on our website, and our network of volunteers and NGOs will assist. " +
		"Would you like to know more about our emergency response system?"
	volunteerReply = "Great! We're always looking for volunteers. You can sign up as a volunteer on our website to help " +
		"with animal rescue, care, or support. We have opportunities for both hands-on work and remote support. " +
		"Would you like to learn more about volunteer opportunities?"
	ngoReply = "AidBridge partners with verified NGOs to maximize our impact. Organizations can register with us to " +
		"coordinate rescue efforts and access our volunteer network. " +
		"Would you like information about NGO registration or partnerships?"
	greetingReply = "Hello! I'm your AI assistant for AidBridge. I help connect people who care with animals and " +
		"communities that need immediate assistance. How can I help you today?"
	defaultReply = "Thanks for your message! I'm here to help with AidBridge services including animal rescue, " +
		"volunteering, and NGO partnerships. Due to API rate limits, I'm currently using a simplified response system. " +
		"Please visit our website for detailed information or try again in a few minutes."
)

type fallbackRule struct {
	keywords []string
	reply    string
}

// Evaluated in order; the first rule with a matching keyword wins.
var fallbackRules = []fallbackRule{
	{keywords: []string{"help", "rescue", "animal"}, reply: rescueReply},
	{keywords: []string{"volunteer", "help out", "participate"}, reply: volunteerReply},
	{keywords: []string{"ngo", "organization"}, reply: ngoReply},
	{keywords: []string{"hi", "hello", "hey"}, reply: greetingReply},
}

// FallbackReply picks a canned reply for utterance by case-insensitive keyword match.
func FallbackReply(utterance string) string {
	lower := strings.ToLower(utterance)
	for _, rule := range fallbackRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.reply
			}
		}
	}
	return defaultReply
}
