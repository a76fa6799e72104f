// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// topics.go defines the standing research plan. Every run covers the
// same six angles on a company's private-investing activity; extra
// topics from the caller append to the core, never replace it.
package supervisor

import "fmt"

// CoreTopics returns the standard research questions for a company.
func CoreTopics(company string) []string {
	return []string{
		fmt.Sprintf("What is %s's overall private investing strategy, including asset classes, investment vehicles, and stated objectives?", company),
		fmt.Sprintf("Who are the key people leading %s's private investing activity, with their full titles and backgrounds?", company),
		fmt.Sprintf("What are the most recent news, announcements, and press releases about %s's private investments, with exact dates?", company),
		fmt.Sprintf("What financial details are disclosed about %s's private investing: assets under management, fund sizes, commitment amounts, returns?", company),
		fmt.Sprintf("Which portfolio companies, funds, and co-investment partners is %s involved with?", company),
		fmt.Sprintf("What is the geographic focus of %s's private investing activity: regions, countries, and office locations?", company),
	}
}
