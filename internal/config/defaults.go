package config

import _ "time/tzdata" // Asia/Kolkata must resolve on minimal CI images

// defaultRaw returns the built-in configuration: a daily search for product
// manager roles on ATS career sites across Indian cities.
func defaultRaw() rawConfig {
	return rawConfig{
		PollingInterval: "24h",
		Timezone:        "Asia/Kolkata",
		HTTPTimeout:     "30s",
		Search: rawSearchConfig{
			Endpoint: "https://serpapi.com/search",
			Engine:   "google",
			Num:      50,
			Country:  "in",
			Language: "en",
			Recency:  "qdr:d",
			Label:    "Product Manager",
			Sites: []string{
				"myworkdayjobs.com", "greenhouse.io", "lever.co", "icims.com",
				"smartrecruiters.com", "taleo.net", "jobvite.com", "workforcenow.adp.com",
				"bamboohr.com", "brassring.com", "breezy.hr", "bullhorn.com",
				"jazzhr.com", "jobdiva.com", "successfactors.com",
			},
			Roles: []string{
				"product manager", "senior product manager",
				"associate product manager", "principal product manager",
			},
			Locations: []string{
				"India", "Bengaluru", "Bangalore", "Mumbai", "Delhi", "Gurgaon", "Gurugram",
				"Hyderabad", "Pune", "Chennai", "Noida", "Kolkata", "New Delhi",
			},
		},
		AI: rawAIConfig{
			BaseURL:        "https://api.groq.com/openai/v1",
			Model:          "llama-3.1-70b-versatile",
			Temperature:    0.1,
			MaxTokens:      3000,
			MaxResults:     30,
			MaxPromptChars: 4000,
			Timeout:        "60s",
		},
		Store: rawStoreConfig{
			Type:      "json",
			Path:      "data/jobs.json",
			Retention: 200,
		},
		Notification: rawNotificationConfig{
			Type:        "telegram",
			TelegramURL: "https://api.telegram.org",
			MaxListed:   5,
			TitleMaxLen: 50,
		},
		Dashboard: rawDashboardConfig{
			OutputDir:      "docs",
			MaxListings:    100,
			MaxAPIListings: 50,
			Title:          "Product Manager Jobs",
			Subtitle:       "Automated daily search from ATS career sites across India",
		},
		Retry: rawRetryConfig{
			BaseDelay: "5s",
		},
	}
}
