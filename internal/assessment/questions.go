package assessment

import "mindmosaic-backend/internal/models"

// Questions is the fixed questionnaire, in presentation order.
var Questions = []models.Question{
	{
		ID:      1,
		Text:    "How often do you engage in physical activities?",
		Options: []string{"Daily", "4-6 times a week", "2-3 times a week", "Once a week", "Rarely"},
	},
	{
		ID:      2,
		Text:    "How would you rate your sleep quality in the past week?",
		Options: []string{"Excellent", "Good", "Fair", "Poor", "Very poor"},
	},
	{
		ID:      3,
		Text:    "How often do you feel overwhelmed by your daily responsibilities?",
		Options: []string{"Never", "Rarely", "Sometimes", "Often", "Always"},
	},
	{
		ID:      4,
		Text:    "How would you describe your social connections and support system?",
		Options: []string{"Very strong", "Strong", "Moderate", "Weak", "Very weak"},
	},
	{
		ID:      5,
		Text:    "How often do you experience difficulty concentrating?",
		Options: []string{"Never", "Rarely", "Sometimes", "Often", "Always"},
	},
	{
		ID:      6,
		Text:    "How would you rate your overall stress level?",
		Options: []string{"Very low", "Low", "Moderate", "High", "Very high"},
	},
	{
		ID:      7,
		Text:    "How often do you engage in activities you enjoy?",
		Options: []string{"Daily", "Several times a week", "Weekly", "Monthly", "Rarely"},
	},
	{
		ID:      8,
		Text:    "How would you rate your ability to manage your emotions?",
		Options: []string{"Excellent", "Good", "Fair", "Poor", "Very poor"},
	},
}

// Quotes are shown while suggestions are being generated.
var Quotes = []string{
	"A peaceful mind leads to a healthy body and a harmonious life. — Sadhguru",
	"You must be the change you wish to see in the world. — Mahatma Gandhi",
	"The mind is everything. What you think, you become. — Buddha",
	"A calm mind brings inner strength and self-confidence, so that's very important for good health. — Dalai Lama",
	"The greatest wealth is health. — Mahatma Gandhi",
	"You have to dream before your dreams can come true. — Dr. A.P.J. Abdul Kalam",
}
