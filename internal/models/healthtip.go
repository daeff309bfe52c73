package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HealthTip struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Category  string             `bson:"category" json:"category"` // nutrition, exercise, mental-health, sleep, general, covid-19, seasonal
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// DefaultHealthTips is the content loaded by the seed-tips command.
var DefaultHealthTips = []HealthTip{
	{Title: "Stay Hydrated", Content: "Drink at least 8 glasses of water daily to maintain optimal health and energy levels.", Category: "general"},
	{Title: "Regular Exercise", Content: "Aim for at least 30 minutes of moderate exercise 5 days a week to improve cardiovascular health.", Category: "exercise"},
	{Title: "Balanced Diet", Content: "Include a variety of fruits, vegetables, whole grains, and lean proteins in your daily meals.", Category: "nutrition"},
	{Title: "Quality Sleep", Content: "Get 7-9 hours of sleep each night to support physical recovery and mental well-being.", Category: "sleep"},
	{Title: "Mental Health Matters", Content: "Practice mindfulness or meditation for 10 minutes daily to reduce stress and anxiety.", Category: "mental-health"},
	{Title: "COVID-19 Prevention", Content: "Wash hands frequently, wear masks in crowded places, and maintain social distancing.", Category: "covid-19"},
	{Title: "Seasonal Flu Prevention", Content: "Get your annual flu shot and maintain good hygiene practices during flu season.", Category: "seasonal"},
	{Title: "Regular Checkups", Content: "Schedule annual health screenings and preventive care appointments with your healthcare provider.", Category: "general"},
}
