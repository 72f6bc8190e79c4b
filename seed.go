package main

import (
	"context"

	"go.uber.org/zap"
	"roster-dashboard-go/models"
)

// rosterSeeder is the part of the backend client seeding needs
type rosterSeeder interface {
	LoadStudents(ctx context.Context) []models.Student
	AddStudent(ctx context.Context, student models.Student) models.Result
}

// sampleStudents are added to an empty roster by the seed command
var sampleStudents = []models.Student{
	{Roll: "CS001", Name: "Asha Rao", Age: "19", Branch: "CS", Marks: "88"},
	{Roll: "IT002", Name: "Ben Okafor", Age: "20", Branch: "IT", Marks: "64"},
	{Roll: "ECE003", Name: "Chen Wei", Age: "21", Branch: "ECE", Marks: "47"},
}

// checkAndSeedData adds the sample students when the backend roster is
// empty and reports how many were added.
func checkAndSeedData(ctx context.Context, roster rosterSeeder, logger *zap.Logger) int {
	existing := roster.LoadStudents(ctx)
	if len(existing) > 0 {
		logger.Info("Roster already has students, skipping seed", zap.Int("count", len(existing)))
		return 0
	}
	logger.Info("Roster is empty, adding sample students")
	return seedInitialData(ctx, roster, logger)
}

// seedInitialData adds each sample student; a rejected one is logged and skipped
func seedInitialData(ctx context.Context, roster rosterSeeder, logger *zap.Logger) int {
	added := 0
	for _, s := range sampleStudents {
		result := roster.AddStudent(ctx, s)
		if !result.Success {
			logger.Warn("Error adding sample student", zap.String("roll", s.Roll), zap.String("message", result.Message))
			continue
		}
		added++
	}
	logger.Info("Sample students added", zap.Int("added", added))
	return added
}
