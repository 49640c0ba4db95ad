// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

// Package profile implements the background-questionnaire profile attached
// one-to-one to an account.
//
// # Rules
//
// A profile is created once after registration (or skipped entirely) and is
// always replaced wholesale on update — partial profiles are not a valid
// state, so there is no field-by-field patching anywhere in this package.
package profile

import "time"

// ProgrammingLevel describes prior programming experience.
type ProgrammingLevel string

const (
	ProgrammingNone         ProgrammingLevel = "none"
	ProgrammingBeginner     ProgrammingLevel = "beginner"
	ProgrammingIntermediate ProgrammingLevel = "intermediate"
	ProgrammingAdvanced     ProgrammingLevel = "advanced"
)

// RoboticsFamiliarity describes prior exposure to robotics.
type RoboticsFamiliarity string

const (
	RoboticsNone         RoboticsFamiliarity = "none"
	RoboticsHobbyist     RoboticsFamiliarity = "hobbyist"
	RoboticsAcademic     RoboticsFamiliarity = "academic"
	RoboticsProfessional RoboticsFamiliarity = "professional"
)

// HardwareExperience describes hands-on hardware background.
type HardwareExperience string

const (
	HardwareNone       HardwareExperience = "none"
	HardwareArduino    HardwareExperience = "arduino"
	HardwareEmbedded   HardwareExperience = "embedded"
	HardwareIndustrial HardwareExperience = "industrial"
)

// LearningGoal describes why the reader is working through the material.
type LearningGoal string

const (
	GoalCareerChange    LearningGoal = "career_change"
	GoalAcademic        LearningGoal = "academic"
	GoalHobby           LearningGoal = "hobby"
	GoalProfessionalDev LearningGoal = "professional_dev"
)

// Allowed values per field, consumed by boundary validation. Anything outside
// these closed sets is rejected before it reaches storage.
var (
	ProgrammingLevels     = []string{"none", "beginner", "intermediate", "advanced"}
	RoboticsFamiliarities = []string{"none", "hobbyist", "academic", "professional"}
	HardwareExperiences   = []string{"none", "arduino", "embedded", "industrial"}
	LearningGoals         = []string{"career_change", "academic", "hobby", "professional_dev"}
)

// Profile is the questionnaire record for one account.
//
// # Invariants
//   - At most one Profile per account.
//   - All four fields are always set together.
type Profile struct {
	AccountID           string              `json:"account_id"`
	ProgrammingLevel    ProgrammingLevel    `json:"programming_level"`
	RoboticsFamiliarity RoboticsFamiliarity `json:"robotics_familiarity"`
	HardwareExperience  HardwareExperience  `json:"hardware_experience"`
	LearningGoal        LearningGoal        `json:"learning_goal"`
	UpdatedAt           time.Time           `json:"updated_at"`
}
